package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/middleware"
	"github.com/tryon-platform/server/internal/providers/genai"
)

const (
	personalizedLimit      = 10
	aiRecommendationLimit  = 5
	aiCatalogLimit         = 50
	rewardOfferMinPoints   = 100
	rewardOfferCapPercent  = 50.0
	rewardOfferPointFactor = 0.01
)

// quotedName matches the product names the assistant is instructed to wrap
// in double quotes.
var quotedName = regexp.MustCompile(`"([^"]+)"`)

type recommendationsResponse struct {
	Products []domain.Product `json:"products"`
	Source   string           `json:"source"`
}

// RecommendationsPersonalized suggests products from the categories the
// shopper has bought from, skipping what they already own. Anonymous callers
// get the featured selection.
func (a *App) RecommendationsPersonalized(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.respondFeatured(w, r, personalizedLimit)
		return
	}

	orders, err := a.Orders.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load order history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	if len(orders) == 0 {
		a.respondFeatured(w, r, personalizedLimit)
		return
	}

	purchased := make(map[string]bool)
	var categories []string
	seenCategory := make(map[string]bool)
	for _, order := range orders {
		for _, item := range order.Items {
			purchased[item.ProductID] = true
		}
	}
	for id := range purchased {
		product, err := a.Products.Get(r.Context(), id)
		if err != nil || product.Category == "" || seenCategory[product.Category] {
			continue
		}
		seenCategory[product.Category] = true
		categories = append(categories, product.Category)
	}

	var picks []domain.Product
	seen := make(map[string]bool)
	for _, category := range categories {
		if len(picks) >= personalizedLimit {
			break
		}
		products, _, err := a.Products.List(r.Context(), domain.ProductFilter{
			Category: category,
			Page:     1,
			Limit:    personalizedLimit,
		})
		if err != nil {
			a.Logger.Error().Err(err).Str("category", category).Msg("list category products failed")
			continue
		}
		for _, p := range products {
			if purchased[p.ID] || seen[p.ID] || len(picks) >= personalizedLimit {
				continue
			}
			seen[p.ID] = true
			picks = append(picks, p)
		}
	}
	// Top up with featured products when the history is too thin.
	if len(picks) < personalizedLimit {
		featured, err := a.featuredProducts(r.Context(), personalizedLimit)
		if err == nil {
			for _, p := range featured {
				if purchased[p.ID] || seen[p.ID] || len(picks) >= personalizedLimit {
					continue
				}
				seen[p.ID] = true
				picks = append(picks, p)
			}
		}
	}
	if picks == nil {
		picks = []domain.Product{}
	}
	a.json(w, http.StatusOK, recommendationsResponse{Products: picks, Source: "history"})
}

// RecommendationsAI asks the shopping assistant for suggestions grounded on
// the shopper's order history and the live catalog. It degrades to the
// featured selection when the assistant is unconfigured or unhelpful.
func (a *App) RecommendationsAI(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	if !a.Assistant.HasCredentials() {
		a.respondFeatured(w, r, aiRecommendationLimit)
		return
	}

	catalog, _, err := a.Products.List(r.Context(), domain.ProductFilter{Page: 1, Limit: aiCatalogLimit})
	if err != nil {
		a.Logger.Error().Err(err).Msg("load catalog for recommendations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	orders, err := a.Orders.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load order history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}

	reply, err := a.Assistant.Chat(r.Context(), recommendationPrompt(catalog, orders), []genai.Message{
		{Role: "user", Text: "Which products should I try next?"},
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("assistant recommendation failed")
		a.respondFeatured(w, r, aiRecommendationLimit)
		return
	}

	picks := matchQuotedProducts(reply, catalog, aiRecommendationLimit)
	if len(picks) == 0 {
		a.respondFeatured(w, r, aiRecommendationLimit)
		return
	}
	a.json(w, http.StatusOK, recommendationsResponse{Products: picks, Source: "assistant"})
}

type offer struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

// RecommendationsOffers lists the promotions currently available to the
// shopper.
func (a *App) RecommendationsOffers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	user, err := a.Users.Get(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load user for offers failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load offers")
		return
	}

	offers := []offer{{
		Title:       "Welcome Bonus",
		Description: "10% off your next order",
		Discount:    10,
	}}
	if user.RewardPoints > rewardOfferMinPoints {
		discount := float64(user.RewardPoints) * rewardOfferPointFactor
		if discount > rewardOfferCapPercent {
			discount = rewardOfferCapPercent
		}
		offers = append(offers, offer{
			Title:       "Reward Points Bonus",
			Description: fmt.Sprintf("Redeem %d points for %.0f%% off", user.RewardPoints, discount),
			Discount:    discount,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"offers": offers})
}

func (a *App) respondFeatured(w http.ResponseWriter, r *http.Request, limit int64) {
	products, err := a.featuredProducts(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list featured products failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load recommendations")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	a.json(w, http.StatusOK, recommendationsResponse{Products: products, Source: "featured"})
}

func (a *App) featuredProducts(ctx context.Context, limit int64) ([]domain.Product, error) {
	products, _, err := a.Products.List(ctx, domain.ProductFilter{
		Featured: true,
		Page:     1,
		Limit:    limit,
	})
	return products, err
}

func recommendationPrompt(catalog []domain.Product, orders []domain.Order) string {
	var b strings.Builder
	b.WriteString("You are a stylist for the TRY-ON clothing store. ")
	b.WriteString("Recommend up to five products from the catalog below, ")
	b.WriteString("wrapping each product name in double quotes.\n\nPast purchases:\n")
	if len(orders) == 0 {
		b.WriteString("- none yet\n")
	}
	for _, order := range orders {
		for _, item := range order.Items {
			fmt.Fprintf(&b, "- %s x%d\n", item.Name, item.Quantity)
		}
	}
	b.WriteString("\nCatalog:\n")
	for _, p := range catalog {
		fmt.Fprintf(&b, "- \"%s\" (%s): $%.2f\n", p.Name, p.Category, p.Price)
	}
	return b.String()
}

func matchQuotedProducts(reply string, catalog []domain.Product, limit int) []domain.Product {
	byName := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byName[strings.ToLower(p.Name)] = p
	}
	var picks []domain.Product
	seen := make(map[string]bool)
	for _, match := range quotedName.FindAllStringSubmatch(reply, -1) {
		if len(picks) >= limit {
			break
		}
		p, ok := byName[strings.ToLower(strings.TrimSpace(match[1]))]
		if !ok || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		picks = append(picks, p)
	}
	return picks
}
