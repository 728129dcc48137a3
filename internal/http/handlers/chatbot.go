package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/providers/genai"
)

const chatCatalogLimit = 25

type chatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatMessage answers a shopper's question grounded on the current catalog.
func (a *App) ChatMessage(w http.ResponseWriter, r *http.Request) {
	if !a.Assistant.HasCredentials() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "shopping assistant is not configured")
		return
	}
	var req chatRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	products, _, err := a.Products.List(r.Context(), domain.ProductFilter{Page: 1, Limit: chatCatalogLimit})
	if err != nil {
		a.Logger.Error().Err(err).Msg("load catalog for chat failed")
		a.error(w, http.StatusInternalServerError, "internal", "assistant is unavailable")
		return
	}

	history := make([]genai.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		history = append(history, genai.Message{Role: turn.Role, Text: turn.Text})
	}
	history = append(history, genai.Message{Role: "user", Text: req.Message})

	reply, err := a.Assistant.Chat(r.Context(), catalogPrompt(products), history)
	if err != nil {
		a.Logger.Error().Err(err).Msg("assistant chat failed")
		a.error(w, http.StatusBadGateway, "upstream", "assistant is unavailable")
		return
	}
	a.json(w, http.StatusOK, chatResponse{Reply: reply})
}

func catalogPrompt(products []domain.Product) string {
	var b strings.Builder
	b.WriteString("You are a helpful shopping assistant for the TRY-ON clothing store. ")
	b.WriteString("Answer briefly and only recommend products from the catalog below.\n\nCatalog:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): $%.2f, sizes %s, %d in stock\n",
			p.Name, p.Category, p.Price, strings.Join(p.Sizes, "/"), p.Stock)
	}
	return b.String()
}
