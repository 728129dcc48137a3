package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/middleware"
)

func (a *App) WishlistGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	user, err := a.Users.Get(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	products := make([]domain.Product, 0, len(user.Wishlist))
	for _, productID := range user.Wishlist {
		product, err := a.Products.Get(r.Context(), productID)
		if err != nil {
			// Products removed from the catalog silently drop out of the list.
			continue
		}
		products = append(products, *product)
	}
	a.json(w, http.StatusOK, map[string]any{"products": products})
}

func (a *App) WishlistAdd(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(r.Context())
	if err := a.Users.AddToWishlist(r.Context(), userID, product.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("add to wishlist failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update wishlist")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "added"})
}

func (a *App) WishlistRemove(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	userID := middleware.UserIDFromContext(r.Context())
	if err := a.Users.RemoveFromWishlist(r.Context(), userID, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("remove from wishlist failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update wishlist")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "removed"})
}
