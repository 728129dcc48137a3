package handlers

import (
	"context"
	"net/http"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/providers/masterpiece"
)

// Model3DGenerate kicks off 3D generation for a product. The job is persisted
// as processing and the remote orchestration runs in the background; the
// response returns immediately.
func (a *App) Model3DGenerate(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	if !a.Masterpiece.Enabled() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "3d generation is disabled")
		return
	}
	imageURL := product.PrimaryImageURL()
	if imageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product has no images to generate from")
		return
	}
	if product.Model3D != nil && product.Model3D.Status == domain.Model3DStatusProcessing {
		a.json(w, http.StatusAccepted, product.Model3D)
		return
	}

	processing := domain.Model3D{Status: domain.Model3DStatusProcessing}
	if err := a.Products.UpdateModel3D(r.Context(), product.ID, processing); err != nil {
		a.Logger.Error().Err(err).Str("product_id", product.ID).Msg("persist processing state failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}

	go a.runGeneration(product.ID, imageURL)

	a.json(w, http.StatusAccepted, processing)
}

// runGeneration drives one generation job to a terminal state and persists
// the outcome. It runs detached from the originating request.
func (a *App) runGeneration(productID, imageURL string) {
	ctx := context.Background()
	result, err := a.Masterpiece.Generate(ctx, imageURL, productID)

	model := domain.Model3D{}
	if err != nil {
		model.Status = domain.Model3DStatusFailed
		model.Error = err.Error()
		if result != nil {
			model.MasterpieceID = result.RequestID
		}
		a.Logger.Error().Err(err).Str("product_id", productID).Msg("3d generation failed")
	} else {
		model.Status = domain.Model3DStatusCompleted
		model.MasterpieceID = result.RequestID
		model.URL = result.ModelURL
		a.Logger.Info().
			Str("product_id", productID).
			Str("request_id", result.RequestID).
			Msg("3d generation completed")
	}

	if err := a.Products.UpdateModel3D(ctx, productID, model); err != nil {
		a.Logger.Error().Err(err).Str("product_id", productID).Msg("persist generation outcome failed")
	}
}

// Model3DStatus reports the stored generation state, refreshing a processing
// job against the remote API when possible. Remote errors fall back to the
// stored state rather than failing the request.
func (a *App) Model3DStatus(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	model := product.Model3D
	if model == nil {
		a.json(w, http.StatusOK, domain.Model3D{Status: domain.Model3DStatusPending})
		return
	}
	if model.Status != domain.Model3DStatusProcessing || model.MasterpieceID == "" || !a.Masterpiece.Enabled() {
		a.json(w, http.StatusOK, model)
		return
	}

	remote, err := a.Masterpiece.CheckStatus(r.Context(), model.MasterpieceID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("product_id", product.ID).Msg("status refresh failed")
		a.json(w, http.StatusOK, model)
		return
	}
	switch remote.Status {
	case masterpiece.StatusCompleted:
		if remote.ModelURL == "" {
			// A terminal report without a model URL is not trusted; keep
			// polling until the asset shows up.
			a.json(w, http.StatusOK, model)
			return
		}
		updated := domain.Model3D{
			Status:        domain.Model3DStatusCompleted,
			MasterpieceID: model.MasterpieceID,
			URL:           remote.ModelURL,
		}
		if err := a.Products.UpdateModel3D(r.Context(), product.ID, updated); err != nil {
			a.Logger.Error().Err(err).Str("product_id", product.ID).Msg("persist refreshed state failed")
		}
		a.json(w, http.StatusOK, updated)
	case masterpiece.StatusFailed:
		updated := domain.Model3D{
			Status:        domain.Model3DStatusFailed,
			MasterpieceID: model.MasterpieceID,
			Error:         "generation failed",
		}
		if err := a.Products.UpdateModel3D(r.Context(), product.ID, updated); err != nil {
			a.Logger.Error().Err(err).Str("product_id", product.ID).Msg("persist refreshed state failed")
		}
		a.json(w, http.StatusOK, updated)
	default:
		a.json(w, http.StatusOK, model)
	}
}

// Model3DModel returns the hosted model URL once generation has completed.
func (a *App) Model3DModel(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	model := product.Model3D
	if model == nil || model.Status != domain.Model3DStatusCompleted || model.URL == "" {
		a.error(w, http.StatusNotFound, "not_found", "no 3d model available for this product")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": model.URL})
}
