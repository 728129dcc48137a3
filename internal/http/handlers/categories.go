package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
)

func (a *App) CategoriesList(w http.ResponseWriter, r *http.Request) {
	categories, err := a.Categories.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list categories failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	a.json(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *App) CategoriesGet(w http.ResponseWriter, r *http.Request) {
	category, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, category)
}

func (a *App) CategoriesCreate(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if !a.decode(w, r, &category) {
		return
	}
	if strings.TrimSpace(category.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	category.ID = ""
	category.IsActive = true
	if err := a.Categories.Create(r.Context(), &category); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			a.error(w, http.StatusConflict, "conflict", "category already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("create category failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create category")
		return
	}
	a.json(w, http.StatusCreated, category)
}

func (a *App) CategoriesUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	var category domain.Category
	if !a.decode(w, r, &category) {
		return
	}
	category.ID = existing.ID
	category.CreatedAt = existing.CreatedAt
	category.IsActive = existing.IsActive
	if category.Image == nil {
		category.Image = existing.Image
	}
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}
	if err := a.Categories.Update(r.Context(), &category); err != nil {
		a.Logger.Error().Err(err).Msg("update category failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update category")
		return
	}
	a.json(w, http.StatusOK, category)
}

func (a *App) CategoriesDelete(w http.ResponseWriter, r *http.Request) {
	category, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	if err := a.Categories.Deactivate(r.Context(), category.ID); err != nil {
		a.Logger.Error().Err(err).Msg("deactivate category failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete category")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) CategoriesSetImage(w http.ResponseWriter, r *http.Request) {
	category, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	if !a.Cloudinary.HasCredentials() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "image hosting is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read image")
		return
	}

	uploaded, err := a.Cloudinary.Upload(r.Context(), header.Filename, data)
	if err != nil {
		a.Logger.Error().Err(err).Str("category_id", category.ID).Msg("category image upload failed")
		a.error(w, http.StatusBadGateway, "upstream", "image upload failed")
		return
	}
	image := domain.ProductImage{URL: uploaded.SecureURL, PublicID: uploaded.PublicID}
	if err := a.Categories.SetImage(r.Context(), category.ID, image); err != nil {
		a.Logger.Error().Err(err).Msg("persist category image failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save image")
		return
	}
	category.Image = &image
	a.json(w, http.StatusOK, category)
}

func (a *App) loadCategory(w http.ResponseWriter, r *http.Request) (*domain.Category, bool) {
	categoryID := chi.URLParam(r, "categoryID")
	if categoryID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "category id required")
		return nil, false
	}
	category, err := a.Categories.Get(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "category not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("category_id", categoryID).Msg("load category failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load category")
		return nil, false
	}
	return category, true
}
