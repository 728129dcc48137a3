package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
)

const maxImageUploadBytes = 10 << 20

type productListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int64            `json:"page"`
	Limit    int64            `json:"limit"`
}

func (a *App) ProductsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Featured: q.Get("featured") == "true",
		Page:     parseInt64(q.Get("page"), 1),
		Limit:    parseInt64(q.Get("limit"), 20),
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil {
		filter.MinPrice = v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil {
		filter.MaxPrice = v
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	products, total, err := a.Products.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list products failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list products")
		return
	}
	a.json(w, http.StatusOK, productListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
}

func (a *App) ProductsGet(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, product)
}

func (a *App) ProductsCreate(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if !a.decode(w, r, &product) {
		return
	}
	if product.Name == "" || product.Price <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "name and a positive price are required")
		return
	}
	product.ID = ""
	product.IsActive = true
	product.Model3D = nil
	if err := a.Products.Create(r.Context(), &product); err != nil {
		a.Logger.Error().Err(err).Msg("create product failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create product")
		return
	}
	a.json(w, http.StatusCreated, product)
}

func (a *App) ProductsUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	var product domain.Product
	if !a.decode(w, r, &product) {
		return
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	// Generation state is owned by the 3D pipeline, not the catalog editor.
	product.Model3D = existing.Model3D
	if err := a.Products.Update(r.Context(), &product); err != nil {
		a.Logger.Error().Err(err).Msg("update product failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update product")
		return
	}
	a.json(w, http.StatusOK, product)
}

func (a *App) ProductsDelete(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	if err := a.Products.Deactivate(r.Context(), product.ID); err != nil {
		a.Logger.Error().Err(err).Msg("deactivate product failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete product")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) ProductsAddImage(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
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
		a.Logger.Error().Err(err).Str("product_id", product.ID).Msg("image upload failed")
		a.error(w, http.StatusBadGateway, "upstream", "image upload failed")
		return
	}
	product.Images = append(product.Images, domain.ProductImage{
		URL:      uploaded.SecureURL,
		PublicID: uploaded.PublicID,
	})
	if err := a.Products.Update(r.Context(), product); err != nil {
		a.Logger.Error().Err(err).Msg("persist product image failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save image")
		return
	}
	a.json(w, http.StatusCreated, product)
}

type removeImageRequest struct {
	PublicID string `json:"publicId"`
}

func (a *App) ProductsRemoveImage(w http.ResponseWriter, r *http.Request) {
	product, ok := a.loadProduct(w, r)
	if !ok {
		return
	}
	var req removeImageRequest
	if !a.decode(w, r, &req) {
		return
	}
	kept := product.Images[:0]
	removed := false
	for _, img := range product.Images {
		if img.PublicID == req.PublicID && req.PublicID != "" {
			removed = true
			continue
		}
		kept = append(kept, img)
	}
	if !removed {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	product.Images = kept
	if err := a.Products.Update(r.Context(), product); err != nil {
		a.Logger.Error().Err(err).Msg("persist product image removal failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to remove image")
		return
	}
	if err := a.Cloudinary.Destroy(r.Context(), req.PublicID); err != nil {
		// The catalog record is already updated, a stale hosted asset is tolerable.
		a.Logger.Warn().Err(err).Str("public_id", req.PublicID).Msg("destroy hosted image failed")
	}
	a.json(w, http.StatusOK, product)
}

func (a *App) loadProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product id required")
		return nil, false
	}
	product, err := a.Products.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "product not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("product_id", productID).Msg("load product failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load product")
		return nil, false
	}
	return product, true
}

func parseInt64(s string, fallback int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
