package handlers

import (
	"io"
	"net/http"
	"strings"
)

type tryOnRequest struct {
	ProductID      string `json:"productId"`
	PersonImageURL string `json:"personImageUrl"`
}

type tryOnResponse struct {
	ResultURL string `json:"resultUrl"`
}

// TryOnGenerate renders a product's garment onto the shopper's photo. The
// photo arrives either as a hosted URL in a JSON body or as a multipart
// upload that is first pushed to image hosting.
func (a *App) TryOnGenerate(w http.ResponseWriter, r *http.Request) {
	if !a.Pixelcut.HasCredentials() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "virtual try-on is not configured")
		return
	}

	var req tryOnRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
			return
		}
		req.ProductID = r.FormValue("productId")
		file, header, err := r.FormFile("personImage")
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "personImage file is required")
			return
		}
		defer file.Close()
		if !a.Cloudinary.HasCredentials() {
			a.error(w, http.StatusServiceUnavailable, "unavailable", "image hosting is not configured")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "failed to read image")
			return
		}
		uploaded, err := a.Cloudinary.Upload(r.Context(), header.Filename, data)
		if err != nil {
			a.Logger.Error().Err(err).Msg("person image upload failed")
			a.error(w, http.StatusBadGateway, "upstream", "image upload failed")
			return
		}
		req.PersonImageURL = uploaded.SecureURL
	} else if !a.decode(w, r, &req) {
		return
	}

	if req.ProductID == "" || req.PersonImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "productId and a person image are required")
		return
	}
	product, err := a.Products.Get(r.Context(), req.ProductID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	garmentURL := product.PrimaryImageURL()
	if garmentURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product has no garment image")
		return
	}

	resultURL, err := a.Pixelcut.GenerateTryOn(r.Context(), req.PersonImageURL, garmentURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("product_id", product.ID).Msg("try-on generation failed")
		a.error(w, http.StatusBadGateway, "upstream", "try-on generation failed")
		return
	}
	a.json(w, http.StatusOK, tryOnResponse{ResultURL: resultURL})
}
