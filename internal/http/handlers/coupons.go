package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
)

func (a *App) CouponsCreate(w http.ResponseWriter, r *http.Request) {
	var coupon domain.Coupon
	if !a.decode(w, r, &coupon) {
		return
	}
	if coupon.Code == "" || coupon.DiscountValue <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "code and a positive discount value are required")
		return
	}
	if coupon.DiscountType != domain.DiscountTypePercentage && coupon.DiscountType != domain.DiscountTypeFixed {
		a.error(w, http.StatusBadRequest, "bad_request", "discount type must be percentage or fixed")
		return
	}
	coupon.ID = ""
	coupon.UsedCount = 0
	coupon.IsActive = true
	if err := a.Coupons.Create(r.Context(), &coupon); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			a.error(w, http.StatusConflict, "conflict", "coupon code already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("create coupon failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create coupon")
		return
	}
	a.json(w, http.StatusCreated, coupon)
}

func (a *App) CouponsList(w http.ResponseWriter, r *http.Request) {
	coupons, err := a.Coupons.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list coupons failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list coupons")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"coupons": coupons})
}

func (a *App) CouponsDelete(w http.ResponseWriter, r *http.Request) {
	couponID := chi.URLParam(r, "couponID")
	if err := a.Coupons.Delete(r.Context(), couponID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "coupon not found")
			return
		}
		a.Logger.Error().Err(err).Msg("delete coupon failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete coupon")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type validateCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type validateCouponResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message,omitempty"`
}

func (a *App) CouponsValidate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if !a.decode(w, r, &req) {
		return
	}
	coupon, err := a.Coupons.GetByCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, validateCouponResponse{Message: "unknown coupon code"})
			return
		}
		a.Logger.Error().Err(err).Msg("load coupon failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to validate coupon")
		return
	}
	discount, err := coupon.DiscountFor(req.Subtotal, time.Now())
	if err != nil {
		a.json(w, http.StatusOK, validateCouponResponse{Message: err.Error()})
		return
	}
	a.json(w, http.StatusOK, validateCouponResponse{Valid: true, Discount: discount})
}
