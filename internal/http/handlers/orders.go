package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/middleware"
)

const (
	flatShippingCost      = 10.0
	freeShippingThreshold = 100.0
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	CouponCode      string                 `json:"couponCode,omitempty"`
}

func (a *App) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	var req createOrderRequest
	if !a.decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "order has no items")
		return
	}

	// Prices come from the catalog, never from the client.
	var subtotal float64
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "item quantity must be positive")
			return
		}
		product, err := a.Products.Get(r.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.error(w, http.StatusBadRequest, "bad_request", "unknown product in order")
				return
			}
			a.Logger.Error().Err(err).Msg("load order product failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create order")
			return
		}
		if !product.IsActive {
			a.error(w, http.StatusBadRequest, "bad_request", "product is no longer available")
			return
		}
		if product.Stock < item.Quantity {
			a.error(w, http.StatusConflict, "out_of_stock", "insufficient stock for "+product.Name)
			return
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Size:      item.Size,
		})
		subtotal += product.Price * float64(item.Quantity)
	}

	var discount float64
	var coupon *domain.Coupon
	if req.CouponCode != "" {
		var err error
		coupon, err = a.Coupons.GetByCode(r.Context(), req.CouponCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.error(w, http.StatusBadRequest, "coupon_invalid", "unknown coupon code")
				return
			}
			a.Logger.Error().Err(err).Msg("load coupon failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create order")
			return
		}
		discount, err = coupon.DiscountFor(subtotal, time.Now())
		if err != nil {
			a.error(w, http.StatusBadRequest, "coupon_invalid", err.Error())
			return
		}
	}

	shipping := flatShippingCost
	if subtotal-discount >= freeShippingThreshold {
		shipping = 0
	}
	order := &domain.Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     subtotal,
		Discount:        discount,
		ShippingCost:    shipping,
		FinalAmount:     subtotal - discount + shipping,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}
	if err := a.Orders.Create(r.Context(), order); err != nil {
		a.Logger.Error().Err(err).Msg("create order failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create order")
		return
	}

	if coupon != nil {
		if err := a.Coupons.IncrementUsage(r.Context(), coupon.ID); err != nil {
			a.Logger.Warn().Err(err).Str("coupon", coupon.Code).Msg("increment coupon usage failed")
		}
	}
	points := int(math.Floor(order.FinalAmount))
	if points > 0 {
		if err := a.Users.AddRewardPoints(r.Context(), userID, points); err != nil {
			a.Logger.Warn().Err(err).Str("user_id", userID).Msg("award reward points failed")
		}
	}

	a.json(w, http.StatusCreated, order)
}

func (a *App) OrdersListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	orders, err := a.Orders.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list orders failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list orders")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *App) OrdersListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := a.Orders.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list all orders failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list orders")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *App) OrdersGet(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	order, err := a.Orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load order failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load order")
		return
	}
	ctx := r.Context()
	if order.UserID != middleware.UserIDFromContext(ctx) &&
		middleware.RoleFromContext(ctx) != string(domain.UserRoleAdmin) {
		a.error(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	a.json(w, http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status      domain.OrderStatus `json:"status"`
	Location    string             `json:"location,omitempty"`
	Description string             `json:"description,omitempty"`
}

func (a *App) OrdersUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req updateOrderStatusRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !domain.ValidOrderStatus(req.Status) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown order status")
		return
	}
	if err := a.Orders.UpdateStatus(r.Context(), orderID, req.Status, req.Location, req.Description); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		a.Logger.Error().Err(err).Msg("update order status failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update order")
		return
	}
	order, err := a.Orders.Get(r.Context(), orderID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load order")
		return
	}
	a.json(w, http.StatusOK, order)
}
