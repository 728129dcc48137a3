package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/infra"
	"github.com/tryon-platform/server/internal/middleware"
)

func newOrdersApp(products *fakeProductStore, coupons *fakeCouponStore) (*App, *fakeOrderStore, *fakeUserStore) {
	orders := newFakeOrderStore()
	users := newFakeUserStore(&domain.User{ID: "user-1", Email: "shopper@example.com", Role: domain.UserRoleUser})
	app := &App{
		Config:   &infra.Config{},
		Logger:   infra.NewLogger("test"),
		Users:    users,
		Products: products,
		Orders:   orders,
		Coupons:  coupons,
	}
	return app, orders, users
}

func authedRequest(method, target, body, userID, role string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUser(req.Context(), userID, role))
}

func TestOrdersCreate(t *testing.T) {
	product := testProduct("p1", "https://img/shirt.jpg")
	product.Price = 40
	product.Stock = 5
	coupon := &domain.Coupon{
		Code:          "SAVE10",
		DiscountType:  domain.DiscountTypePercentage,
		DiscountValue: 10,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
	app, _, users := newOrdersApp(newFakeProductStore(product), newFakeCouponStore(coupon))

	body := `{"items":[{"productId":"p1","quantity":3,"size":"M"}],"couponCode":"save10","shippingAddress":{"city":"Oslo"}}`
	rec := httptest.NewRecorder()
	app.OrdersCreate(rec, authedRequest(http.MethodPost, "/v1/orders", body, "user-1", "user"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var order domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.TotalAmount != 120 {
		t.Fatalf("subtotal = %v, want 120", order.TotalAmount)
	}
	if order.Discount != 12 {
		t.Fatalf("discount = %v, want 12", order.Discount)
	}
	// 108 after discount clears the free shipping threshold.
	if order.ShippingCost != 0 {
		t.Fatalf("shipping = %v, want 0", order.ShippingCost)
	}
	if order.FinalAmount != 108 {
		t.Fatalf("final amount = %v, want 108", order.FinalAmount)
	}
	if order.CouponCode != "SAVE10" {
		t.Fatalf("coupon code = %q, want normalized SAVE10", order.CouponCode)
	}
	if len(order.Items) != 1 || order.Items[0].Price != 40 {
		t.Fatalf("items = %+v, want catalog price 40", order.Items)
	}

	shopper, err := users.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if shopper.RewardPoints != 108 {
		t.Fatalf("reward points = %d, want 108", shopper.RewardPoints)
	}
}

func TestOrdersCreateInsufficientStock(t *testing.T) {
	product := testProduct("p1", "https://img/shirt.jpg")
	product.Stock = 1
	app, _, _ := newOrdersApp(newFakeProductStore(product), newFakeCouponStore())

	rec := httptest.NewRecorder()
	body := `{"items":[{"productId":"p1","quantity":2}]}`
	app.OrdersCreate(rec, authedRequest(http.MethodPost, "/v1/orders", body, "user-1", "user"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestOrdersCreateExpiredCoupon(t *testing.T) {
	product := testProduct("p1", "https://img/shirt.jpg")
	product.Stock = 5
	coupon := &domain.Coupon{
		Code:          "OLD",
		DiscountType:  domain.DiscountTypeFixed,
		DiscountValue: 5,
		ValidFrom:     time.Now().Add(-48 * time.Hour),
		ValidUntil:    time.Now().Add(-24 * time.Hour),
		IsActive:      true,
	}
	app, _, _ := newOrdersApp(newFakeProductStore(product), newFakeCouponStore(coupon))

	rec := httptest.NewRecorder()
	body := `{"items":[{"productId":"p1","quantity":1}],"couponCode":"OLD"}`
	app.OrdersCreate(rec, authedRequest(http.MethodPost, "/v1/orders", body, "user-1", "user"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestOrdersGetHidesOtherUsersOrders(t *testing.T) {
	product := testProduct("p1", "https://img/shirt.jpg")
	product.Stock = 5
	app, orders, _ := newOrdersApp(newFakeProductStore(product), newFakeCouponStore())

	order := &domain.Order{UserID: "user-1", Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}}}
	if err := orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	get := func(userID, role string) int {
		req := authedRequest(http.MethodGet, "/v1/orders/"+order.ID, "", userID, role)
		rec := httptest.NewRecorder()
		withURLParam(req, "orderID", order.ID, app.OrdersGet, rec)
		return rec.Code
	}

	if code := get("user-2", "user"); code != http.StatusNotFound {
		t.Fatalf("other user status = %d, want %d", code, http.StatusNotFound)
	}
	if code := get("user-1", "user"); code != http.StatusOK {
		t.Fatalf("owner status = %d, want %d", code, http.StatusOK)
	}
	if code := get("admin-1", "admin"); code != http.StatusOK {
		t.Fatalf("admin status = %d, want %d", code, http.StatusOK)
	}
}

func TestOrdersUpdateStatus(t *testing.T) {
	product := testProduct("p1", "https://img/shirt.jpg")
	app, orders, _ := newOrdersApp(newFakeProductStore(product), newFakeCouponStore())

	order := &domain.Order{UserID: "user-1"}
	if err := orders.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	body := `{"status":"shipped","location":"Warehouse 3"}`
	req := authedRequest(http.MethodPut, "/v1/orders/"+order.ID+"/status", body, "admin-1", "admin")
	rec := httptest.NewRecorder()
	withURLParam(req, "orderID", order.ID, app.OrdersUpdateStatus, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, err := orders.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("order status = %q, want shipped", updated.Status)
	}
	if len(updated.TrackingHistory) == 0 || updated.TrackingHistory[len(updated.TrackingHistory)-1].Location != "Warehouse 3" {
		t.Fatalf("tracking history = %+v, want shipped event at Warehouse 3", updated.TrackingHistory)
	}

	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPut, "/v1/orders/"+order.ID+"/status", `{"status":"teleported"}`, "admin-1", "admin")
	withURLParam(req, "orderID", order.ID, app.OrdersUpdateStatus, rec)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
