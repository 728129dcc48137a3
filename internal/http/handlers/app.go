package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tryon-platform/server/internal/domain"
	"github.com/tryon-platform/server/internal/infra"
	"github.com/tryon-platform/server/internal/providers/cloudinary"
	"github.com/tryon-platform/server/internal/providers/genai"
	"github.com/tryon-platform/server/internal/providers/masterpiece"
	"github.com/tryon-platform/server/internal/providers/pixelcut"
)

// UserStore is the account persistence the handlers depend on.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
	AddRewardPoints(ctx context.Context, userID string, points int) error
}

// ProductStore is the catalog persistence the handlers depend on.
type ProductStore interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateModel3D(ctx context.Context, productID string, model domain.Model3D) error
	Deactivate(ctx context.Context, id string) error
}

// CategoryStore is the navigation-category persistence the handlers depend on.
type CategoryStore interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	SetImage(ctx context.Context, id string, image domain.ProductImage) error
	Deactivate(ctx context.Context, id string) error
}

// OrderStore is the order persistence the handlers depend on.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, location, description string) error
}

// CouponStore is the coupon persistence the handlers depend on.
type CouponStore interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	List(ctx context.Context) ([]domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Config *infra.Config
	Logger infra.Logger

	Users      UserStore
	Products   ProductStore
	Categories CategoryStore
	Orders     OrderStore
	Coupons    CouponStore

	Masterpiece *masterpiece.Client
	Pixelcut    *pixelcut.Client
	Cloudinary  *cloudinary.Client
	Assistant   *genai.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
