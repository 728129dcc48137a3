package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tryon-platform/server/internal/domain"
)

// withURLParam invokes a handler directly with a chi URL parameter attached.
func withURLParam(req *http.Request, key, value string, handler http.HandlerFunc, rec *httptest.ResponseRecorder) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	handler(rec, req)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateCode
		}
	}
	s.seq++
	user.ID = "user-" + strconv.Itoa(s.seq)
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) AddToWishlist(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range u.Wishlist {
		if id == productID {
			return nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return nil
}

func (s *fakeUserStore) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	kept := u.Wishlist[:0]
	for _, id := range u.Wishlist {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	return nil
}

func (s *fakeUserStore) AddRewardPoints(ctx context.Context, userID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.RewardPoints += points
	return nil
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (s *fakeOrderStore) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	order.ID = "order-" + strconv.Itoa(s.seq)
	order.OrderNumber = "TRYON-" + strconv.Itoa(s.seq)
	order.Status = domain.OrderStatusPending
	order.CreatedAt = time.Now()
	s.orders[order.ID] = order
	return nil
}

func (s *fakeOrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *fakeOrderStore) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, location, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.TrackingHistory = append(o.TrackingHistory, domain.TrackingEvent{
		Status:      status,
		Location:    location,
		Description: description,
		Timestamp:   time.Now(),
	})
	return nil
}

type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
	seq        int
}

func newFakeCategoryStore(categories ...*domain.Category) *fakeCategoryStore {
	s := &fakeCategoryStore{categories: make(map[string]*domain.Category)}
	for _, c := range categories {
		if c.ID == "" {
			s.seq++
			c.ID = "category-" + strconv.Itoa(s.seq)
		}
		s.categories[c.ID] = c
	}
	return s
}

func (s *fakeCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}
	for _, existing := range s.categories {
		if existing.Slug == category.Slug {
			return domain.ErrDuplicateCode
		}
	}
	s.seq++
	category.ID = "category-" + strconv.Itoa(s.seq)
	category.CreatedAt = time.Now()
	s.categories[category.ID] = category
	return nil
}

func (s *fakeCategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Category
	for _, c := range s.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeCategoryStore) Get(ctx context.Context, id string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *fakeCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return domain.ErrNotFound
	}
	s.categories[category.ID] = category
	return nil
}

func (s *fakeCategoryStore) SetImage(ctx context.Context, id string, image domain.ProductImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Image = &image
	return nil
}

func (s *fakeCategoryStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	return nil
}

type fakeCouponStore struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
	seq     int
}

func newFakeCouponStore(coupons ...*domain.Coupon) *fakeCouponStore {
	s := &fakeCouponStore{coupons: make(map[string]*domain.Coupon)}
	for _, c := range coupons {
		if c.ID == "" {
			s.seq++
			c.ID = "coupon-" + strconv.Itoa(s.seq)
		}
		s.coupons[c.ID] = c
	}
	return s
}

func (s *fakeCouponStore) Create(ctx context.Context, coupon *domain.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon.Code = domain.NormalizeCode(coupon.Code)
	for _, existing := range s.coupons {
		if existing.Code == coupon.Code {
			return domain.ErrDuplicateCode
		}
	}
	s.seq++
	coupon.ID = "coupon-" + strconv.Itoa(s.seq)
	s.coupons[coupon.ID] = coupon
	return nil
}

func (s *fakeCouponStore) List(ctx context.Context) ([]domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeCouponStore) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = domain.NormalizeCode(code)
	for _, c := range s.coupons {
		if c.Code == code {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeCouponStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.coupons, id)
	return nil
}

func (s *fakeCouponStore) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.UsedCount++
	return nil
}
