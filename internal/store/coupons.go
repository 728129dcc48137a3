package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tryon-platform/server/internal/domain"
)

// CouponStore persists discount codes.
type CouponStore struct {
	col *mongo.Collection
}

func NewCouponStore(db *mongo.Database) *CouponStore {
	return &CouponStore{col: db.Collection("coupons")}
}

func (s *CouponStore) Create(ctx context.Context, coupon *domain.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.NewString()
	}
	coupon.Code = domain.NormalizeCode(coupon.Code)
	coupon.CreatedAt = time.Now().UTC()
	if _, err := s.col.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("store: create coupon: %w", err)
	}
	return nil
}

func (s *CouponStore) List(ctx context.Context) ([]domain.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list coupons: %w", err)
	}
	defer cursor.Close(ctx)

	var coupons []domain.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("store: decode coupons: %w", err)
	}
	return coupons, nil
}

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := s.col.FindOne(ctx, bson.M{"code": domain.NormalizeCode(code)}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get coupon: %w", err)
	}
	return &coupon, nil
}

func (s *CouponStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete coupon: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementUsage records one redemption of the coupon.
func (s *CouponStore) IncrementUsage(ctx context.Context, id string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return fmt.Errorf("store: increment coupon usage: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
