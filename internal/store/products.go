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

// ProductStore persists catalog products in the document database.
type ProductStore struct {
	col *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{col: db.Collection("products")}
}

// productListQuery maps a catalog filter onto the document query. Only active
// products are ever listed.
func productListQuery(filter domain.ProductFilter) bson.M {
	query := bson.M{"isActive": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	if filter.Featured {
		query["isFeatured"] = true
	}
	if filter.MinPrice > 0 || filter.MaxPrice > 0 {
		price := bson.M{}
		if filter.MinPrice > 0 {
			price["$gte"] = filter.MinPrice
		}
		if filter.MaxPrice > 0 {
			price["$lte"] = filter.MaxPrice
		}
		query["price"] = price
	}
	return query
}

// productListPage normalizes pagination to a skip/limit pair.
func productListPage(filter domain.ProductFilter) (skip, limit int64) {
	limit = filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// List returns active products matching the filter plus the total match count.
func (s *ProductStore) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	query := productListQuery(filter)

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("store: count products: %w", err)
	}

	skip, limit := productListPage(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("store: decode products: %w", err)
	}
	return products, total, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get product: %w", err)
	}
	return &product, nil
}

func (s *ProductStore) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	if _, err := s.col.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("store: create product: %w", err)
	}
	return nil
}

func (s *ProductStore) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("store: update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateModel3D persists the 3D generation state on the owning product. This
// is the only write path used by the generation pipeline, invoked once at
// start (processing) and once at the terminal transition.
func (s *ProductStore) UpdateModel3D(ctx context.Context, productID string, model domain.Model3D) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{
		"$set": bson.M{
			"model3d":   model,
			"updatedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("store: update model3d: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a product so existing orders keep their references.
func (s *ProductStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("store: deactivate product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
