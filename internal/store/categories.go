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

// CategoryStore persists the catalog's navigation categories.
type CategoryStore struct {
	col *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{col: db.Collection("categories")}
}

func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	if _, err := s.col.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("store: create category: %w", err)
	}
	return nil
}

// List returns active categories sorted by name.
func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.col.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []domain.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("store: decode categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryStore) Get(ctx context.Context, id string) (*domain.Category, error) {
	var category domain.Category
	err := s.col.FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get category: %w", err)
	}
	return &category, nil
}

func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	category.UpdatedAt = time.Now().UTC()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		return fmt.Errorf("store: update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetImage swaps the category's hosted image reference.
func (s *CategoryStore) SetImage(ctx context.Context, id string, image domain.ProductImage) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"image": image, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("store: set category image: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a category; products keep their category label.
func (s *CategoryStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("store: deactivate category: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
