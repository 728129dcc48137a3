package domain

import (
	"strings"
	"time"
)

// Model3DStatus enumerates the lifecycle of an image-to-3D generation job as
// persisted on the owning product.
type Model3DStatus string

const (
	Model3DStatusPending    Model3DStatus = "pending"
	Model3DStatusProcessing Model3DStatus = "processing"
	Model3DStatusCompleted  Model3DStatus = "completed"
	Model3DStatusFailed     Model3DStatus = "failed"
)

// Model3D is the durable record of a 3D generation job. It transitions from
// processing to exactly one terminal state per generation run.
type Model3D struct {
	Status        Model3DStatus `bson:"status" json:"status"`
	MasterpieceID string        `bson:"masterpieceId,omitempty" json:"masterpieceId,omitempty"`
	URL           string        `bson:"url,omitempty" json:"url,omitempty"`
	Error         string        `bson:"error,omitempty" json:"error,omitempty"`
}

// ProductImage is a hosted image reference.
type ProductImage struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID          string         `bson:"_id,omitempty" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64        `bson:"price" json:"price"`
	Category    string         `bson:"category,omitempty" json:"category,omitempty"`
	Sizes       []string       `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Stock       int            `bson:"stock" json:"stock"`
	Images      []ProductImage `bson:"images,omitempty" json:"images"`
	IsActive    bool           `bson:"isActive" json:"isActive"`
	IsFeatured  bool           `bson:"isFeatured" json:"isFeatured"`
	Model3D     *Model3D       `bson:"model3d,omitempty" json:"model3d,omitempty"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// PrimaryImageURL returns the first product image, the one used for try-on
// and 3D generation.
func (p Product) PrimaryImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
	Featured bool
	Page     int64
	Limit    int64
}

// Category groups products for navigation.
type Category struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Slug        string        `bson:"slug" json:"slug"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Image       *ProductImage `bson:"image,omitempty" json:"image,omitempty"`
	ParentID    string        `bson:"parentId,omitempty" json:"parentId,omitempty"`
	IsActive    bool          `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Slugify derives a url-safe slug from a category name.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}
