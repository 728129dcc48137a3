package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated account within the platform.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         UserRole  `bson:"role" json:"role"`
	RewardPoints int       `bson:"rewardPoints" json:"rewardPoints"`
	Wishlist     []string  `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the user may access admin surfaces.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
