package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Profile is a user profile row kept next to the auth provider's users.
// Only the role is read by the proxy.
type Profile struct {
	// ID is the provider user id.
	ID string `gorm:"primaryKey" json:"id"`

	// Email is the user's email address.
	Email string `json:"email,omitempty"`

	// Role is the application role, e.g. "admin".
	Role string `json:"role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// Get retrieves the profile by ID. Only id and role are selected so the
// lookup works against tables with extra or missing optional columns.
func (p *Profile) Get(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Select("id", "role").
		First(p, "id = ?", p.ID).Error
}

// Create inserts the profile.
func (p *Profile) Create(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Create(p).Error
}
