package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for storefront browsing.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Slug        string    `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
