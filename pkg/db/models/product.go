package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a storefront listing with its live stock count.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	ImageURL    *string         `gorm:"column:image_url"`
	DietaryTags pq.StringArray  `gorm:"column:dietary_tags;type:text[]"`
	Rating      decimal.Decimal `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	IsFeatured  bool            `gorm:"column:is_featured;not null;default:false"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
