package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
)

// CategoryDTO is the transport shape for a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDTO is the transport shape for a product listing.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Category    *CategoryDTO    `json:"category,omitempty"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	InStock     bool            `json:"in_stock"`
	ImageURL    *string         `json:"image_url,omitempty"`
	DietaryTags []string        `json:"dietary_tags"`
	Rating      decimal.Decimal `json:"rating"`
	IsFeatured  bool            `json:"is_featured"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductPage is one page of storefront results.
type ProductPage struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateCategoryInput carries admin category creation fields.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"omitempty,lowercase"`
	Description *string `json:"description,omitempty"`
}

// UpdateCategoryInput carries admin category updates; nil fields are untouched.
type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateProductInput carries admin product creation fields.
type CreateProductInput struct {
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Slug        string           `json:"slug" validate:"omitempty,lowercase"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	DietaryTags []string         `json:"dietary_tags,omitempty"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	IsFeatured  bool             `json:"is_featured"`
}

// UpdateProductInput carries admin product updates; nil fields are untouched.
// Stock changes go through the inventory service, not here.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	DietaryTags []string         `json:"dietary_tags,omitempty"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	IsFeatured  *bool            `json:"is_featured,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

func categoryFromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func productFromModel(p *models.Product) ProductDTO {
	tags := make([]string, 0, len(p.DietaryTags))
	tags = append(tags, p.DietaryTags...)

	return ProductDTO{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Category:    categoryFromModel(p.Category),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		ImageURL:    p.ImageURL,
		DietaryTags: tags,
		Rating:      p.Rating,
		IsFeatured:  p.IsFeatured,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func tagsToArray(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}
