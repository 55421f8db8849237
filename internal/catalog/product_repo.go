package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

// ProductRepository exposes product persistence operations.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository builds a product repo tied to the provided GORM DB.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves an existing product row.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads the product without associations.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDetail loads a product with its category preloaded.
func (r *ProductRepository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its URL slug with the category preloaded.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "slug = ?", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads multiple products at once, keyed by ID.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// List applies the storefront filters plus cursor pagination, newest first.
// It fetches one row past the limit so callers can detect the next page.
func (r *ProductRepository) List(ctx context.Context, filters ProductListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if !filters.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filters.CategoryID != nil {
		q = q.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Featured != nil {
		q = q.Where("is_featured = ?", *filters.Featured)
	}
	if filters.PriceMin != nil {
		q = q.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		q = q.Where("price <= ?", *filters.PriceMax)
	}
	if filters.InStockOnly {
		q = q.Where("stock > 0")
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLowStock returns active products at or below the threshold, lowest first.
func (r *ProductRepository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC").
		Find(&rows).Error
	return rows, err
}

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CategoryID      *uuid.UUID
	Featured        *bool
	PriceMin        *decimal.Decimal
	PriceMax        *decimal.Decimal
	InStockOnly     bool
	IncludeInactive bool
	Query           string
}
