package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
)

// Repository persists inventory log entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory log repo tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create appends a log entry.
func (r *Repository) Create(ctx context.Context, entry *models.InventoryLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByProduct returns log entries for one product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.InventoryLog, error) {
	var rows []models.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListByOrder returns the log entries tied to an order.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryLog, error) {
	var rows []models.InventoryLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
