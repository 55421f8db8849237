package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

// AdjustInput is an admin-initiated manual stock correction.
type AdjustInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Delta     int       `json:"delta" validate:"required"`
	Note      *string   `json:"note,omitempty"`
}

// LogDTO is the transport shape for an inventory log entry.
type LogDTO struct {
	ID         uuid.UUID                 `json:"id"`
	ProductID  uuid.UUID                 `json:"product_id"`
	OrderID    *uuid.UUID                `json:"order_id,omitempty"`
	ChangeType enums.InventoryChangeType `json:"change_type"`
	Delta      int                       `json:"delta"`
	StockAfter int                       `json:"stock_after"`
	ActorID    *uuid.UUID                `json:"actor_id,omitempty"`
	Note       *string                   `json:"note,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// Service exposes admin inventory operations.
type Service interface {
	Adjust(ctx context.Context, actorID uuid.UUID, input AdjustInput) (*LogDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]LogDTO, error)
}

type service struct {
	db   *db.Client
	logs *Repository
}

// NewService constructs the inventory service.
func NewService(client *db.Client, logs *Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	return &service{db: client, logs: logs}, nil
}

// Adjust applies a manual stock delta. Negative deltas use the same guarded
// update as order decrements so stock can never go below zero.
func (s *service) Adjust(ctx context.Context, actorID uuid.UUID, input AdjustInput) (*LogDTO, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}

	var entry *models.InventoryLog
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		q := tx.WithContext(ctx).Model(&models.Product{})
		if input.Delta < 0 {
			q = q.Where("id = ? AND stock >= ?", input.ProductID, -input.Delta)
		} else {
			q = q.Where("id = ?", input.ProductID)
		}
		res := q.UpdateColumn("stock", gorm.Expr("stock + ?", input.Delta))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "adjust stock")
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.WithContext(ctx).Model(&models.Product{}).Where("id = ?", input.ProductID).Count(&count).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
			}
			if count == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would make stock negative")
		}

		var stockAfter int
		if err := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", input.ProductID).
			Pluck("stock", &stockAfter).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock")
		}

		entry = &models.InventoryLog{
			ID:         uuid.New(),
			ProductID:  input.ProductID,
			ChangeType: enums.InventoryChangeAdminAdjust,
			Delta:      input.Delta,
			StockAfter: stockAfter,
			ActorID:    &actorID,
			Note:       input.Note,
		}
		return s.logs.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust inventory")
	}

	dto := logFromModel(entry)
	return &dto, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]LogDTO, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.logs.ListByProduct(ctx, productID, limit, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []LogDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory logs")
	}

	out := make([]LogDTO, 0, len(rows))
	for i := range rows {
		out = append(out, logFromModel(&rows[i]))
	}
	return out, nil
}

func logFromModel(m *models.InventoryLog) LogDTO {
	return LogDTO{
		ID:         m.ID,
		ProductID:  m.ProductID,
		OrderID:    m.OrderID,
		ChangeType: m.ChangeType,
		Delta:      m.Delta,
		StockAfter: m.StockAfter,
		ActorID:    m.ActorID,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}
