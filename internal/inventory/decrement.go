package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
)

// DecrementRequest asks for qty units of a product to be taken from stock.
// ProductName is carried only to word failure reasons; lookups use the ID.
type DecrementRequest struct {
	ProductID   uuid.UUID
	ProductName string
	Qty         int
}

// DecrementResult reports the outcome per requested product.
type DecrementResult struct {
	ProductID   uuid.UUID
	Decremented bool
	Reason      string
	StockAfter  int
}

// DecrementStock takes stock for each request inside the caller's transaction.
// Each decrement is a single conditional UPDATE guarded by stock >= qty, so two
// concurrent checkouts can never drive stock negative: one of them matches zero
// rows and reports insufficient stock.
func DecrementStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, requests []DecrementRequest) ([]DecrementResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	results := make([]DecrementResult, 0, len(requests))
	logs := NewRepository(tx)

	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be positive for product %s", req.ProductID))
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrement stock")
		}

		result := DecrementResult{ProductID: req.ProductID}
		if res.RowsAffected == 0 {
			result.Reason = decrementFailureReason(ctx, tx, req)
			results = append(results, result)
			continue
		}

		var stockAfter int
		if err := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", req.ProductID).
			Pluck("stock", &stockAfter).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock after decrement")
		}

		result.Decremented = true
		result.StockAfter = stockAfter
		results = append(results, result)

		if err := logs.Create(ctx, &models.InventoryLog{
			ID:         uuid.New(),
			ProductID:  req.ProductID,
			OrderID:    &orderID,
			ChangeType: enums.InventoryChangeOrderDecrement,
			Delta:      -req.Qty,
			StockAfter: stockAfter,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record inventory log")
		}
	}

	return results, nil
}

// Restock returns qty units to stock, used when an unpaid order is cancelled.
func Restock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID *uuid.UUID, requests []DecrementRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	logs := NewRepository(tx)
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be positive for product %s", req.ProductID))
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", req.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", req.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found for restock", req.ProductID))
		}

		var stockAfter int
		if err := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", req.ProductID).
			Pluck("stock", &stockAfter).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock after restock")
		}

		if err := logs.Create(ctx, &models.InventoryLog{
			ID:         uuid.New(),
			ProductID:  req.ProductID,
			OrderID:    &orderID,
			ChangeType: enums.InventoryChangeCancelRestock,
			Delta:      req.Qty,
			StockAfter: stockAfter,
			ActorID:    actorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record inventory log")
		}
	}
	return nil
}

func decrementFailureReason(ctx context.Context, tx *gorm.DB, req DecrementRequest) string {
	var stock int
	err := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", req.ProductID).
		Pluck("stock", &stock).Error
	if err != nil {
		return "product unavailable"
	}

	var count int64
	tx.WithContext(ctx).Model(&models.Product{}).Where("id = ?", req.ProductID).Count(&count)
	if count == 0 {
		return "product not found"
	}
	name := req.ProductName
	if name == "" {
		name = req.ProductID.String()
	}
	return fmt.Sprintf("%q only has %d units left", name, stock)
}
