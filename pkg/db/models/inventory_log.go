package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/pkg/enums"
)

// InventoryLog is an append-only record of every stock movement.
// Delta is negative for decrements and positive for restocks.
type InventoryLog struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID                 `gorm:"column:product_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	ChangeType enums.InventoryChangeType `gorm:"column:change_type;not null"`
	Delta      int                       `gorm:"column:delta;not null"`
	StockAfter int                       `gorm:"column:stock_after;not null"`
	ActorID    *uuid.UUID                `gorm:"column:actor_id;type:uuid"`
	Note       *string                   `gorm:"column:note"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
