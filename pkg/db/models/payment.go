package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetkart/sweetshop-backend/pkg/enums"
)

// Payment records one gateway attempt against an order.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;type:text;not null"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id;type:text;uniqueIndex"`
	GatewaySignature *string             `gorm:"column:gateway_signature;type:text"`
	Method           *string             `gorm:"column:method;type:text"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency         string              `gorm:"column:currency;not null;default:'INR'"`
	Status           enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	CapturedAt       *time.Time          `gorm:"column:captured_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
