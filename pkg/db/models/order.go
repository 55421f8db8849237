package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	"github.com/sweetkart/sweetshop-backend/pkg/types"
)

// Order is the priced snapshot of a checkout. Totals are computed
// server-side at creation and never recomputed afterwards.
type Order struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	Status         enums.OrderStatus        `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus  enums.OrderPaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	Subtotal       decimal.Decimal          `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee    decimal.Decimal          `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Total          decimal.Decimal          `gorm:"column:total;type:numeric(10,2);not null"`
	ShippingInfo   types.ShippingInfo       `gorm:"column:shipping_info;type:jsonb;serializer:json"`
	GatewayOrderID *string                  `gorm:"column:gateway_order_id;type:text;uniqueIndex"`
	Items          []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
