package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	"github.com/sweetkart/sweetshop-backend/pkg/types"
)

// OrderItemInput is one requested line when the client checks out an
// explicit item list instead of its persisted cart.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the checkout payload. The client supplies products and
// quantities at most; everything priced comes from the server. With no items
// the persisted cart is checked out.
type CreateOrderInput struct {
	Items        []OrderItemInput   `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	ShippingInfo types.ShippingInfo `json:"shipping_info" validate:"required"`
}

// UpdateStatusInput moves an order along its lifecycle.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// ItemDTO is a frozen order line.
type ItemDTO struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

// OrderDTO is the API shape for an order.
type OrderDTO struct {
	ID             uuid.UUID                `json:"id"`
	UserID         uuid.UUID                `json:"user_id"`
	Status         enums.OrderStatus        `json:"status"`
	PaymentStatus  enums.OrderPaymentStatus `json:"payment_status"`
	Subtotal       decimal.Decimal          `json:"subtotal"`
	DeliveryFee    decimal.Decimal          `json:"delivery_fee"`
	Total          decimal.Decimal          `json:"total"`
	ShippingInfo   types.ShippingInfo       `json:"shipping_info"`
	GatewayOrderID *string                  `json:"gateway_order_id,omitempty"`
	Items          []ItemDTO                `json:"items"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func fromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:             order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		Subtotal:       order.Subtotal,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.Total,
		ShippingInfo:   order.ShippingInfo,
		GatewayOrderID: order.GatewayOrderID,
		Items:          make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineSubtotal: item.LineSubtotal,
		})
	}
	return dto
}
