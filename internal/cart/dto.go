package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds (or bumps) a product line in the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest overwrites a product line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ItemView is a priced cart line. UnitPrice is the add-time snapshot; when
// the catalog price has since moved, the line carries a warning instead of
// silently repricing.
type ItemView struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	ImageURL     *string         `json:"image_url,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	Stock        int             `json:"stock"`
	Warning      string          `json:"warning,omitempty"`
}

// View is the full cart payload returned to the storefront.
type View struct {
	ID          uuid.UUID       `json:"id"`
	Items       []ItemView      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}
