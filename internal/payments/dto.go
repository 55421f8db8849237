package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
)

// IntentDTO is everything the storefront needs to open the gateway's
// checkout widget.
type IntentDTO struct {
	OrderID        uuid.UUID       `json:"order_id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountPaise    int64           `json:"amount_paise"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
}

// VerifyRequest carries the gateway callback fields the client relays after
// the customer completes payment. Method is whatever instrument the gateway
// reports (card, upi, netbanking) and is stored as-is.
type VerifyRequest struct {
	GatewayOrderID   string  `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string  `json:"razorpay_payment_id" validate:"required"`
	Signature        string  `json:"razorpay_signature" validate:"required"`
	Method           *string `json:"method,omitempty" validate:"omitempty,max=32"`
}

// PaymentDTO is the API shape for a payment attempt.
type PaymentDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderID          uuid.UUID           `json:"order_id"`
	GatewayOrderID   string              `json:"gateway_order_id"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Method           *string             `json:"method,omitempty"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	Status           enums.PaymentStatus `json:"status"`
	FailureReason    *string             `json:"failure_reason,omitempty"`
	CapturedAt       *time.Time          `json:"captured_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

func fromModel(payment *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:               payment.ID,
		OrderID:          payment.OrderID,
		GatewayOrderID:   payment.GatewayOrderID,
		GatewayPaymentID: payment.GatewayPaymentID,
		Method:           payment.Method,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Status:           payment.Status,
		FailureReason:    payment.FailureReason,
		CapturedAt:       payment.CapturedAt,
		CreatedAt:        payment.CreatedAt,
	}
}
