package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/orders"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/razorpay"
)

// Gateway is the slice of the Razorpay client the service needs. Tests
// substitute a stub.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error)
	KeyID() string
}

// Service owns payment intents and signature verification.
type Service interface {
	CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*IntentDTO, error)
	Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*PaymentDTO, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentDTO, error)
}

// ServiceParams carries the collaborators for NewService.
type ServiceParams struct {
	DB       *db.Client
	Payments *Repository
	Orders   *orders.Repository
	Gateway  Gateway
	Cfg      config.RazorpayConfig
	Logger   *logger.Logger
}

type service struct {
	db       *db.Client
	payments *Repository
	orders   *orders.Repository
	gateway  Gateway
	cfg      config.RazorpayConfig
	logg     *logger.Logger
}

// NewService validates dependencies and constructs the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	return &service{
		db:       params.DB,
		payments: params.Payments,
		orders:   params.Orders,
		gateway:  params.Gateway,
		cfg:      params.Cfg,
		logg:     params.Logger,
	}, nil
}

// CreateIntent opens (or re-reports) a gateway order for checkout. Repeat
// calls for the same order return the existing gateway order instead of
// opening a second one.
func (s *service) CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*IntentDTO, error) {
	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if order.PaymentStatus == enums.OrderPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be paid", order.Status))
	}

	currency := s.cfg.Currency
	if currency == "" {
		currency = "INR"
	}

	if order.GatewayOrderID != nil {
		return &IntentDTO{
			OrderID:        order.ID,
			GatewayOrderID: *order.GatewayOrderID,
			Amount:         order.Total,
			AmountPaise:    order.Total.Mul(paiseFactor()).IntPart(),
			Currency:       currency,
			KeyID:          s.gateway.KeyID(),
		}, nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:  order.Total,
		Receipt: order.ID.String(),
		Notes:   map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).SetGatewayOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach gateway order")
		}
		return s.payments.WithTx(tx).Create(ctx, &models.Payment{
			ID:             uuid.New(),
			OrderID:        order.ID,
			GatewayOrderID: gatewayOrder.ID,
			Amount:         order.Total,
			Currency:       currency,
			Status:         enums.PaymentStatusPending,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":         order.ID.String(),
			"gateway_order_id": gatewayOrder.ID,
		})
		s.logg.Info(logCtx, "payment intent created")
	}

	return &IntentDTO{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         order.Total,
		AmountPaise:    gatewayOrder.AmountPaise,
		Currency:       currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// Verify checks the gateway signature and settles the order. Stock was
// already taken when the order was created, so a captured payment only flips
// payment state; it never touches inventory. A repeated verify for an
// already-captured payment is a no-op success.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*PaymentDTO, error) {
	payment, err := s.payments.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for gateway order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}

	order, err := s.orders.FindByIDForUser(ctx, payment.OrderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if payment.Status == enums.PaymentStatusCaptured {
		if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == req.GatewayPaymentID {
			return fromModel(payment), nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already captured")
	}

	if !razorpay.VerifySignature(s.cfg.KeySecret, req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		reason := "signature verification failed"
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		payment.GatewaySignature = &req.Signature
		if updateErr := s.payments.Update(ctx, payment); updateErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, updateErr, "record failed payment")
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "payment signature rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment verification failed")
	}

	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		payment.Status = enums.PaymentStatusCaptured
		payment.GatewayPaymentID = &req.GatewayPaymentID
		payment.GatewaySignature = &req.Signature
		payment.Method = req.Method
		payment.CapturedAt = &now
		payment.FailureReason = nil
		if err := s.payments.WithTx(tx).Update(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "capture payment")
		}
		return s.orders.WithTx(tx).MarkPaid(ctx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":           order.ID.String(),
			"gateway_payment_id": req.GatewayPaymentID,
		})
		s.logg.Info(logCtx, "payment captured")
	}
	return fromModel(payment), nil
}

// ListByOrder returns every attempt recorded against an order.
func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentDTO, error) {
	rows, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	dtos := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *fromModel(&rows[i]))
	}
	return dtos, nil
}

func paiseFactor() decimal.Decimal {
	return decimal.NewFromInt(100)
}
