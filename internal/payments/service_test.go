package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/orders"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	dbpkg "github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/razorpay"
	"github.com/sweetkart/sweetshop-backend/pkg/types"
)

const testKeySecret = "test_secret"

type fakeGateway struct {
	created []razorpay.CreateOrderRequest
	fail    error
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, req)
	return &razorpay.GatewayOrder{
		ID:          "order_rzp_" + uuid.NewString()[:8],
		AmountPaise: req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    "INR",
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, gw Gateway) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:       dbpkg.NewWithConn(conn),
		Payments: NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Gateway:  gw,
		Cfg:      config.RazorpayConfig{KeyID: "rzp_test_key", KeySecret: testKeySecret, Currency: "INR"},
	})
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, total string) *models.Order {
	t.Helper()

	amount := decimal.RequireFromString(total)
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.OrderPaymentStatusUnpaid,
		Subtotal:      amount,
		DeliveryFee:   decimal.Zero,
		Total:         amount,
		ShippingInfo: types.ShippingInfo{
			Name: "Asha Rao", Address: "12 MG Road", City: "Bengaluru",
			State: "Karnataka", Pincode: "560001", Phone: "9876543210",
		},
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, code, appErr.Code())
}

func TestServiceCreateIntent(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "549.50")

	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, intent.OrderID)
	require.NotEmpty(t, intent.GatewayOrderID)
	require.EqualValues(t, 54950, intent.AmountPaise)
	require.Equal(t, "INR", intent.Currency)
	require.Equal(t, "rzp_test_key", intent.KeyID)
	require.Len(t, gw.created, 1)
	require.Equal(t, order.ID.String(), gw.created[0].Receipt)

	// A pending payment row is recorded against the gateway order.
	var payment models.Payment
	require.NoError(t, conn.First(&payment, "order_id = ?", order.ID).Error)
	require.Equal(t, enums.PaymentStatusPending, payment.Status)
	require.Equal(t, intent.GatewayOrderID, payment.GatewayOrderID)
	require.True(t, payment.Amount.Equal(order.Total))
}

func TestServiceCreateIntentIdempotent(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "300.00")

	first, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)
	second, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)

	require.Equal(t, first.GatewayOrderID, second.GatewayOrderID)
	require.Len(t, gw.created, 1, "gateway order opened only once")
}

func TestServiceCreateIntentGuards(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.CreateIntent(ctx, userID, uuid.New())
	requireErrorCode(t, err, pkgerrors.CodeNotFound)

	order := seedOrder(t, conn, userID, "200.00")
	_, err = svc.CreateIntent(ctx, uuid.New(), order.ID)
	requireErrorCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", enums.OrderPaymentStatusPaid).Error)
	_, err = svc.CreateIntent(ctx, userID, order.ID)
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)

	cancelled := seedOrder(t, conn, userID, "150.00")
	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", cancelled.ID).
		Update("status", enums.OrderStatusCancelled).Error)
	_, err = svc.CreateIntent(ctx, userID, cancelled.ID)
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
}

func TestServiceVerifyCaptures(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "480.00")
	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)

	paymentID := "pay_" + uuid.NewString()[:8]
	method := "upi"
	signature := razorpay.Sign(testKeySecret, intent.GatewayOrderID, paymentID)
	result, err := svc.Verify(ctx, userID, VerifyRequest{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        signature,
		Method:           &method,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCaptured, result.Status)
	require.NotNil(t, result.CapturedAt)

	var payment models.Payment
	require.NoError(t, conn.First(&payment, "order_id = ?", order.ID).Error)
	require.NotNil(t, payment.GatewaySignature)
	require.Equal(t, signature, *payment.GatewaySignature)
	require.NotNil(t, payment.Method)
	require.Equal(t, "upi", *payment.Method)

	var reloaded models.Order
	require.NoError(t, conn.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderPaymentStatusPaid, reloaded.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
}

func TestServiceVerifyRejectsBadSignature(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "480.00")
	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)

	paymentID := "pay_" + uuid.NewString()[:8]
	_, err = svc.Verify(ctx, userID, VerifyRequest{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        razorpay.Sign("wrong_secret", intent.GatewayOrderID, paymentID),
	})
	requireErrorCode(t, err, pkgerrors.CodePaymentVerification)

	// The attempt is recorded as failed and the order stays unpaid.
	var payment models.Payment
	require.NoError(t, conn.First(&payment, "order_id = ?", order.ID).Error)
	require.Equal(t, enums.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)

	var reloaded models.Order
	require.NoError(t, conn.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderPaymentStatusUnpaid, reloaded.PaymentStatus)
	require.Equal(t, enums.OrderStatusPending, reloaded.Status)
}

func TestServiceVerifyIdempotent(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "480.00")
	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)

	paymentID := "pay_" + uuid.NewString()[:8]
	req := VerifyRequest{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        razorpay.Sign(testKeySecret, intent.GatewayOrderID, paymentID),
	}

	_, err = svc.Verify(ctx, userID, req)
	require.NoError(t, err)

	again, err := svc.Verify(ctx, userID, req)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCaptured, again.Status)

	// A different payment id against the captured attempt is rejected.
	_, err = svc.Verify(ctx, userID, VerifyRequest{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_other",
		Signature:        razorpay.Sign(testKeySecret, intent.GatewayOrderID, "pay_other"),
	})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
}

func TestServiceVerifyUnknownGatewayOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakeGateway{})

	_, err := svc.Verify(context.Background(), uuid.New(), VerifyRequest{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_x",
		Signature:        "sig",
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceListByOrder(t *testing.T) {
	conn := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, conn, gw)
	ctx := context.Background()
	userID := uuid.New()

	order := seedOrder(t, conn, userID, "480.00")
	_, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)

	attempts, err := svc.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.Equal(t, enums.PaymentStatusPending, attempts[0].Status)
}
