package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/cart"
	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	dbpkg "github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
	"github.com/sweetkart/sweetshop-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.CartRecord{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.InventoryLog{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:          dbpkg.NewWithConn(conn),
		Orders:      NewRepository(conn),
		Carts:       cart.NewRepository(conn),
		Products:    catalog.NewProductRepository(conn),
		CheckoutCfg: config.CheckoutConfig{FreeDeliveryThreshold: 500, DeliveryFee: 50},
	})
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: "Sweets " + uuid.NewString()[:8], Slug: "sweets-" + uuid.NewString()[:8], IsActive: true}
	require.NoError(t, conn.Create(category).Error)

	product := &models.Product{
		ID:         uuid.New(),
		CategoryID: category.ID,
		Name:       name,
		Slug:       catalog.Slugify(name) + "-" + uuid.NewString()[:8],
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedCart(t *testing.T, conn *gorm.DB, userID uuid.UUID, lines map[uuid.UUID]int) {
	t.Helper()

	record := &models.CartRecord{ID: uuid.New(), UserID: userID}
	require.NoError(t, conn.Create(record).Error)
	for productID, qty := range lines {
		require.NoError(t, conn.Create(&models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: productID,
			Quantity:  qty,
		}).Error)
	}
}

func shipping() types.ShippingInfo {
	return types.ShippingInfo{
		Name:    "Asha Rao",
		Address: "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
		Phone:   "9876543210",
	}
}

func currentStock(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var stock int
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", productID).Pluck("stock", &stock).Error)
	return stock
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, code, appErr.Code())
}

func TestServiceCreateOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	kaju := seedProduct(t, conn, "Kaju Katli", "120.00", 10)
	ladoo := seedProduct(t, conn, "Motichoor Ladoo", "80.50", 5)
	seedCart(t, conn, userID, map[uuid.UUID]int{kaju.ID: 2, ladoo.ID: 3})

	order, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.OrderPaymentStatusUnpaid, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	// 2*120.00 + 3*80.50 = 481.50, under the free-delivery threshold.
	require.True(t, order.Subtotal.Equal(decimal.RequireFromString("481.50")))
	require.True(t, order.DeliveryFee.Equal(decimal.NewFromInt(50)))
	require.True(t, order.Total.Equal(decimal.RequireFromString("531.50")))
	require.Equal(t, "560001", order.ShippingInfo.Pincode)

	require.Equal(t, 8, currentStock(t, conn, kaju.ID))
	require.Equal(t, 2, currentStock(t, conn, ladoo.ID))

	var logCount int64
	require.NoError(t, conn.Model(&models.InventoryLog{}).Where("order_id = ?", order.ID).Count(&logCount).Error)
	require.EqualValues(t, 2, logCount)

	var itemCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&itemCount).Error)
	require.Zero(t, itemCount, "cart is cleared after checkout")
}

func TestServiceCreateOrderFreeDelivery(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Dry Fruit Box", "650.00", 3)
	seedCart(t, conn, userID, map[uuid.UUID]int{product.ID: 1})

	order, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)
	require.True(t, order.DeliveryFee.IsZero())
	require.True(t, order.Total.Equal(decimal.RequireFromString("650.00")))
}

func TestServiceCreateOrderInsufficientStockRollsBack(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	kaju := seedProduct(t, conn, "Kaju Katli", "120.00", 10)
	jamun := seedProduct(t, conn, "Gulab Jamun", "90.00", 1)
	seedCart(t, conn, userID, map[uuid.UUID]int{kaju.ID: 2, jamun.ID: 4})

	_, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	requireErrorCode(t, err, pkgerrors.CodeInsufficientStock)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	problems, ok := details["problems"].([]string)
	require.True(t, ok)
	require.Contains(t, problems, `"Gulab Jamun" only has 1 units left`)

	// Nothing committed: both stocks intact, no order rows, cart untouched.
	require.Equal(t, 10, currentStock(t, conn, kaju.ID))
	require.Equal(t, 1, currentStock(t, conn, jamun.ID))

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	var itemCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&itemCount).Error)
	require.EqualValues(t, 2, itemCount)
}

func TestServiceCreateOrderUnavailableProduct(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Mysore Pak", "110.00", 5)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", product.ID).UpdateColumn("is_active", false).Error)
	seedCart(t, conn, userID, map[uuid.UUID]int{product.ID: 1})

	_, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
}

func TestServiceCreateOrderReportsAllProblemsAtOnce(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	retired := seedProduct(t, conn, "Mysore Pak", "110.00", 5)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", retired.ID).UpdateColumn("is_active", false).Error)
	scarce := seedProduct(t, conn, "Gulab Jamun", "90.00", 1)
	seedCart(t, conn, userID, map[uuid.UUID]int{retired.ID: 1, scarce.ID: 3})

	_, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	requireErrorCode(t, err, pkgerrors.CodeInsufficientStock)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	problems, ok := details["problems"].([]string)
	require.True(t, ok)
	require.Len(t, problems, 2, "both the retired and the scarce line are reported together")
	require.Contains(t, problems, `"Mysore Pak" is no longer available`)
	require.Contains(t, problems, `"Gulab Jamun" only has 1 units left`)
}

func TestServiceCreateOrderFromExplicitItems(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	kaju := seedProduct(t, conn, "Kaju Katli", "120.00", 10)
	ladoo := seedProduct(t, conn, "Motichoor Ladoo", "80.00", 8)
	// The persisted cart must survive an explicit-items checkout untouched.
	seedCart(t, conn, userID, map[uuid.UUID]int{ladoo.ID: 2})

	order, err := svc.Create(ctx, userID, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: kaju.ID, Quantity: 2},
			{ProductID: kaju.ID, Quantity: 1},
		},
		ShippingInfo: shipping(),
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1, "duplicate product lines are merged")
	require.Equal(t, 3, order.Items[0].Quantity)
	require.True(t, order.Subtotal.Equal(decimal.RequireFromString("360.00")))

	require.Equal(t, 7, currentStock(t, conn, kaju.ID))
	require.Equal(t, 8, currentStock(t, conn, ladoo.ID))

	var itemCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&itemCount).Error)
	require.EqualValues(t, 1, itemCount, "cart is not cleared on explicit-items checkout")
}

func TestServiceCreateOrderExplicitItemsRejectsBadQuantity(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	product := seedProduct(t, conn, "Jalebi", "40.00", 5)
	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:        []OrderItemInput{{ProductID: product.ID, Quantity: 0}},
		ShippingInfo: shipping(),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceCreateOrderEmptyCart(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{ShippingInfo: shipping()})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceGetAndListScoping(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	product := seedProduct(t, conn, "Rasgulla", "50.00", 20)
	seedCart(t, conn, owner, map[uuid.UUID]int{product.ID: 2})

	created, err := svc.Create(ctx, owner, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)

	got, err := svc.GetForUser(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.GetForUser(ctx, stranger, created.ID)
	requireErrorCode(t, err, pkgerrors.CodeNotFound)

	page, err := svc.ListForUser(ctx, owner, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)

	page, err = svc.ListForUser(ctx, stranger, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, page.Orders)
}

func TestServiceListPagination(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Jalebi", "40.00", 100)
	for range 3 {
		seedOrder(t, conn, userID, product, enums.OrderStatusPending)
	}

	first, err := svc.ListForUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListForUser(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(first.Orders, second.Orders...) {
		require.False(t, seen[o.ID], "no order repeats across pages")
		seen[o.ID] = true
	}
}

func TestServiceListStatusFilter(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Soan Papdi", "70.00", 100)
	seedOrder(t, conn, userID, product, enums.OrderStatusPending)
	confirmed := seedOrder(t, conn, userID, product, enums.OrderStatusConfirmed)

	status := enums.OrderStatusConfirmed
	page, err := svc.List(ctx, ListFilters{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, confirmed, page.Orders[0].ID)
}

func TestServiceListPaymentStatusFilter(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Soan Papdi", "70.00", 100)
	seedOrder(t, conn, userID, product, enums.OrderStatusPending)
	paid := seedOrder(t, conn, userID, product, enums.OrderStatusConfirmed)
	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", paid).
		UpdateColumn("payment_status", enums.OrderPaymentStatusPaid).Error)

	paymentStatus := enums.OrderPaymentStatusPaid
	page, err := svc.List(ctx, ListFilters{PaymentStatus: &paymentStatus}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, paid, page.Orders[0].ID)
}

func TestServiceUpdateStatusTransitions(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()

	product := seedProduct(t, conn, "Besan Barfi", "95.00", 10)
	seedCart(t, conn, userID, map[uuid.UUID]int{product.ID: 2})
	created, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "shipped"})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)

	updated, err := svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "confirmed"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	_, err = svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "bogus"})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.UpdateStatus(ctx, adminID, uuid.New(), UpdateStatusInput{Status: "confirmed"})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceCancelRestocks(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()

	product := seedProduct(t, conn, "Kesar Peda", "130.00", 6)
	seedCart(t, conn, userID, map[uuid.UUID]int{product.ID: 4})
	created, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)
	require.Equal(t, 2, currentStock(t, conn, product.ID))

	cancelled, err := svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 6, currentStock(t, conn, product.ID))

	var restockLogs int64
	require.NoError(t, conn.Model(&models.InventoryLog{}).
		Where("order_id = ? AND change_type = ?", created.ID, enums.InventoryChangeCancelRestock).
		Count(&restockLogs).Error)
	require.EqualValues(t, 1, restockLogs)

	// Cancelled is terminal.
	_, err = svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "confirmed"})
	requireErrorCode(t, err, pkgerrors.CodeStateConflict)
}

func TestServiceCancelPaidOrderKeepsStock(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()

	product := seedProduct(t, conn, "Kesar Peda", "130.00", 6)
	seedCart(t, conn, userID, map[uuid.UUID]int{product.ID: 4})
	created, err := svc.Create(ctx, userID, CreateOrderInput{ShippingInfo: shipping()})
	require.NoError(t, err)
	require.Equal(t, 2, currentStock(t, conn, product.ID))

	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", created.ID).
		Updates(map[string]any{"status": enums.OrderStatusConfirmed, "payment_status": enums.OrderPaymentStatusPaid}).Error)

	cancelled, err := svc.UpdateStatus(ctx, adminID, created.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	// Paid orders keep their stock taken; a refund flow owns any return.
	require.Equal(t, 2, currentStock(t, conn, product.ID))

	var restockLogs int64
	require.NoError(t, conn.Model(&models.InventoryLog{}).
		Where("order_id = ? AND change_type = ?", created.ID, enums.InventoryChangeCancelRestock).
		Count(&restockLogs).Error)
	require.Zero(t, restockLogs)
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, product *models.Product, status enums.OrderStatus) uuid.UUID {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		PaymentStatus: enums.OrderPaymentStatusUnpaid,
		Subtotal:      product.Price,
		DeliveryFee:   decimal.NewFromInt(50),
		Total:         product.Price.Add(decimal.NewFromInt(50)),
		ShippingInfo:  shipping(),
		Items: []models.OrderItem{{
			ID:           uuid.New(),
			ProductID:    product.ID,
			ProductName:  product.Name,
			UnitPrice:    product.Price,
			Quantity:     1,
			LineSubtotal: product.Price,
		}},
	}
	require.NoError(t, conn.Create(order).Error)
	return order.ID
}
