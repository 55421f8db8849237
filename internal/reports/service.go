package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
)

const (
	defaultTopProductsLimit = 10
	defaultLowStockLevel    = 5
)

// Window bounds a reporting query. Zero values mean unbounded on that side.
type Window struct {
	From time.Time
	To   time.Time
}

// SalesSummary aggregates paid orders over a window.
type SalesSummary struct {
	OrderCount        int64           `json:"order_count"`
	ItemsSold         int64           `json:"items_sold"`
	UniqueCustomers   int64           `json:"unique_customers"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// DailyRevenue is one day's worth of paid orders.
type DailyRevenue struct {
	Day        string          `json:"day"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// LowStockProduct flags catalog rows running out.
type LowStockProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Stock     int       `json:"stock"`
}

// Service serves the admin reporting queries.
type Service interface {
	SalesSummary(ctx context.Context, window Window) (*SalesSummary, error)
	RevenueByDay(ctx context.Context, window Window) ([]DailyRevenue, error)
	TopProducts(ctx context.Context, window Window, limit int) ([]TopProduct, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
}

type service struct {
	db       *gorm.DB
	products *catalog.ProductRepository
}

// NewService constructs the reporting service.
func NewService(db *gorm.DB, products *catalog.ProductRepository) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{db: db, products: products}, nil
}

// SalesSummary counts only paid orders: an unpaid pending order is not a sale.
func (s *service) SalesSummary(ctx context.Context, window Window) (*SalesSummary, error) {
	query := s.db.WithContext(ctx).
		Table("orders").
		Where("payment_status = ?", "paid")
	query = applyWindow(query, "orders.created_at", window)

	var orderAgg struct {
		OrderCount      int64
		UniqueCustomers int64
		TotalRevenue    decimal.Decimal
	}
	err := query.
		Select("COUNT(*) AS order_count, " +
			"COUNT(DISTINCT user_id) AS unique_customers, " +
			"COALESCE(SUM(total), 0) AS total_revenue").
		Scan(&orderAgg).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate orders")
	}

	itemsQuery := s.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ?", "paid")
	itemsQuery = applyWindow(itemsQuery, "orders.created_at", window)

	var itemsSold int64
	err = itemsQuery.
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&itemsSold).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate order items")
	}

	summary := &SalesSummary{
		OrderCount:        orderAgg.OrderCount,
		ItemsSold:         itemsSold,
		UniqueCustomers:   orderAgg.UniqueCustomers,
		TotalRevenue:      orderAgg.TotalRevenue,
		AverageOrderValue: decimal.Zero,
	}
	if orderAgg.OrderCount > 0 {
		summary.AverageOrderValue = orderAgg.TotalRevenue.
			Div(decimal.NewFromInt(orderAgg.OrderCount)).
			Round(2)
	}
	return summary, nil
}

// RevenueByDay buckets paid orders by calendar day. date() resolves on both
// postgres and sqlite, which keeps the query testable against the in-memory DB.
func (s *service) RevenueByDay(ctx context.Context, window Window) ([]DailyRevenue, error) {
	query := s.db.WithContext(ctx).
		Table("orders").
		Where("payment_status = ?", "paid")
	query = applyWindow(query, "orders.created_at", window)

	var rows []DailyRevenue
	err := query.
		Select("date(orders.created_at) AS day, " +
			"COUNT(*) AS order_count, " +
			"COALESCE(SUM(total), 0) AS revenue").
		Group("date(orders.created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate daily revenue")
	}
	return rows, nil
}

func (s *service) TopProducts(ctx context.Context, window Window, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}

	query := s.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ?", "paid")
	query = applyWindow(query, "orders.created_at", window)

	var rows []TopProduct
	err := query.
		Select("order_items.product_id AS product_id, " +
			"order_items.product_name AS product_name, " +
			"SUM(order_items.quantity) AS units_sold, " +
			"SUM(order_items.line_subtotal) AS revenue").
		Group("order_items.product_id, order_items.product_name").
		Order("units_sold DESC, revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate top products")
	}
	return rows, nil
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	if threshold <= 0 {
		threshold = defaultLowStockLevel
	}

	products, err := s.products.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock products")
	}

	rows := make([]LowStockProduct, 0, len(products))
	for _, p := range products {
		rows = append(rows, LowStockProduct{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Stock:     p.Stock,
		})
	}
	return rows, nil
}

func applyWindow(query *gorm.DB, column string, window Window) *gorm.DB {
	if !window.From.IsZero() {
		query = query.Where(column+" >= ?", window.From)
	}
	if !window.To.IsZero() {
		query = query.Where(column+" < ?", window.To)
	}
	return query
}
