package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/cart"
	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	"github.com/sweetkart/sweetshop-backend/internal/inventory"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

// Service owns the order lifecycle: checkout, reads, and admin transitions.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
}

// ServiceParams carries the collaborators for NewService.
type ServiceParams struct {
	DB          *db.Client
	Orders      *Repository
	Carts       *cart.Repository
	Products    *catalog.ProductRepository
	CheckoutCfg config.CheckoutConfig
	Logger      *logger.Logger
}

type service struct {
	db          *db.Client
	orders      *Repository
	carts       *cart.Repository
	products    *catalog.ProductRepository
	checkoutCfg config.CheckoutConfig
	logg        *logger.Logger
}

// NewService validates dependencies and constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{
		db:          params.DB,
		orders:      params.Orders,
		carts:       params.Carts,
		products:    params.Products,
		checkoutCfg: params.CheckoutCfg,
		logg:        params.Logger,
	}, nil
}

// orderLine is a resolved checkout request line, either from the persisted
// cart or from an explicit item list in the payload.
type orderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// resolveLines picks the checkout source: explicit payload items win,
// otherwise the persisted cart. The returned cart ID is non-nil only when
// the cart should be cleared after a successful checkout.
func (s *service) resolveLines(ctx context.Context, userID uuid.UUID, input CreateOrderInput) ([]orderLine, *uuid.UUID, error) {
	if len(input.Items) > 0 {
		merged := make(map[uuid.UUID]int, len(input.Items))
		order := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			if item.Quantity <= 0 {
				return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("quantity must be positive for product %s", item.ProductID))
			}
			if _, seen := merged[item.ProductID]; !seen {
				order = append(order, item.ProductID)
			}
			merged[item.ProductID] += item.Quantity
		}
		lines := make([]orderLine, 0, len(order))
		for _, id := range order {
			lines = append(lines, orderLine{ProductID: id, Quantity: merged[id]})
		}
		return lines, nil, nil
	}

	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	lines := make([]orderLine, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, orderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	cartID := record.ID
	return lines, &cartID, nil
}

// Create turns the requested lines into an order. The order insert, the
// stock decrements, and the cart clear all ride one transaction: either
// every line gets its stock or nothing is written.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	lines, cartID, err := s.resolveLines(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		live, err := products.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}

		// Every problem line is collected before reporting, so the
		// customer can fix the whole checkout in one pass.
		var lineErrs error
		stockShort := false
		for _, line := range lines {
			product, ok := live[line.ProductID]
			switch {
			case !ok:
				lineErrs = multierr.Append(lineErrs,
					fmt.Errorf("product %s is no longer available", line.ProductID))
			case !product.IsActive:
				lineErrs = multierr.Append(lineErrs,
					fmt.Errorf("%q is no longer available", product.Name))
			case line.Quantity > product.Stock:
				stockShort = true
				lineErrs = multierr.Append(lineErrs,
					fmt.Errorf("%q only has %d units left", product.Name, product.Stock))
			}
		}
		if lineErrs != nil {
			details := make([]string, 0)
			for _, e := range multierr.Errors(lineErrs) {
				details = append(details, e.Error())
			}
			code := pkgerrors.CodeStateConflict
			if stockShort {
				code = pkgerrors.CodeInsufficientStock
			}
			return pkgerrors.New(code, "some items cannot be fulfilled").
				WithDetails(map[string]any{"problems": details})
		}

		order := &models.Order{
			ID:            uuid.New(),
			UserID:        userID,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.OrderPaymentStatusUnpaid,
			ShippingInfo:  input.ShippingInfo,
			Subtotal:      decimal.Zero,
		}

		requests := make([]inventory.DecrementRequest, 0, len(lines))
		for _, line := range lines {
			product := live[line.ProductID]
			lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			order.Items = append(order.Items, models.OrderItem{
				ID:           uuid.New(),
				OrderID:      order.ID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				UnitPrice:    product.Price,
				Quantity:     line.Quantity,
				LineSubtotal: lineSubtotal,
			})
			order.Subtotal = order.Subtotal.Add(lineSubtotal)
			requests = append(requests, inventory.DecrementRequest{
				ProductID:   product.ID,
				ProductName: product.Name,
				Qty:         line.Quantity,
			})
		}

		order.DeliveryFee = cart.DeliveryFee(s.checkoutCfg, order.Subtotal)
		order.Total = order.Subtotal.Add(order.DeliveryFee)

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		results, err := inventory.DecrementStock(ctx, tx, order.ID, requests)
		if err != nil {
			return err
		}
		problems := make([]string, 0)
		for _, res := range results {
			if !res.Decremented {
				problems = append(problems, res.Reason)
			}
		}
		if len(problems) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "some items cannot be fulfilled").
				WithDetails(map[string]any{"problems": problems})
		}

		if cartID != nil {
			if err := s.carts.WithTx(tx).Clear(ctx, *cartID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": created.ID.String(),
			"total":    created.Total.String(),
		})
		s.logg.Info(logCtx, "order created")
	}
	return fromModel(created), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return fromModel(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	return s.list(ctx, ListFilters{UserID: &userID}, params)
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return fromModel(order), nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*Page, error) {
	return s.list(ctx, filters, params)
}

func (s *service) list(ctx context.Context, filters ListFilters, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.orders.List(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	page := &Page{Orders: make([]OrderDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for i := range rows {
		page.Orders = append(page.Orders, *fromModel(&rows[i]))
	}
	return page, nil
}

// UpdateStatus applies an admin lifecycle move. Cancelling an unpaid order
// restocks every line in the same transaction as the status write; paid
// orders keep their stock taken until a refund flow handles them.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).UpdateStatus(ctx, orderID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		if target != enums.OrderStatusCancelled || order.PaymentStatus != enums.OrderPaymentStatusUnpaid {
			return nil
		}

		requests := make([]inventory.DecrementRequest, 0, len(order.Items))
		for _, item := range order.Items {
			requests = append(requests, inventory.DecrementRequest{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Qty:         item.Quantity,
			})
		}
		return inventory.Restock(ctx, tx, orderID, &actorID, requests)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"status":   target.String(),
		})
		s.logg.Info(logCtx, "order status updated")
	}
	return s.Get(ctx, orderID)
}
