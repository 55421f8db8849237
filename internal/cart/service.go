package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
)

// Service exposes the customer cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	carts       *Repository
	products    *catalog.ProductRepository
	checkoutCfg config.CheckoutConfig
}

// NewService constructs the cart service.
func NewService(carts *Repository, products *catalog.ProductRepository, checkoutCfg config.CheckoutConfig) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{carts: carts, products: products, checkoutCfg: checkoutCfg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.buildView(record), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadSellableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	quantity := req.Quantity
	if existing, err := s.carts.FindItem(ctx, record.ID, req.ProductID); err == nil {
		quantity += existing.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	if quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("%q only has %d units left", product.Name, product.Stock)).
			WithDetails(map[string]any{"product_id": product.ID, "product_name": product.Name, "stock": product.Stock})
	}

	if err := s.carts.UpsertItem(ctx, &models.CartItem{
		ID:        uuid.New(),
		CartID:    record.ID,
		ProductID: req.ProductID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*View, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("%q only has %d units left", product.Name, product.Stock)).
			WithDetails(map[string]any{"product_id": product.ID, "product_name": product.Name, "stock": product.Stock})
	}

	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if _, err := s.carts.FindItem(ctx, record.ID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	if err := s.carts.UpsertItem(ctx, &models.CartItem{
		ID:        uuid.New(),
		CartID:    record.ID,
		ProductID: productID,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	affected, err := s.carts.DeleteItem(ctx, record.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	record, err := s.carts.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.carts.Clear(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is no longer available")
	}
	return product, nil
}

func (s *service) buildView(record *models.CartRecord) *View {
	view := &View{
		ID:          record.ID,
		Items:       make([]ItemView, 0, len(record.Items)),
		Subtotal:    decimal.Zero,
		DeliveryFee: decimal.Zero,
		Total:       decimal.Zero,
	}

	for _, item := range record.Items {
		if item.Product == nil {
			continue
		}
		line := ItemView{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Slug:      item.Product.Slug,
			ImageURL:  item.Product.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Stock:     item.Product.Stock,
		}
		line.LineSubtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		switch {
		case !item.Product.IsActive:
			line.Warning = "product no longer available"
		case item.Quantity > item.Product.Stock:
			line.Warning = "insufficient stock"
		case !item.UnitPrice.Equal(item.Product.Price):
			line.Warning = "price changed since added"
		}

		view.Items = append(view.Items, line)
		view.Subtotal = view.Subtotal.Add(line.LineSubtotal)
	}

	view.DeliveryFee = DeliveryFee(s.checkoutCfg, view.Subtotal)
	view.Total = view.Subtotal.Add(view.DeliveryFee)
	return view
}

// DeliveryFee applies the flat-fee policy: free at or above the threshold,
// otherwise the configured fee. Empty carts carry no fee.
func DeliveryFee(cfg config.CheckoutConfig, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	threshold := decimal.NewFromInt(int64(cfg.FreeDeliveryThreshold))
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(cfg.DeliveryFee))
}
