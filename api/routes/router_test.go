package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweetkart/sweetshop-backend/internal/auth"
	"github.com/sweetkart/sweetshop-backend/internal/cart"
	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	"github.com/sweetkart/sweetshop-backend/internal/inventory"
	"github.com/sweetkart/sweetshop-backend/internal/orders"
	"github.com/sweetkart/sweetshop-backend/internal/payments"
	"github.com/sweetkart/sweetshop-backend/internal/reports"
	"github.com/sweetkart/sweetshop-backend/internal/users"
	pkgAuth "github.com/sweetkart/sweetshop-backend/pkg/auth"
	"github.com/sweetkart/sweetshop-backend/pkg/auth/session"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductPage, error) {
	return &catalog.ProductPage{}, nil
}

func (stubCatalogService) GetProductByID(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]catalog.CategoryDTO, error) {
	return nil, nil
}

func (stubCatalogService) CreateCategory(ctx context.Context, input catalog.CreateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.UpdateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return &cart.View{}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, req cart.AddItemRequest) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req cart.UpdateItemRequest) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.Page, error) {
	return &orders.Page{}, nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, filters orders.ListFilters, params pagination.Params) (*orders.Page, error) {
	return &orders.Page{}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

type stubPaymentsService struct{}

func (stubPaymentsService) CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*payments.IntentDTO, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Verify(ctx context.Context, userID uuid.UUID, req payments.VerifyRequest) (*payments.PaymentDTO, error) {
	panic("unimplemented")
}

func (stubPaymentsService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]payments.PaymentDTO, error) {
	return nil, nil
}

type stubInventoryService struct{}

func (stubInventoryService) Adjust(ctx context.Context, actorID uuid.UUID, input inventory.AdjustInput) (*inventory.LogDTO, error) {
	panic("unimplemented")
}

func (stubInventoryService) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]inventory.LogDTO, error) {
	return nil, nil
}

type stubUsersService struct{}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) List(ctx context.Context, limit, offset int) (*users.UserPage, error) {
	return &users.UserPage{}, nil
}

func (stubUsersService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) SetRole(ctx context.Context, id uuid.UUID, role string) (*users.UserDTO, error) {
	panic("unimplemented")
}

type stubReportsService struct{}

func (stubReportsService) SalesSummary(ctx context.Context, window reports.Window) (*reports.SalesSummary, error) {
	return &reports.SalesSummary{}, nil
}

func (stubReportsService) RevenueByDay(ctx context.Context, window reports.Window) ([]reports.DailyRevenue, error) {
	return nil, nil
}

func (stubReportsService) TopProducts(ctx context.Context, window reports.Window, limit int) ([]reports.TopProduct, error) {
	return nil, nil
}

func (stubReportsService) LowStock(ctx context.Context, threshold int) ([]reports.LowStockProduct, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "sweetshop-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:           testConfig(),
		Logger:           logg,
		DB:               stubPinger{},
		SessionManager:   stubSessionManager{},
		AuthService:      stubAuthService{},
		CatalogService:   stubCatalogService{},
		CartService:      stubCartService{},
		OrdersService:    stubOrdersService{},
		PaymentsService:  stubPaymentsService{},
		InventoryService: stubInventoryService{},
		UsersService:     stubUsersService{},
		ReportsService:   stubReportsService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestStorefrontCatalogIsPublic(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCartRequiresJWT(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestCartSucceedsWithJWT(t *testing.T) {
	router := newTestRouter(t)
	token := mintToken(t, testConfig(), enums.UserRoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+mintToken(t, testConfig(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+mintToken(t, testConfig(), enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminReportsReachable(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/reports/sales-summary", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testConfig(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
