package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetkart/sweetshop-backend/api/controllers"
	"github.com/sweetkart/sweetshop-backend/api/middleware"
	"github.com/sweetkart/sweetshop-backend/internal/auth"
	"github.com/sweetkart/sweetshop-backend/internal/cart"
	"github.com/sweetkart/sweetshop-backend/internal/catalog"
	"github.com/sweetkart/sweetshop-backend/internal/inventory"
	"github.com/sweetkart/sweetshop-backend/internal/orders"
	"github.com/sweetkart/sweetshop-backend/internal/payments"
	"github.com/sweetkart/sweetshop-backend/internal/reports"
	"github.com/sweetkart/sweetshop-backend/internal/users"
	"github.com/sweetkart/sweetshop-backend/pkg/auth/session"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/db"
	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/metrics"
	"github.com/sweetkart/sweetshop-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer

	AuthService      auth.Service
	CatalogService   catalog.Service
	CartService      cart.Service
	OrdersService    orders.Service
	PaymentsService  payments.Service
	InventoryService inventory.Service
	UsersService     users.Service
	ReportsService   reports.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisPing redis.Pinger
	if deps.Redis != nil {
		redisPing = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, redisPing, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.SessionManager, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AdminAuthLogin(deps.AuthService, logg))
	})

	// Storefront catalog is public.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
		r.Get("/{product}", controllers.GetProduct(deps.CatalogService, logg))
	})
	r.Get("/api/v1/categories", controllers.ListCategories(deps.CatalogService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.OrdersService, logg))
			r.Get("/", controllers.OrderList(deps.OrdersService, logg))
			r.Get("/{orderID}", controllers.OrderGet(deps.OrdersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/{orderID}/intent", controllers.PaymentCreateIntent(deps.PaymentsService, logg))
			r.Post("/verify", controllers.PaymentVerify(deps.PaymentsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.CatalogService, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
			r.Patch("/{productID}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(deps.CatalogService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminListCategories(deps.CatalogService, logg))
			r.Post("/", controllers.AdminCreateCategory(deps.CatalogService, logg))
			r.Patch("/{categoryID}", controllers.AdminUpdateCategory(deps.CatalogService, logg))
			r.Delete("/{categoryID}", controllers.AdminDeleteCategory(deps.CatalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
			r.Get("/{orderID}", controllers.AdminOrderGet(deps.OrdersService, logg))
			r.Patch("/{orderID}/status", controllers.AdminOrderUpdateStatus(deps.OrdersService, logg))
			r.Get("/{orderID}/payments", controllers.AdminOrderPayments(deps.PaymentsService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(deps.UsersService, logg))
			r.Get("/{userID}", controllers.AdminUserGet(deps.UsersService, logg))
			r.Patch("/{userID}/active", controllers.AdminUserSetActive(deps.UsersService, logg))
			r.Patch("/{userID}/role", controllers.AdminUserSetRole(deps.UsersService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/adjust", controllers.AdminInventoryAdjust(deps.InventoryService, logg))
			r.Get("/{productID}/history", controllers.AdminInventoryHistory(deps.InventoryService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales-summary", controllers.AdminSalesSummary(deps.ReportsService, logg))
			r.Get("/revenue-by-day", controllers.AdminRevenueByDay(deps.ReportsService, logg))
			r.Get("/top-products", controllers.AdminTopProducts(deps.ReportsService, logg))
			r.Get("/low-stock", controllers.AdminLowStock(deps.ReportsService, logg))
		})
	})

	return r
}
