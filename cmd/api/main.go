package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sethvargo/go-retry"

	"github.com/sweetkart/sweetshop-backend/api/routes"
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
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/metrics"
	"github.com/sweetkart/sweetshop-backend/pkg/migrate"
	"github.com/sweetkart/sweetshop-backend/pkg/razorpay"
	"github.com/sweetkart/sweetshop-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	bootCtx := context.Background()

	var dbClient *db.Client
	err = retry.Do(bootCtx, retry.WithMaxRetries(5, retry.NewExponential(time.Second)), func(ctx context.Context) error {
		var connErr error
		dbClient, connErr = db.New(ctx, cfg.DB, logg)
		if connErr != nil {
			logg.Warn(ctx, "database not ready, retrying")
			return retry.RetryableError(connErr)
		}
		return nil
	})
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	err = retry.Do(bootCtx, retry.WithMaxRetries(5, retry.NewExponential(time.Second)), func(ctx context.Context) error {
		var connErr error
		redisClient, connErr = redis.New(ctx, cfg.Redis)
		if connErr != nil {
			logg.Warn(ctx, "redis not ready, retrying")
			return retry.RetryableError(connErr)
		}
		return nil
	})
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(bootCtx, "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		logg.Error(bootCtx, "failed to create razorpay client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	categoryRepo := catalog.NewCategoryRepository(conn)
	productRepo := catalog.NewProductRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(productRepo, categoryRepo)
	if err != nil {
		logg.Error(bootCtx, "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productRepo, cfg.Checkout)
	if err != nil {
		logg.Error(bootCtx, "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:          dbClient,
		Orders:      orderRepo,
		Carts:       cartRepo,
		Products:    productRepo,
		CheckoutCfg: cfg.Checkout,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		DB:       dbClient,
		Payments: paymentRepo,
		Orders:   orderRepo,
		Gateway:  gateway,
		Cfg:      cfg.Razorpay,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create payments service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(dbClient, inventoryRepo)
	if err != nil {
		logg.Error(bootCtx, "failed to create inventory service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(bootCtx, "failed to create users service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(conn, productRepo)
	if err != nil {
		logg.Error(bootCtx, "failed to create reports service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		SessionManager:   sessionManager,
		HTTPMetrics:      httpMetrics,
		Gatherer:         registry,
		AuthService:      authService,
		CatalogService:   catalogService,
		CartService:      cartService,
		OrdersService:    ordersService,
		PaymentsService:  paymentsService,
		InventoryService: inventoryService,
		UsersService:     usersService,
		ReportsService:   reportsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
