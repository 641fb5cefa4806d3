package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/threepillars/storefront-backend/api/routes"
	"github.com/threepillars/storefront-backend/internal/cart"
	"github.com/threepillars/storefront-backend/internal/catalog"
	"github.com/threepillars/storefront-backend/internal/checkout"
	"github.com/threepillars/storefront-backend/internal/integrations"
	"github.com/threepillars/storefront-backend/internal/notifications"
	"github.com/threepillars/storefront-backend/internal/orders"
	"github.com/threepillars/storefront-backend/internal/payments/yoco"
	"github.com/threepillars/storefront-backend/internal/shipping/pudo"
	"github.com/threepillars/storefront-backend/internal/tenant"
	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/metrics"
	"github.com/threepillars/storefront-backend/pkg/migrate"
	"github.com/threepillars/storefront-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	conn := dbClient.DB()

	tenantResolver, err := tenant.NewResolver(tenant.NewRepository(conn), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant resolver", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(conn)
	catalogService, err := catalog.NewService(catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cartRepo, catalogRepo, cart.NewFixedAmountResolver(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationRepo := notifications.NewRepository(conn)
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}
	var pusher notifications.Pusher = notifications.NoopPusher{}
	if cfg.Push.Endpoint != "" {
		pusher = notifications.NewHTTPPusher(cfg.Push)
	}
	emitter, err := notifications.NewEmitter(notificationRepo, pusher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification emitter", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(dbClient, checkout.NewRepository(conn), cartRepo, catalogRepo, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(dbClient, orderRepo, catalogRepo, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	credentials, err := integrations.NewResolver(conn, cfg.Yoco, cfg.Courier)
	if err != nil {
		logg.Error(context.Background(), "failed to create integration resolver", err)
		os.Exit(1)
	}

	paymentService, err := yoco.NewService(
		yoco.NewClient(cfg.Yoco.BaseURL),
		orderRepo,
		orderService,
		credentials,
		redisClient,
		webhookMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	shippingService, err := pudo.NewService(pudo.NewClient(cfg.Courier.BaseURL), credentials, orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			HTTPMetrics:   httpMetrics,
			Tenants:       tenantResolver,
			Catalog:       catalogService,
			Carts:         cartService,
			Checkout:      checkoutService,
			Orders:        orderService,
			Payments:      paymentService,
			Shipping:      shippingService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
