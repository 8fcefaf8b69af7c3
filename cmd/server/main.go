package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asb-storefront/internal/config"
	"asb-storefront/internal/database"
	"asb-storefront/internal/handlers"
	"asb-storefront/internal/logging"
	"asb-storefront/internal/middleware"
	"asb-storefront/internal/repositories"
	"asb-storefront/internal/seed"
	"asb-storefront/internal/server"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, databaseName, closeDB := openRepository(ctx, cfg, logger)
	defer closeDB()

	// Storage
	factory := services.NewStorageFactory(cfg, logger)
	local, err := factory.CreateLocalStorage()
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	storage := factory.CreateStorageService(ctx, local)

	// Services
	catalog := services.NewCatalogService(repo, logger)
	orders := services.NewOrderService(repo, cfg.Cart.TaxRate, logger)
	gateway := services.NewMockPaymentGateway(cfg.Payment.MockDelay, logger)
	checkout := services.NewCheckoutService(gateway, orders, services.CheckoutOptions{
		PaymentTimeout: cfg.Payment.Timeout,
		TTL:            cfg.Checkout.TTL,
	}, logger)
	checkout.StartCleanup(ctx, time.Minute)

	uploads := services.NewUploadService(storage, services.UploadOptions{
		MaxBytes:     cfg.Upload.MaxBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}, logger)

	// Sessions and rate limiting
	store := middleware.NewCookieStore(cfg.Session, cfg.IsProduction())
	sessionManager := middleware.NewSessionManager(store, cfg.Session.Name, logger)

	limiter := middleware.NewRateLimiter(cfg.Checkout.RateLimit, cfg.Checkout.RateLimitWindow)
	limiter.StartCleanup(ctx, cfg.Checkout.RateLimitWindow)

	router := server.NewRouter(server.Handlers{
		Cart:     handlers.NewCartHandler(sessionManager, catalog, cfg.Cart.TaxRate, logger),
		Checkout: handlers.NewCheckoutHandler(sessionManager, checkout, logger),
		Catalog:  handlers.NewCatalogHandler(catalog, logger),
		Upload:   handlers.NewUploadHandler(uploads, logger),
		Health:   handlers.NewHealthHandler(repo, databaseName, factory.GetStorageInfo(), logger),
	}, server.RouterOptions{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		CheckoutLimiter: limiter,
		UploadsDir:      cfg.Upload.LocalDir,
		RequestTimeout:  cfg.Payment.Timeout + 15*time.Second,
	}, logger)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	logger.WithFields(logrus.Fields{
		"addr":     addr,
		"env":      cfg.Server.Env,
		"database": databaseName,
	}).Info("Starting ASB storefront")

	return server.Run(ctx, addr, router, logger)
}

// openRepository connects to Postgres and falls back to an in-memory store
// with sample data when the database is unreachable
func openRepository(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.DocumentRepository, string, func()) {
	db, err := database.NewConnection(database.ConfigFromApp(cfg.Database))
	if err == nil {
		if err = db.RunMigrations(); err == nil {
			logger.Info("Database connection established")
			return repositories.NewDocumentRepository(db.DB), "postgres", func() { db.Close() }
		}
		db.Close()
	}

	if cfg.IsProduction() {
		logger.WithError(err).Fatal("Database unavailable")
	}
	logger.WithError(err).Warn("Database unavailable, using in-memory store")

	repo := repositories.NewMemoryDocumentRepository()
	if _, seedErr := seed.Run(ctx, services.NewCatalogService(repo, logger), time.Now(), logger); seedErr != nil {
		logger.WithError(seedErr).Warn("Failed to seed in-memory store")
	}
	return repo, "memory", func() {}
}
