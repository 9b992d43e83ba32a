package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/retailpos-backend/api"
	"github.com/angelmondragon/retailpos-backend/api/routes"
	"github.com/angelmondragon/retailpos-backend/internal/cart/session"
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/internal/orders"
	"github.com/angelmondragon/retailpos-backend/internal/sales"
	stripewebhook "github.com/angelmondragon/retailpos-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/metrics"
	"github.com/angelmondragon/retailpos-backend/pkg/migrate"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox"
	"github.com/angelmondragon/retailpos-backend/pkg/redis"
	"github.com/angelmondragon/retailpos-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	catalogRepo := catalog.NewRepository(dbClient.DB())

	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, emitter, logg)
	if err != nil {
		return err
	}

	codes, err := orders.NewCodeGenerator(cfg.Sales.OrderCodeCharset)
	if err != nil {
		return err
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, emitter, codes, logg)
	if err != nil {
		return err
	}

	salesSvc, err := sales.NewService(dbClient, catalogRepo, ordersSvc, metrics.NewSaleMetrics(prometheus.DefaultRegisterer), logg, sales.Config{
		TaxRate:          cfg.Sales.TaxRateDecimal(),
		StockCASAttempts: cfg.Sales.StockCASAttempts,
	})
	if err != nil {
		return err
	}

	cartStore, err := session.NewStore(redisClient, cfg.Sales.CartTTL)
	if err != nil {
		return err
	}
	cartSvc, err := session.NewService(cartStore, catalogRepo, salesSvc, cfg.Sales.TaxRateDecimal(), logg)
	if err != nil {
		return err
	}

	params := routes.Params{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Catalog:  catalogSvc,
		Orders:   ordersSvc,
		Sales:    salesSvc,
		Carts:    cartSvc,
		Gatherer: prometheus.DefaultGatherer,
	}
	if cfg.Stripe.Enabled() {
		if err := wireStripe(ctx, cfg, logg, redisClient, salesSvc, &params); err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "stripe not configured; online checkout webhook disabled")
	}

	server := api.NewServer(cfg, routes.NewRouter(params))
	serveCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(serveCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(serveCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func wireStripe(ctx context.Context, cfg *config.Config, logg *logger.Logger, store redis.IdempotencyStore, salesSvc sales.Service, params *routes.Params) error {
	client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	events, err := stripewebhook.NewService(salesSvc, logg)
	if err != nil {
		return err
	}
	guard, err := stripewebhook.NewIdempotencyGuard(store, cfg.Eventing.WebhookIdempotencyTTL, stripewebhook.DefaultScope)
	if err != nil {
		return err
	}
	params.Stripe = client
	params.StripeEvents = events
	params.StripeGuard = guard
	return nil
}
