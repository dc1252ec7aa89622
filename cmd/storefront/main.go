package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"github.com/clinicshop/storefront/internal/cart"
	"github.com/clinicshop/storefront/internal/catalog"
	"github.com/clinicshop/storefront/internal/checkout"
	"github.com/clinicshop/storefront/internal/config"
	"github.com/clinicshop/storefront/internal/events"
	h "github.com/clinicshop/storefront/internal/http"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/clinicshop/storefront/internal/repository"
	"github.com/clinicshop/storefront/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Service: "storefront", Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, err := repository.Open(connectCtx, cfg.RepositoryOptions())
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open %s cart store: %w", cfg.CartStore, err)
	}
	defer repo.Close()
	log.Info("cart store ready", zap.String("driver", cfg.CartStore))

	carts := cart.NewManager(repo, log,
		cart.WithIdleTTL(cfg.CartIdleTTL),
		cart.WithIOTimeout(cfg.CartIOTimeout))

	client, err := backend.New(backend.Config{
		BaseURL:     cfg.BackendURL,
		Timeout:     cfg.BackendTimeout,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, log)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.OrderEventsTopic, log, cfg.KafkaBrokers...)
		log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	}
	defer publisher.Close()

	products := catalog.NewService(client, catalog.WithLookupTimeout(cfg.BackendTimeout))
	calc := pricing.NewCalculator(cfg.Pricing)
	checkoutSvc := checkout.NewService(client, calc, log,
		checkout.WithTimeout(cfg.BackendTimeout),
		checkout.WithPublisher(publisher))

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		CookieSecure:       cfg.CookieSecure,
	}, h.Handlers{
		Cart:     h.NewCartHandler(carts, products, calc, cfg.BackendTimeout, log),
		Checkout: h.NewCheckoutHandler(carts, checkoutSvc, log),
		Products: h.NewProductHandler(products, cfg.BackendTimeout, log),
		Auth:     h.NewAuthHandler(client, cfg.BackendTimeout, cfg.CookieSecure, log),
		Account:  h.NewAccountHandler(client, cfg.BackendTimeout, log),
		Orders:   h.NewOrdersHandler(client, cfg.BackendTimeout, log),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		// flush carts still held in memory
		return carts.Close()
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront stopped with error", zap.Error(err))
		return err
	}
	log.Info("server exited")
	return nil
}
