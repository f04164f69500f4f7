// Package main запускает HTTP-сервер витрины boostmart.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/boostmart/internal/cart"
	"github.com/mmeshcher/boostmart/internal/catalog"
	"github.com/mmeshcher/boostmart/internal/checkout"
	"github.com/mmeshcher/boostmart/internal/config"
	"github.com/mmeshcher/boostmart/internal/events"
	"github.com/mmeshcher/boostmart/internal/handler"
	"github.com/mmeshcher/boostmart/internal/metrics"
	"github.com/mmeshcher/boostmart/internal/middleware"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
	"github.com/mmeshcher/boostmart/internal/payment"
	"github.com/mmeshcher/boostmart/internal/repository"
	"github.com/mmeshcher/boostmart/internal/service"
)

// storage объединяет всё, что витрина ожидает от хранилища.
type storage interface {
	catalog.Store
	order.Store
	UpsertProfile(ctx context.Context, p model.Principal) error
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := openStorage(cfg)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher, err := openPublisher(cfg)
	if err != nil {
		sugar.Fatalw("event publisher initialization error", "error", err.Error())
	}
	defer publisher.Close()

	var payments checkout.PaymentGateway = payment.Static{Approve: true}
	if cfg.PaymentSystemAddress != "" {
		payments = payment.NewClient(cfg.PaymentSystemAddress)
	} else {
		sugar.Warn("payment system address is not set, all charges are approved")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := catalog.New(repo)
	if err := services.Load(ctx); err != nil {
		sugar.Fatalw("catalog load error", "error", err.Error())
	}
	if cfg.SeedCatalog {
		n, err := services.Seed(ctx, catalog.DefaultServices())
		if err != nil {
			sugar.Fatalw("catalog seed error", "error", err.Error())
		}
		if n > 0 {
			sugar.Infow("catalog seeded", "services", n)
		}
	}

	orders := order.NewManager(repo, publisher, logger, m)
	if err := orders.Load(ctx); err != nil {
		sugar.Fatalw("orders load error", "error", err.Error())
	}

	transformer := checkout.NewTransformer(payments, orders, cfg.TaxRate, cfg.Currency, m)
	svc := service.NewService(services, cart.NewRegistry(), transformer, orders, repo, logger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	if cfg.AuthSecret == "" {
		sugar.Warn("auth secret is not set, issued tokens will not survive a restart")
	}
	h := handler.NewHandler(svc, logger, authMiddleware, m, repo.Ping)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting boostmart server", "addr", cfg.RunAddress, "services", services.Len())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func openStorage(cfg *config.Config) (storage, error) {
	if cfg.DatabaseURI == "" {
		return repository.NewMemoryRepository(), nil
	}
	return repository.NewPostgresRepository(cfg.DatabaseURI)
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	switch {
	case cfg.KafkaBrokers != "":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
	case cfg.AMQPURL != "":
		return events.DialAMQP(cfg.AMQPURL, cfg.EventsTopic)
	default:
		return events.Nop{}, nil
	}
}
