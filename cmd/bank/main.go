// Package main запускает HTTP-сервер бэк-офиса банка.
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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/bank-backoffice/internal/config"
	"github.com/mmeshcher/bank-backoffice/internal/handler"
	"github.com/mmeshcher/bank-backoffice/internal/metrics"
	"github.com/mmeshcher/bank-backoffice/internal/repository"
	"github.com/mmeshcher/bank-backoffice/internal/service"
)

type storage interface {
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		store     storage
		customers service.CustomerRepository
		accounts  service.AccountRepository
	)

	if cfg.DatabaseURI != "" {
		db, err := repository.NewPostgres(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		store, customers, accounts = db, db.Customers(), db.Accounts()
	} else {
		sugar.Warn("DATABASE_URI is empty, data is kept in memory")
		mem := repository.NewMemory()
		store, customers, accounts = mem, mem.Customers(), mem.Accounts()
	}
	defer store.Close()

	accountService := service.NewAccountService(accounts, logger.Named("accounts"), m)
	customerService := service.NewCustomerService(customers, accountService, logger.Named("customers"), m)

	h := handler.NewHandler(customerService, accountService, store, logger.Named("http"))

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting bank back office", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
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
		sugar.Errorw("application terminated with error", "error", err)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
