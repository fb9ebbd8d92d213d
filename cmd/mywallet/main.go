package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/guhrizzo/my-wallet/internal/amqp"
	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/config"
	"github.com/guhrizzo/my-wallet/internal/feed"
	apphttp "github.com/guhrizzo/my-wallet/internal/http"
	"github.com/guhrizzo/my-wallet/internal/ledger"
	"github.com/guhrizzo/my-wallet/internal/ledger/memory"
	applog "github.com/guhrizzo/my-wallet/internal/log"
	"github.com/guhrizzo/my-wallet/internal/services"
	"github.com/guhrizzo/my-wallet/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store ledger.Store
		users apphttp.UserStore
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store, users = repo, repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store, users = memory.New(), memory.NewUserStore()
		logger.Info("Initialized memory backend")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("AMQP fanout enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	hub := feed.NewHub(store)
	service := services.NewTransactionService(store, hub, amqpClient)
	defer service.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       ":" + cfg.Port,
		Currency:   cfg.Currency,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger.WithComponent(applog.ComponentHTTP),
	}, service, hub, users, tokens)

	srv.ReadTimeout = 10 * time.Second
	// Write timeout would cut long-lived event streams; rely on client
	// disconnects and the idle timeout instead.
	srv.WriteTimeout = 0
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting my-wallet server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeTransactionEvents(gctx, func(event *amqp.TransactionEvent) error {
				return service.HandleRemoteEvent(gctx, event)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
