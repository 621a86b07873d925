package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"famtrack/internal/amqp"
	"famtrack/internal/auth"
	"famtrack/internal/config"
	apphttp "famtrack/internal/http"
	"famtrack/internal/log"
	"famtrack/internal/services"
	"famtrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "famtrack",
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.EnsureSystemCategories(context.Background()); err != nil {
		logger.Error("Failed to seed categories", "error", err)
		os.Exit(1)
	}

	// AMQP is optional; without a broker budget alerts are evaluated but
	// never published.
	var alerts services.AlertPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		alerts = client
		logger.Info("Budget alert publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP_URL provided, budget alerts disabled")
	}

	sessions := auth.NewSessionManager(repo, cfg.SessionTTL)
	budgets := services.NewBudgetService(repo)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Repo:          repo,
		Authenticator: auth.NewPasswordAuthenticator(repo),
		Sessions:      sessions,
		Transactions:  services.NewTransactionService(repo, budgets, alerts),
		Budgets:       budgets,
		Analytics:     services.NewAnalyticsService(repo, budgets),
		Exporter:      services.NewExportService(repo),

		TrustedProxies: cfg.TrustedProxies,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting famtrack server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Periodically purge expired sessions.
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				removed, err := sessions.CleanupExpired(gctx)
				if err != nil {
					logger.Warn("Session cleanup failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("Expired sessions removed", "count", removed)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

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
