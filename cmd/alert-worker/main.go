package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"famtrack/internal/amqp"
	"famtrack/internal/config"
	"famtrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "alert-worker",
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting alert worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	err = client.ConsumeBudgetAlerts(ctx, cfg.AlertBatchSize, func(msg *amqp.BudgetAlertMessage) error {
		// Delivery channel for notifications is deliberately simple for
		// now: structured log lines that downstream tooling can tail.
		// TODO: send email once an SMTP relay is provisioned.
		logger.Info("Budget alert",
			"budget_id", msg.BudgetID,
			"user_id", msg.UserID,
			"owner", msg.OwnerLabel,
			"category", msg.CategoryLabel,
			"status", msg.Status,
			"percentage_used", msg.PercentageUsed,
			"amount_remaining", msg.AmountRemaining,
		)
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Alert worker stopped gracefully")
}
