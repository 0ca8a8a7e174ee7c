// Command booking-audit consumes reservation events from RabbitMQ and
// appends them to the audit log file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Matipousi/UcuDB1/internal/logging"
	"github.com/Matipousi/UcuDB1/internal/queue"
)

type auditConfig struct {
	RabbitMQURL  string `env:"RABBITMQ_URL"`
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"logs/reservations.log"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	_ = godotenv.Load()
	var cfg auditConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("parse env", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.RabbitMQURL, cfg.AuditLogPath, logger)
	logger.Info("audit consumer starting", "queue", c.Queue, "log_path", c.LogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("audit consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("audit consumer stopped")
}
