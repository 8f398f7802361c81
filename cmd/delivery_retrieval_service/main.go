package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aradsms/sms_engine/internal/delivery_retrieval_service/app"
	"github.com/aradsms/sms_engine/internal/platform/config"
	"github.com/aradsms/sms_engine/internal/platform/health"
	"github.com/aradsms/sms_engine/internal/platform/httpserver"
	"github.com/aradsms/sms_engine/internal/platform/logger"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/webhook"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName   = "delivery_retrieval_service"
	dlrQueueGroup = "dlr_pushers"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.NewWithOptions(logger.Options{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogFileMaxSize,
		MaxBackups: cfg.LogFileBackups,
		MaxAgeDays: cfg.LogFileMaxAge,
	}).With("service", serviceName)
	appLogger.Info("Starting service...", "dlr_queue", cfg.DLRQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	natsClient = natsClient.WithTaskPrefix(cfg.TaskSubjectPrefix)

	pusher := app.NewDLRPusher(natsClient, webhook.NewClient(cfg.WebhookTimeout, appLogger), appLogger)

	healthServer := health.NewServer(cfg.GRPCHealthPort, appLogger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pusher.Run(gctx, natsClient.TaskSubjectFor(cfg.DLRQueue), dlrQueueGroup)
	})
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.NewMetricsServer(cfg.MetricsPort), cfg.ShutdownTimeout, appLogger)
	})
	g.Go(func() error {
		return healthServer.Run(gctx)
	})
	healthServer.SetServing("", true)
	appLogger.Info("Service is ready")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service shutdown complete.")
}
