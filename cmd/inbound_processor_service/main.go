package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/app"
	"github.com/aradsms/sms_engine/internal/inbound_processor_service/repository/postgres"
	"github.com/aradsms/sms_engine/internal/platform/config"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/platform/health"
	"github.com/aradsms/sms_engine/internal/platform/httpserver"
	"github.com/aradsms/sms_engine/internal/platform/lock"
	"github.com/aradsms/sms_engine/internal/platform/logger"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/phonenumber"
	"github.com/aradsms/sms_engine/internal/platform/webhook"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName      = "inbound_processor_service"
	pusherQueueGroup = "incoming_pushers"
	sweepConcurrency = 4
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
	appLogger.Info("Starting service...",
		"sweep_interval", cfg.SweepInterval,
		"repush_interval", cfg.RepushInterval,
		"push_queue", cfg.PushIncomingQueue,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	natsClient = natsClient.WithTaskPrefix(cfg.TaskSubjectPrefix)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	routingRepo := postgres.NewPgRoutingRepository(dbPool, appLogger)
	inboxRepo := postgres.NewPgInboxRepository(dbPool, database.NewPoolTxRunner(dbPool), appLogger)

	reassembler := app.NewReassembler(routingRepo, inboxRepo, phonenumber.NewNormalizer(), natsClient, cfg.PushIncomingQueue, appLogger)
	sweeper := app.NewSweeper(inboxRepo, reassembler, lock.NewLocker(redisClient), app.SweeperConfig{
		StaleMin:    cfg.SweepStaleMin,
		StaleMax:    cfg.SweepStaleMax,
		LockTTL:     cfg.SweepLockTTL,
		Concurrency: sweepConcurrency,
	}, appLogger)
	repusher := app.NewRepusher(inboxRepo, routingRepo, natsClient, cfg.PushIncomingQueue, appLogger)
	pusher := app.NewPusher(natsClient, webhook.NewClient(cfg.WebhookTimeout, appLogger), inboxRepo, appLogger)

	healthServer := health.NewServer(cfg.GRPCHealthPort, appLogger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		return repusher.Run(gctx, cfg.RepushInterval, cfg.RepushLookback)
	})
	g.Go(func() error {
		return pusher.Run(gctx, natsClient.TaskSubjectFor(cfg.PushIncomingQueue), pusherQueueGroup)
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
