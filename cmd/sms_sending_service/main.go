package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	billingapp "github.com/aradsms/sms_engine/internal/billing_service/app"
	billingpg "github.com/aradsms/sms_engine/internal/billing_service/repository/postgres"
	"github.com/aradsms/sms_engine/internal/platform/config"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/platform/health"
	"github.com/aradsms/sms_engine/internal/platform/httpserver"
	"github.com/aradsms/sms_engine/internal/platform/logger"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/phonenumber"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/app"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/provider"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/repository/postgres"
	"golang.org/x/sync/errgroup"
)

const serviceName = "sms_sending_service"

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
	appLogger.Info("Starting service...", "workers", cfg.SendWorkers, "subject", cfg.SendJobSubject)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	txRunner := database.NewPoolTxRunner(dbPool)

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	natsClient = natsClient.WithTaskPrefix(cfg.TaskSubjectPrefix)

	catalogRepo := postgres.NewPgCatalogRepository(dbPool, appLogger)
	providerRepo := postgres.NewPgProviderRepository(dbPool, appLogger)
	accountRepo := postgres.NewPgAccountRepository(dbPool, appLogger)
	historyRepo := postgres.NewPgHistoryRepository(dbPool, txRunner, appLogger)
	queueRepo := postgres.NewPgQueueRepository(dbPool)

	converter := billingapp.NewConverter(billingpg.NewPgExchangeRateRepository(dbPool))
	ledger := billingapp.NewLedger(dbPool, txRunner, billingpg.NewPgCreditRepository(), billingpg.NewPgTransactionRepository(), converter, appLogger)

	normalizer := phonenumber.NewNormalizer()
	catalogCache := app.NewCatalogCache(catalogRepo, appLogger)
	if err := catalogCache.Refresh(ctx); err != nil {
		appLogger.Warn("Initial catalog load failed, will load lazily", "error", err)
	}
	router := app.NewRouter(catalogRepo, providerRepo, accountRepo, catalogCache, ledger, normalizer, appLogger)

	transport := provider.NewTransport(provider.TransportConfig{
		ConnectTimeout: cfg.ProviderConnectTimeout,
		ReadTimeout:    cfg.ProviderReadTimeout,
		MaxRetries:     cfg.ProviderMaxRetries,
		TLSVerify:      cfg.ProviderTLSVerify,
	}, appLogger)
	registry := provider.DefaultRegistry(provider.Deps{Transport: transport, Logger: appLogger})

	dispatcher := app.NewDispatcher(router, accountRepo, registry, ledger, historyRepo, accountRepo, natsClient, normalizer,
		app.DispatcherConfig{
			EnforceBalance:   cfg.EnforceBalance,
			ChargeableErrors: cfg.ChargeableErrors,
			SendDLRErrors:    cfg.SendDLRErrors,
			DLRQueue:         cfg.DLRQueue,
			DefaultSource:    cfg.DefaultSource,
		}, appLogger)
	consumer := app.NewJobConsumer(natsClient, dispatcher, queueRepo, cfg.SendWorkers, cfg.SendJobTimeout, appLogger)
	replayer := app.NewQueueReplayer(queueRepo, historyRepo, natsClient, cfg.SendJobSubject, app.ReplayConfig{
		After:      cfg.SendReplayAfter,
		MaxReplays: cfg.SendReplayMax,
		BatchSize:  cfg.SendReplayBatch,
	}, appLogger)

	healthServer := health.NewServer(cfg.GRPCHealthPort, appLogger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(gctx, cfg.SendJobSubject, cfg.SendJobQueueGroup)
	})
	g.Go(func() error {
		return replayer.Run(gctx, cfg.SendReplayInterval)
	})
	g.Go(func() error {
		catalogCache.Run(gctx, cfg.CatalogRefreshEvery)
		return nil
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
