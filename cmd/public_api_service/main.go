package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dlrapp "github.com/aradsms/sms_engine/internal/delivery_retrieval_service/app"
	dlrpg "github.com/aradsms/sms_engine/internal/delivery_retrieval_service/repository/postgres"
	inboundapp "github.com/aradsms/sms_engine/internal/inbound_processor_service/app"
	inboundpg "github.com/aradsms/sms_engine/internal/inbound_processor_service/repository/postgres"
	"github.com/aradsms/sms_engine/internal/platform/config"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/platform/httpserver"
	"github.com/aradsms/sms_engine/internal/platform/logger"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/platform/phonenumber"
	httptransport "github.com/aradsms/sms_engine/internal/public_api_service/transport/http"
	sendingapp "github.com/aradsms/sms_engine/internal/sms_sending_service/app"
	sendingpg "github.com/aradsms/sms_engine/internal/sms_sending_service/repository/postgres"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName    = "public_api_service"
	requestTimeout = 60 * time.Second
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
	appLogger.Info("Public API service starting...", "port", cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
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

	submitter := sendingapp.NewSubmitter(sendingpg.NewPgQueueRepository(dbPool), natsClient, cfg.SendJobSubject, appLogger)
	statusService := sendingapp.NewStatusService(sendingpg.NewPgHistoryRepository(dbPool, txRunner, appLogger), appLogger)

	routingRepo := inboundpg.NewPgRoutingRepository(dbPool, appLogger)
	inboxRepo := inboundpg.NewPgInboxRepository(dbPool, txRunner, appLogger)
	reassembler := inboundapp.NewReassembler(routingRepo, inboxRepo, phonenumber.NewNormalizer(), natsClient, cfg.PushIncomingQueue, appLogger)
	repusher := inboundapp.NewRepusher(inboxRepo, routingRepo, natsClient, cfg.PushIncomingQueue, appLogger)

	dlrProcessor := dlrapp.NewDLRProcessor(dlrpg.NewPgDeliveryRepository(dbPool, appLogger), natsClient, cfg.DLRQueue, appLogger)

	validate := httptransport.NewValidator()
	router := httptransport.NewRouter(
		httptransport.NewMessageHandler(submitter, statusService, validate, cfg.DefaultSource, appLogger),
		httptransport.NewIncomingHandler(reassembler, repusher, dlrProcessor, validate, appLogger),
		requestTimeout,
		appLogger,
	)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, apiServer, cfg.ShutdownTimeout, appLogger)
	})
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.NewMetricsServer(cfg.MetricsPort), cfg.ShutdownTimeout, appLogger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Public API service stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Public API service shut down.")
}
