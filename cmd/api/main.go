package main

import (
	"context"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/callcore/campaign-engine/internal/config"
	"github.com/callcore/campaign-engine/internal/handler"
	"github.com/callcore/campaign-engine/internal/infra/postgresql"
	"github.com/callcore/campaign-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/callcore/campaign-engine/internal/infra/redis"
	"github.com/callcore/campaign-engine/internal/observability"
	"github.com/callcore/campaign-engine/internal/provider"
	"github.com/callcore/campaign-engine/internal/queue"
	"github.com/callcore/campaign-engine/internal/repository"
	"github.com/callcore/campaign-engine/internal/service"
	"github.com/callcore/campaign-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	metrics := observability.NewMetrics()

	limiter, err := infraredis.NewAreaRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	areas := repository.NewGormAreaRepo(db)
	callers := repository.NewGormCallerRepo(db)
	contacts := repository.NewGormContactRepo(db)
	campaigns := repository.NewGormCampaignRepo(db)
	enrollments := repository.NewGormEnrollmentRepo(db)
	ledger := repository.NewGormLedgerRepo(db)

	credentials, err := service.NewCredentialService(callers, logger)
	if err != nil {
		logger.Fatal("credential service init failed", zap.Error(err))
	}
	resolver, err := service.NewCampaignResolver(areas, campaigns, logger)
	if err != nil {
		logger.Fatal("campaign resolver init failed", zap.Error(err))
	}

	publisher := queue.NewRabbitMQPublisher(broker)
	defer publisher.Close()

	assignments, err := service.NewAssignmentService(credentials, resolver, enrollments, contacts, campaigns, metrics, logger)
	if err != nil {
		logger.Fatal("assignment service init failed", zap.Error(err))
	}
	outcomes, err := service.NewOutcomeService(credentials, resolver, enrollments, publisher, metrics, logger)
	if err != nil {
		logger.Fatal("outcome service init failed", zap.Error(err))
	}
	progress, err := service.NewProgressService(credentials, resolver, enrollments, ledger, logger)
	if err != nil {
		logger.Fatal("progress service init failed", zap.Error(err))
	}
	campaignSvc, err := service.NewCampaignService(campaigns, contacts, enrollments, resolver, logger)
	if err != nil {
		logger.Fatal("campaign service init failed", zap.Error(err))
	}

	reaper, err := service.NewReaper(
		enrollments,
		time.Duration(cfg.ReaperIntervalSec)*time.Second,
		time.Duration(cfg.ReaperMaxCallAgeMin)*time.Minute,
		metrics,
		logger,
	)
	if err != nil {
		logger.Fatal("reaper init failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use("/v1/calls", transport.RateLimitMiddleware(limiter, logger))

	if err := handler.RegisterCallRoutes(app, assignments, outcomes, progress); err != nil {
		logger.Fatal("failed to register call routes", zap.Error(err))
	}
	if err := handler.RegisterCampaignRoutes(app, campaignSvc); err != nil {
		logger.Fatal("failed to register campaign routes", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("campaign-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(":" + strconv.Itoa(cfg.APIPort))
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down api")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	g.Go(func() error {
		return reaper.Start(groupCtx)
	})

	if cfg.CRMWebhookURL != "" {
		webhook, err := provider.NewCRMWebhook(cfg.CRMWebhookURL)
		if err != nil {
			logger.Fatal("crm webhook init failed", zap.Error(err))
		}
		consumer := queue.NewRabbitMQConsumer(broker, cfg.WorkerPrefetch, logger)
		defer consumer.Close()

		worker, err := service.NewReportingWorker(consumer, webhook, cfg.WorkerConcurrency, metrics, logger)
		if err != nil {
			logger.Fatal("reporting worker init failed", zap.Error(err))
		}
		g.Go(func() error {
			return worker.Start(groupCtx)
		})
	} else {
		logger.Warn("CRM_WEBHOOK_URL not set, outcome reporting worker disabled")
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("campaign-engine terminated", zap.Error(err))
	}

	logger.Info("campaign-engine stopped")
}
