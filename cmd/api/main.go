package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"freightflow/internal/config"
	"freightflow/internal/database"
	"freightflow/internal/database/migration"
	handlers "freightflow/internal/http/handler"
	"freightflow/internal/http/middleware"
	"freightflow/internal/jobs"
	"freightflow/internal/otel"
	"freightflow/internal/repository/postgres"
	"freightflow/internal/service"
	"freightflow/internal/storage"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "freightflow").Logger()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer shutdownTracing(ctx)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	ownerLoc, err := time.LoadLocation(cfg.OwnerTimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.OwnerTimeZone).Msg("invalid owner timezone")
	}

	invoiceRepo := postgres.NewInvoicePostgres(db)
	presignExpiry := time.Duration(cfg.PresignExpiryHrs) * time.Hour
	ingestSvc := service.NewIngestService(objStore, invoiceRepo, ownerLoc, presignExpiry, log)
	invoiceSvc := service.NewInvoiceService(invoiceRepo)
	reconciler := service.NewReconciler(invoiceRepo, ownerLoc, cfg.Reconcile.PageSize, cfg.Reconcile.WriteBatch, log)

	scheduler, err := jobs.StartReconcileScheduler(cfg.Reconcile, reconciler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start reconcile scheduler")
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, ingestSvc, invoiceSvc, reconciler)

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
