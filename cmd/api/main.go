package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fieldops/kobo-dolibarr-bridge/internal/api/http"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/api/http/handlers"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/dolibarr"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/geocode"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/kobo"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/observability"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/service"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	dolibarrClient := dolibarr.New(cfg.Dolibarr, logger)
	koboClient := kobo.New(cfg.Kobo)
	geocoder := geocode.New(cfg.Geocode, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	closeRunService := service.NewCloseRunService(cfg.Run, service.CloseRunDependencies{
		TicketClient: dolibarrClient,
		KoboLister:   koboClient,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	visitService := service.NewVisitService(cfg.Run, service.VisitDependencies{
		DirectoryClient: dolibarrClient,
		AgendaClient:    dolibarrClient,
		Geocoder:        geocoder,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dolibarrClient)
	runsHandler := handlers.NewRunsHandler(closeRunService, cfg.BatchPullEnabled())
	visitsHandler := handlers.NewVisitsHandler(visitService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		Runs:   runsHandler,
		Visits: visitsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
