package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"flight-dashboard/internal/domain/repository"
	"flight-dashboard/internal/infrastructure/config"
	"flight-dashboard/internal/infrastructure/persistence"
	"flight-dashboard/internal/infrastructure/scheduler"
	"flight-dashboard/internal/interface/backend"
	repo "flight-dashboard/internal/interface/repository"
	"flight-dashboard/internal/interface/view"
	"flight-dashboard/internal/interface/web"
	"flight-dashboard/internal/usecase"
	"flight-dashboard/pkg/logger"
	"flight-dashboard/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Flight Dashboard", "version", cfg.AppVersion, "backend", cfg.BackendURL)

	m := metrics.NewMetrics("flight_dashboard", prometheus.DefaultRegisterer)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Refresh run history: MongoDB when configured, memory otherwise
	var (
		mongoClient *mongo.Client
		runs        repository.RefreshRunRepository
	)
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		mongoClient, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		runs = repo.NewMongoRefreshRunRepository(persistence.GetDatabase(mongoClient, cfg.MongoDB))
	} else {
		log.Info("MONGODB_DSN not set, keeping refresh history in memory")
		runs = repo.NewMemoryRefreshRunRepository(repo.DefaultRunHistory)
	}

	// Airport time zones: PostgreSQL when configured, UTC otherwise
	var (
		gormDB   *gorm.DB
		airports repository.AirportRepository
	)
	if cfg.PostgresURI != "" {
		log.Info("Connecting to PostgreSQL")
		gormDB, err = persistence.NewPostgresDB(ctx, cfg.PostgresURI)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		airports = repo.NewGormAirportRepository(gormDB)
	} else {
		log.Info("POSTGRES_DSN not set, rendering schedule times in UTC")
	}

	// Dashboard
	doc := view.NewDocument()
	source := backend.NewFlightClient(cfg.BackendURL, cfg.BackendTimeout, log.With("component", "backend"), m)
	tables := view.NewTableRenderer(doc, view.NewTimeFormatter(airports, log))
	chart := view.NewChartView(doc, log)
	mapView := view.NewMapView(doc, cfg.MapTileURL, cfg.MapAttribution, log)
	dashboard := usecase.NewDashboardService(source, tables, chart, mapView, log, m, cfg.TopDelayedCount)

	trigger, err := doc.Control(view.ElementRefreshDataButton)
	if err != nil {
		log.Fatal("Failed to get refresh control", "error", err)
	}
	progress := usecase.NewProgressController(doc, log, m)
	orchestrator := usecase.NewRefreshOrchestrator(source, dashboard, progress, doc, trigger, runs,
		usecase.RefreshSettings{
			Tick:               cfg.ProgressTick,
			IntermediateTarget: cfg.IntermediateTarget,
			NearFinalTarget:    cfg.NearFinalTarget,
			SettleWait:         cfg.SettleWait,
			FinishDelay:        cfg.FinishDelay,
			FailureDelay:       cfg.FailureDelay,
		},
		log.With("component", "refresh"), m,
	)

	// Set up HTTP server
	gin.SetMode(gin.ReleaseMode)
	handler := web.NewHandler(ctx, web.Deps{
		Document:     doc,
		Dashboard:    dashboard,
		Orchestrator: orchestrator,
		Chart:        chart,
		Map:          mapView,
		Runs:         runs,
		Logger:       log.With("component", "http"),
		Version:      cfg.AppVersion,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      web.NewRouter(handler, promhttp.Handler()),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	var wg sync.WaitGroup

	// Initial load
	wg.Add(1)
	go func() {
		defer wg.Done()
		if cfg.RefreshOnStartup {
			if _, err := orchestrator.Initialize(ctx); err != nil {
				log.Error("Startup refresh not run", "error", err)
			}
			return
		}
		if err := dashboard.InitializeMap(); err != nil {
			log.Error("Map initialization failed", "error", err)
		}
		if _, err := dashboard.Reload(ctx); err != nil {
			log.Error("Initial flight load failed", "error", err)
		}
	}()

	// Scheduled refresh
	if cfg.RefreshSchedule != "" {
		sched := scheduler.New(cfg.RefreshSchedule, orchestrator, log.With("component", "scheduler"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Refresh scheduler stopped", "error", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines
	wg.Wait()
	handler.Wait()

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}
	if gormDB != nil {
		if err := persistence.ClosePostgresDB(gormDB); err != nil {
			log.Error("PostgreSQL close error", "error", err)
		}
	}

	log.Info("Flight Dashboard stopped")
}
