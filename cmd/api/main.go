package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"orbtrap-lab/internal/api"
	"orbtrap-lab/internal/api/handlers"
	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/internal/infrastructure/database"
	"orbtrap-lab/internal/infrastructure/database/repository"
	"orbtrap-lab/internal/streaming"
	"orbtrap-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting OrbTrap Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize optional infrastructure. The honeypot core is in-memory;
	// missing backends downgrade features instead of blocking startup.
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize report archive repository
	var reportRepo *repository.ReportRepository
	if db != nil {
		reportRepo = repository.NewReportRepository(db.Pool())
		if err := reportRepo.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to prepare report archive schema, continuing without archive")
			reportRepo = nil
		} else {
			log.Info().Msg("report archive initialized with database")
		}
	} else {
		log.Warn().Msg("running without database - report archive unavailable")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Initialize services
	patterns := services.NewPatternDB()
	classifier := services.NewIntentClassifier(patterns, cfg.Detection, log)
	extractor := services.NewIntelligenceExtractor(patterns)
	dialogue := services.NewDialogueEngine(cfg.Dialogue, log)
	store := services.NewSessionStore(cfg.Sessions, log)
	dispatcher := services.NewReportDispatcher(cfg.Callback, redisCache, reportRepo, eventBus, log)
	engine := services.NewHoneypotEngine(store, classifier, extractor, dialogue, dispatcher, redisCache, eventBus, cfg.Dialogue, log)
	log.Info().Str("sink", cfg.Callback.URL).Msg("honeypot engine initialized")

	// Initialize handlers and router
	h := handlers.NewHandlers(*cfg, engine, patterns, redisCache, log)
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start the reported-session sweeper
	go store.Run(ctx)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	eventBus.Close()

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes the optional database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}
