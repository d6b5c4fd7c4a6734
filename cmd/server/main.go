package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/api"
	"github.com/jstittsworth/fpl-predictor/internal/api/handlers"
	"github.com/jstittsworth/fpl-predictor/internal/api/middleware"
	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/model"
	"github.com/jstittsworth/fpl-predictor/internal/pipeline"
	"github.com/jstittsworth/fpl-predictor/internal/services"
	"github.com/jstittsworth/fpl-predictor/pkg/config"
	"github.com/jstittsworth/fpl-predictor/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to the run-history database when configured
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	// Connect to Redis; the service works without the cache, just slower
	var cache *services.CacheService
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Warnf("Redis unavailable, running without cache: %v", err)
		redisClient.Close()
	} else {
		cache = services.NewCacheService(redisClient)
		defer redisClient.Close()
	}

	// Select the data source
	source, images := buildDataSource(cfg, cache, logger)

	store := artifact.NewStore(cfg.OutputDir)
	pipe := pipeline.New(source, store, db, logger, pipelineOptions(cfg))

	// Scheduled pipeline runs
	var scheduler *services.SchedulerService
	if cfg.EnableScheduler {
		interval, err := time.ParseDuration(cfg.RunInterval)
		if err != nil {
			logrus.Warnf("Invalid run interval, using default 6h: %v", err)
			interval = 6 * time.Hour
		}
		scheduler = services.NewSchedulerService(pipe, cache, logger, interval)
		if err := scheduler.Start(cfg.SkipInitialRun); err != nil {
			logrus.Errorf("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	apiGroup := router.Group("/api")
	var cacheProvider fpl.CacheProvider
	if cache != nil {
		cacheProvider = cache
	}
	api.SetupRoutes(apiGroup, store, cacheProvider, images, scheduler, db, logger)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// buildDataSource wires the configured data source. Image enrichment is
// only available with the live API.
func buildDataSource(cfg *config.Config, cache *services.CacheService, logger *logrus.Logger) (fpl.DataSource, handlers.ImageResolver) {
	if cfg.DataSource == "static" {
		return fpl.NewStaticSource(cfg.StaticDataDir, logger), nil
	}

	var cacheProvider fpl.CacheProvider
	if cache != nil {
		cacheProvider = cache
	}
	client := fpl.NewClient(fpl.ClientOptions{
		BaseURL:          cfg.FPLBaseURL,
		Timeout:          cfg.FPLTimeout,
		RequestsPerMin:   cfg.FPLRateLimit,
		BreakerThreshold: cfg.CircuitBreakerThreshold,
	}, cacheProvider, logger)
	return client, client
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		HomeAdvantage:      cfg.HomeAdvantage,
		PredictionDamping:  cfg.PredictionDamping,
		PointsScale:        cfg.PointsScale,
		MinTrainingMinutes: cfg.MinTrainingMinutes,
		MinTrainingPlayers: cfg.MinTrainingPlayers,
		PredictionTarget:   cfg.PredictionTarget,
		Model: model.Config{
			TreeCount: cfg.TreeCount,
			MaxDepth:  cfg.MaxTreeDepth,
			TestSplit: cfg.TestSplit,
			Seed:      cfg.RandomSeed,
		},
	}
}
