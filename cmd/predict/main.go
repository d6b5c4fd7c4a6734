package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/model"
	"github.com/jstittsworth/fpl-predictor/internal/pipeline"
	"github.com/jstittsworth/fpl-predictor/pkg/config"
	"github.com/jstittsworth/fpl-predictor/pkg/database"
)

// predict runs the prediction pipeline once and exits. Useful from cron
// jobs or ahead of a deploy; the server picks up the new artifact on the
// next request.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logger := logrus.StandardLogger()

	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	var source fpl.DataSource
	if cfg.DataSource == "static" {
		source = fpl.NewStaticSource(cfg.StaticDataDir, logger)
	} else {
		source = fpl.NewClient(fpl.ClientOptions{
			BaseURL:          cfg.FPLBaseURL,
			Timeout:          cfg.FPLTimeout,
			RequestsPerMin:   cfg.FPLRateLimit,
			BreakerThreshold: cfg.CircuitBreakerThreshold,
		}, nil, logger)
	}

	store := artifact.NewStore(cfg.OutputDir)
	pipe := pipeline.New(source, store, db, logger, pipeline.Options{
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
	})

	result, err := pipe.Run(context.Background())
	if err != nil {
		logrus.Fatalf("Prediction run failed: %v", err)
	}

	logrus.Infof("Predictions for Gameweek %d saved to %s (%d players)",
		result.Gameweek, result.ArtifactPath, result.PlayersScored)
}
