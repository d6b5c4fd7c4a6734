package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/features"
	"github.com/jstittsworth/fpl-predictor/internal/fixtures"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/model"
	"github.com/jstittsworth/fpl-predictor/internal/models"
	"github.com/jstittsworth/fpl-predictor/pkg/database"
)

// Options are the pipeline tunables, all sourced from configuration.
type Options struct {
	HomeAdvantage      float64
	PredictionDamping  float64
	PointsScale        float64
	MinTrainingMinutes float64
	MinTrainingPlayers int
	PredictionTarget   string
	Model              model.Config
}

// Result summarizes a completed run.
type Result struct {
	RunID         string        `json:"run_id"`
	Gameweek      int           `json:"gameweek"`
	PlayersScored int           `json:"players_scored"`
	ArtifactPath  string        `json:"artifact_path"`
	Metrics       model.Metrics `json:"metrics"`
	Duration      time.Duration `json:"-"`
}

// Pipeline runs the full prediction flow: fetch, join fixture difficulty,
// derive features, train, predict, rank, export. Stages run sequentially
// and any failure aborts the run.
type Pipeline struct {
	source fpl.DataSource
	store  *artifact.Store
	db     *database.DB // nil disables run history
	logger *logrus.Logger
	opts   Options
}

func New(source fpl.DataSource, store *artifact.Store, db *database.DB, logger *logrus.Logger, opts Options) *Pipeline {
	return &Pipeline{
		source: source,
		store:  store,
		db:     db,
		logger: logger,
		opts:   opts,
	}
}

// Run executes one end-to-end prediction run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()

	dataset, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("data acquisition failed: %w", err)
	}
	if len(dataset.Players) == 0 {
		return nil, fmt.Errorf("data acquisition returned no players")
	}

	lookup, gameweek, err := fixtures.Resolve(dataset.Fixtures, dataset.Difficulty, time.Now().UTC(), dataset.NextGameweek)
	if err != nil {
		return nil, fmt.Errorf("fixture resolution failed: %w", err)
	}
	p.logger.Infof("Preparing predictions for Gameweek %d", gameweek)

	engineer := features.NewEngineer(p.opts.HomeAdvantage)
	rows := engineer.Build(dataset.Players, lookup)

	trainIdx := features.TrainingIndices(rows, p.opts.MinTrainingMinutes, p.opts.MinTrainingPlayers)
	if len(trainIdx) == 0 {
		return nil, fmt.Errorf("no players eligible for training")
	}

	trainFeatures := make([][]float64, len(trainIdx))
	trainLabels := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainFeatures[i] = features.Vector(rows[idx])
		trainLabels[i] = features.Target(rows[idx], p.opts.PredictionTarget)
	}

	forest, metrics, err := model.Train(trainFeatures, trainLabels, p.opts.Model)
	if err != nil {
		return nil, fmt.Errorf("model training failed: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"train_size": metrics.TrainSize,
		"test_size":  metrics.TestSize,
		"test_mae":   metrics.TestMAE,
	}).Info("Model trained")
	p.logImportances(forest)

	// Every player gets scored on the same feature schema, not just the
	// training subset.
	predictions := forest.PredictAll(features.Matrix(rows))

	records := make([]artifact.Record, len(rows))
	for i, row := range rows {
		predicted := predictions[i] * p.opts.PredictionDamping / p.opts.PointsScale
		if row.ChanceThisRound == 0 {
			predicted = 0
		}
		records[i] = toRecord(row, predicted)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PredictedPoints > records[j].PredictedPoints
	})

	exportedAt := time.Now().UTC()
	path, err := p.store.Write(gameweek, records, exportedAt)
	if err != nil {
		return nil, fmt.Errorf("artifact export failed: %w", err)
	}

	result := &Result{
		RunID:         runID,
		Gameweek:      gameweek,
		PlayersScored: len(records),
		ArtifactPath:  path,
		Metrics:       metrics,
		Duration:      time.Since(started),
	}

	p.recordRun(result)

	p.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"gameweek": gameweek,
		"players":  len(records),
		"duration": result.Duration.Round(time.Millisecond),
	}).Info("Prediction run completed")

	return result, nil
}

func (p *Pipeline) logImportances(forest *model.Forest) {
	importances := forest.FeatureImportances()
	type ranked struct {
		name  string
		share float64
	}
	top := make([]ranked, len(importances))
	for i, share := range importances {
		top[i] = ranked{name: features.FeatureNames[i], share: share}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].share > top[j].share })

	n := 5
	if len(top) < n {
		n = len(top)
	}
	fields := logrus.Fields{}
	for _, r := range top[:n] {
		fields[r.name] = fmt.Sprintf("%.3f", r.share)
	}
	p.logger.WithFields(fields).Info("Top feature importances")
}

// recordRun writes run history, best effort: a run that produced an
// artifact is not failed over diagnostics.
func (p *Pipeline) recordRun(result *Result) {
	if p.db == nil {
		return
	}
	run := models.PredictionRun{
		ID:            result.RunID,
		Gameweek:      result.Gameweek,
		PlayersScored: result.PlayersScored,
		TrainingSize:  result.Metrics.TrainSize,
		TestSize:      result.Metrics.TestSize,
		TestMAE:       result.Metrics.TestMAE,
		DurationMS:    result.Duration.Milliseconds(),
		ArtifactFile:  result.ArtifactPath,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.db.Create(&run).Error; err != nil {
		p.logger.Warnf("Failed to record run history: %v", err)
	}
}

func toRecord(row features.Row, predicted float64) artifact.Record {
	return artifact.Record{
		Name:               row.Name,
		Team:               row.Team,
		Position:           row.Position,
		Fixture:            row.FixtureString,
		PredictedPoints:    predicted,
		NowCost:            row.NowCost / 10, // tenths of a million -> millions
		PointsPerGame:      row.PointsPerGame,
		Form:               row.Form,
		ExpectedGoals:      row.ExpectedGoals,
		Minutes:            row.Minutes,
		Assists:            row.Assists,
		GoalsScored:        row.GoalsScored,
		YellowCards:        row.YellowCards,
		RedCards:           row.RedCards,
		SavesPer90:         row.SavesPer90,
		TotalPoints:        row.TotalPoints,
		CleanSheets:        row.CleanSheets,
		OpponentDifficulty: row.OpponentDifficulty,
		IsHome:             row.IsHome,
		ChanceThisRound:    row.ChanceThisRound,
	}
}
