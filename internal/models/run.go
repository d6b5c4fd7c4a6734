package models

import (
	"time"
)

// PredictionRun is one row of run history: a diagnostic record of a
// completed pipeline run. Kept only when a database is configured.
type PredictionRun struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Gameweek      int       `gorm:"index" json:"gameweek"`
	PlayersScored int       `json:"players_scored"`
	TrainingSize  int       `json:"training_size"`
	TestSize      int       `json:"test_size"`
	TestMAE       float64   `json:"test_mae"`
	DurationMS    int64     `json:"duration_ms"`
	ArtifactFile  string    `json:"artifact_file"`
	CreatedAt     time.Time `json:"created_at"`
}
