package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, "live", cfg.DataSource)
	assert.Equal(t, "https://fantasy.premierleague.com/api", cfg.FPLBaseURL)
	assert.Equal(t, 30, cfg.FPLRateLimit)

	assert.Equal(t, 1.1, cfg.HomeAdvantage)
	assert.Equal(t, 0.6, cfg.PredictionDamping)
	assert.Equal(t, 10.0, cfg.PointsScale)
	assert.Equal(t, "points_per_game", cfg.PredictionTarget)
	assert.Equal(t, 100, cfg.TreeCount)
	assert.Equal(t, int64(42), cfg.RandomSeed)

	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CorsOrigins)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DATA_SOURCE", "static")
	t.Setenv("PREDICTION_TARGET", "total_points")
	t.Setenv("TREE_COUNT", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "static", cfg.DataSource)
	assert.Equal(t, "total_points", cfg.PredictionTarget)
	assert.Equal(t, 25, cfg.TreeCount)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("bad data source", func(t *testing.T) {
		t.Setenv("DATA_SOURCE", "scraper")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "DATA_SOURCE")
	})

	t.Run("bad prediction target", func(t *testing.T) {
		t.Setenv("PREDICTION_TARGET", "goals")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "PREDICTION_TARGET")
	})
}
