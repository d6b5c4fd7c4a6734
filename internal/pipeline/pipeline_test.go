package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/model"
)

type fakeSource struct {
	dataset *fpl.Dataset
	err     error
}

func (f *fakeSource) Fetch(ctx context.Context) (*fpl.Dataset, error) {
	return f.dataset, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testOptions() Options {
	return Options{
		HomeAdvantage:      1.1,
		PredictionDamping:  0.6,
		PointsScale:        10,
		MinTrainingMinutes: 45,
		MinTrainingPlayers: 5,
		PredictionTarget:   "points_per_game",
		Model: model.Config{
			TreeCount: 10,
			MaxDepth:  6,
			TestSplit: 0.2,
			Seed:      42,
		},
	}
}

func testDataset() *fpl.Dataset {
	players := make([]fpl.Player, 0, 40)
	for i := 0; i < 40; i++ {
		team := "Arsenal"
		if i%2 == 0 {
			team = "Chelsea"
		}
		players = append(players, fpl.Player{
			Name:            fmt.Sprintf("Player %02d", i),
			Team:            team,
			Position:        "MID",
			NowCost:         50 + float64(i),
			Minutes:         90 + float64(i*10),
			GoalsScored:     float64(i % 5),
			Assists:         float64(i % 3),
			Form:            float64(i%10) / 2,
			PointsPerGame:   float64(i%8) + 1,
			TotalPoints:     float64(i * 3),
			ChanceThisRound: 100,
			ChanceNextRound: 100,
		})
	}

	// One flagged-out player must come back with zero predicted points.
	players[0].Name = "Injured Player"
	players[0].ChanceThisRound = 0

	return &fpl.Dataset{
		Players: players,
		Fixtures: []fpl.Fixture{
			{Gameweek: 5, Kickoff: time.Now().Add(48 * time.Hour), Home: "Arsenal", Away: "Chelsea"},
		},
		Difficulty:   map[string]float64{"Arsenal": 4, "Chelsea": 3},
		NextGameweek: 5,
		FetchedAt:    time.Now(),
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewStore(dir)
	pipe := New(&fakeSource{dataset: testDataset()}, store, nil, quietLogger(), testOptions())

	result, err := pipe.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 5, result.Gameweek)
	assert.Equal(t, 40, result.PlayersScored)
	assert.Equal(t, filepath.Join(dir, "gameweek_5_predictions.csv"), result.ArtifactPath)
	assert.Equal(t, 32, result.Metrics.TrainSize)
	assert.Equal(t, 8, result.Metrics.TestSize)

	table, err := store.Latest()
	require.NoError(t, err)
	require.Len(t, table.Records, 40)

	// Ranked by predicted points, highest first.
	for i := 1; i < len(table.Records); i++ {
		assert.GreaterOrEqual(t, table.Records[i-1].PredictedPoints, table.Records[i].PredictedPoints)
	}

	// Costs are exported in millions, fixtures joined for both sides.
	for _, r := range table.Records {
		assert.Less(t, r.NowCost, 10.0)
		assert.NotEmpty(t, r.Fixture)
	}
}

func TestRunZeroesFlaggedPlayers(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	pipe := New(&fakeSource{dataset: testDataset()}, store, nil, quietLogger(), testOptions())

	_, err := pipe.Run(context.Background())
	require.NoError(t, err)

	table, err := store.Latest()
	require.NoError(t, err)

	var found bool
	for _, r := range table.Records {
		if r.Name == "Injured Player" {
			found = true
			assert.Equal(t, 0.0, r.PredictedPoints)
		}
	}
	assert.True(t, found)
}

func TestRunIsReproducible(t *testing.T) {
	first := artifact.NewStore(t.TempDir())
	second := artifact.NewStore(t.TempDir())

	_, err := New(&fakeSource{dataset: testDataset()}, first, nil, quietLogger(), testOptions()).Run(context.Background())
	require.NoError(t, err)
	_, err = New(&fakeSource{dataset: testDataset()}, second, nil, quietLogger(), testOptions()).Run(context.Background())
	require.NoError(t, err)

	a, err := first.Latest()
	require.NoError(t, err)
	b, err := second.Latest()
	require.NoError(t, err)

	require.Equal(t, len(a.Records), len(b.Records))
	for i := range a.Records {
		assert.Equal(t, a.Records[i].Name, b.Records[i].Name)
		assert.Equal(t, a.Records[i].PredictedPoints, b.Records[i].PredictedPoints)
	}
}

func TestRunFailures(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	opts := testOptions()

	t.Run("source error aborts the run", func(t *testing.T) {
		pipe := New(&fakeSource{err: errors.New("api down")}, store, nil, quietLogger(), opts)
		_, err := pipe.Run(context.Background())
		assert.ErrorContains(t, err, "data acquisition failed")
	})

	t.Run("empty player table aborts the run", func(t *testing.T) {
		pipe := New(&fakeSource{dataset: &fpl.Dataset{}}, store, nil, quietLogger(), opts)
		_, err := pipe.Run(context.Background())
		assert.ErrorContains(t, err, "no players")
	})

	t.Run("no resolvable fixtures aborts the run", func(t *testing.T) {
		dataset := testDataset()
		dataset.Fixtures = nil
		dataset.NextGameweek = 0
		pipe := New(&fakeSource{dataset: dataset}, store, nil, quietLogger(), opts)
		_, err := pipe.Run(context.Background())
		assert.ErrorContains(t, err, "fixture resolution failed")
	})
}
