package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-predictor/internal/fixtures"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
)

func TestDifficultyAdjustmentHomeAdvantage(t *testing.T) {
	engineer := NewEngineer(1.1)

	lookup := map[string]fixtures.Info{
		"HomeTeam": {Opponent: "Rivals", IsHome: true, Difficulty: 3, FixtureString: "HomeTeam (H) vs Rivals"},
		"AwayTeam": {Opponent: "Rivals", IsHome: false, Difficulty: 3, FixtureString: "AwayTeam (A) vs Rivals"},
	}
	players := []fpl.Player{
		{Name: "Home Player", Team: "HomeTeam"},
		{Name: "Away Player", Team: "AwayTeam"},
	}

	rows := engineer.Build(players, lookup)
	require.Len(t, rows, 2)

	// (6 - 3) / 10 = 0.3 away, scaled by 1.1 at home
	assert.InDelta(t, 0.33, rows[0].DifficultyAdjustment, 1e-9)
	assert.InDelta(t, 0.30, rows[1].DifficultyAdjustment, 1e-9)
	assert.InDelta(t, rows[1].DifficultyAdjustment*1.1, rows[0].DifficultyAdjustment, 1e-9)
}

func TestFormNormalization(t *testing.T) {
	engineer := NewEngineer(1.1)

	rows := engineer.Build([]fpl.Player{
		{Name: "A", Form: 8},
		{Name: "B", Form: 4},
		{Name: "C", Form: 0},
	}, nil)

	assert.Equal(t, 1.0, rows[0].FormNormalized)
	assert.Equal(t, 0.5, rows[1].FormNormalized)
	assert.Equal(t, 0.0, rows[2].FormNormalized)

	for _, r := range rows {
		assert.GreaterOrEqual(t, r.FormNormalized, 0.0)
		assert.LessOrEqual(t, r.FormNormalized, 1.0)
	}
}

func TestFormNormalizationAllZero(t *testing.T) {
	engineer := NewEngineer(1.1)

	rows := engineer.Build([]fpl.Player{{Name: "A"}, {Name: "B"}}, nil)
	for _, r := range rows {
		assert.Equal(t, 0.0, r.FormNormalized)
	}
}

func TestPer90Rates(t *testing.T) {
	engineer := NewEngineer(1.1)

	rows := engineer.Build([]fpl.Player{
		{Name: "Starter", Minutes: 900, GoalsScored: 10, Assists: 5, Bonus: 9},
		{Name: "Unused", Minutes: 0, GoalsScored: 0, Assists: 0, Bonus: 0},
	}, nil)

	assert.InDelta(t, 1.0, rows[0].GoalsPer90, 1e-9)
	assert.InDelta(t, 0.5, rows[0].AssistsPer90, 1e-9)
	assert.InDelta(t, 0.9, rows[0].BonusPer90, 1e-9)

	// Zero minutes must not divide by zero.
	assert.Equal(t, 0.0, rows[1].GoalsPer90)
}

func TestDerivedIndicators(t *testing.T) {
	engineer := NewEngineer(1.1)

	rows := engineer.Build([]fpl.Player{
		{Name: "Premium", NowCost: 150, PointsPerGame: 6, Minutes: 900, Form: 9},
		{Name: "Freebie", NowCost: 0, PointsPerGame: 2, Minutes: 90, Form: 0},
		{Name: "Blank", NowCost: 40},
	}, nil)

	// value = ppg / cost in millions, floored at 0.1
	assert.InDelta(t, 6.0/15.0, rows[0].ValueIndicator, 1e-9)
	assert.InDelta(t, 2.0/0.1, rows[1].ValueIndicator, 1e-9)

	assert.Equal(t, 1.0, rows[0].MinutesReliability)
	assert.InDelta(t, 0.2, rows[1].MinutesReliability, 1e-9)

	assert.InDelta(t, 1/(1+0.6), rows[0].ConsistencyScore, 1e-9)
	assert.Equal(t, 1.0, rows[2].ConsistencyScore)

	// trend = (form - ppg) / ppg when ppg positive, else 0
	assert.InDelta(t, (9.0-6.0)/6.0, rows[0].RecentFormTrend, 1e-9)
	assert.Equal(t, 0.0, rows[2].RecentFormTrend)
}

func TestVectorMatchesSchema(t *testing.T) {
	engineer := NewEngineer(1.1)
	rows := engineer.Build([]fpl.Player{{Name: "A", Team: "X"}}, map[string]fixtures.Info{
		"X": {Opponent: "Y", IsHome: true, Difficulty: 2},
	})

	vec := Vector(rows[0])
	require.Len(t, vec, len(FeatureNames))

	// is_home is encoded 0/1 at its schema position.
	for i, name := range FeatureNames {
		if name == "is_home" {
			assert.Equal(t, 1.0, vec[i])
		}
	}
}

func TestTrainingIndices(t *testing.T) {
	rows := make([]Row, 0, 6)
	for _, minutes := range []float64{0, 30, 45, 90, 500, 0} {
		rows = append(rows, Row{Player: fpl.Player{Minutes: minutes}})
	}

	t.Run("threshold applies when enough players", func(t *testing.T) {
		idx := TrainingIndices(rows, 45, 2)
		assert.Equal(t, []int{2, 3, 4}, idx)
	})

	t.Run("falls back to any minutes when too few remain", func(t *testing.T) {
		idx := TrainingIndices(rows, 45, 100)
		assert.Equal(t, []int{1, 2, 3, 4}, idx)
	})
}

func TestTargetSelection(t *testing.T) {
	row := Row{Player: fpl.Player{PointsPerGame: 4.5, TotalPoints: 120}}

	assert.Equal(t, 4.5, Target(row, "points_per_game"))
	assert.Equal(t, 120.0, Target(row, "total_points"))
}
