package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-predictor/internal/fpl"
)

func TestResolveBuildsDirectedLookups(t *testing.T) {
	reference := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	kickoff := reference.Add(48 * time.Hour)

	all := []fpl.Fixture{
		{Gameweek: 22, Kickoff: kickoff, Home: "TeamA", Away: "TeamB"},
		{Gameweek: 22, Kickoff: kickoff.Add(2 * time.Hour), Home: "TeamD", Away: "TeamC"},
	}
	difficulty := map[string]float64{
		"TeamA": 5, "TeamB": 2, "TeamC": 3, "TeamD": 4,
	}

	lookup, gameweek, err := Resolve(all, difficulty, reference, 0)
	require.NoError(t, err)
	assert.Equal(t, 22, gameweek)
	require.Len(t, lookup, 4)

	a := lookup["TeamA"]
	assert.Equal(t, "TeamB", a.Opponent)
	assert.True(t, a.IsHome)
	assert.Equal(t, 2.0, a.Difficulty) // opponent's rating, not own
	assert.Equal(t, "TeamA (H) vs TeamB", a.FixtureString)

	b := lookup["TeamB"]
	assert.Equal(t, "TeamA", b.Opponent)
	assert.False(t, b.IsHome)
	assert.Equal(t, 5.0, b.Difficulty)
	assert.Equal(t, "TeamB (A) vs TeamA", b.FixtureString)

	c := lookup["TeamC"]
	assert.Equal(t, "TeamD", c.Opponent)
	assert.False(t, c.IsHome)

	d := lookup["TeamD"]
	assert.Equal(t, "TeamC", d.Opponent)
	assert.True(t, d.IsHome)
}

func TestResolvePicksEarliestUpcomingGameweek(t *testing.T) {
	reference := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)

	all := []fpl.Fixture{
		{Gameweek: 21, Kickoff: reference.Add(-72 * time.Hour), Home: "TeamA", Away: "TeamB", Finished: true},
		{Gameweek: 23, Kickoff: reference.Add(10 * 24 * time.Hour), Home: "TeamA", Away: "TeamB"},
		{Gameweek: 22, Kickoff: reference.Add(48 * time.Hour), Home: "TeamB", Away: "TeamA"},
	}

	_, gameweek, err := Resolve(all, map[string]float64{}, reference, 0)
	require.NoError(t, err)
	assert.Equal(t, 22, gameweek)
}

func TestResolveGameweekHintWins(t *testing.T) {
	reference := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)

	all := []fpl.Fixture{
		{Gameweek: 22, Kickoff: reference.Add(48 * time.Hour), Home: "TeamA", Away: "TeamB"},
		{Gameweek: 23, Kickoff: reference.Add(10 * 24 * time.Hour), Home: "TeamB", Away: "TeamA"},
	}

	_, gameweek, err := Resolve(all, map[string]float64{}, reference, 23)
	require.NoError(t, err)
	assert.Equal(t, 23, gameweek)
}

func TestResolveFallsBackToUnfinished(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// No kickoff dates at all; only the finished flag is available.
	all := []fpl.Fixture{
		{Gameweek: 1, Home: "TeamA", Away: "TeamB", Finished: true},
		{Gameweek: 2, Home: "TeamB", Away: "TeamA"},
		{Gameweek: 3, Home: "TeamA", Away: "TeamB"},
	}

	_, gameweek, err := Resolve(all, map[string]float64{}, reference, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, gameweek)
}

func TestResolveErrors(t *testing.T) {
	reference := time.Now().UTC()

	tests := []struct {
		name     string
		fixtures []fpl.Fixture
	}{
		{name: "no fixtures at all", fixtures: nil},
		{
			name: "everything finished",
			fixtures: []fpl.Fixture{
				{Gameweek: 38, Kickoff: reference.Add(-24 * time.Hour), Home: "TeamA", Away: "TeamB", Finished: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resolve(tt.fixtures, map[string]float64{}, reference, 0)
			assert.ErrorIs(t, err, ErrNoUpcomingFixtures)
		})
	}
}
