package fpl

import (
	"context"
	"time"
)

// Player is one row of the player table as pulled from the data source.
// Numeric fields the source encodes as strings (form, points_per_game,
// expected_goals) are parsed leniently: anything unparseable becomes 0.
type Player struct {
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"` // GKP, DEF, MID, FWD
	Code     int    `json:"player_code,omitempty"`

	NowCost        float64 `json:"now_cost"`
	Minutes        float64 `json:"minutes"`
	GoalsScored    float64 `json:"goals_scored"`
	Assists        float64 `json:"assists"`
	YellowCards    float64 `json:"yellow_cards"`
	RedCards       float64 `json:"red_cards"`
	Bonus          float64 `json:"bonus"`
	Saves          float64 `json:"saves"`
	SavesPer90     float64 `json:"saves_per_90"`
	CleanSheets    float64 `json:"clean_sheets"`
	CleanSheetsP90 float64 `json:"clean_sheets_per_90"`

	Form          float64 `json:"form"`
	PointsPerGame float64 `json:"points_per_game"`
	TotalPoints   float64 `json:"total_points"`
	ExpectedGoals float64 `json:"expected_goals"`

	InfluenceRank float64 `json:"influence_rank"`
	ThreatRank    float64 `json:"threat_rank_type"`

	ChanceThisRound float64 `json:"chance_of_playing_this_round"`
	ChanceNextRound float64 `json:"chance_of_playing_next_round"`
}

// Fixture is a single scheduled match.
type Fixture struct {
	Gameweek int       `json:"gameweek"`
	Kickoff  time.Time `json:"kickoff"`
	Home     string    `json:"home"`
	Away     string    `json:"away"`
	Finished bool      `json:"finished"`
}

// Dataset bundles everything one pipeline run needs. Difficulty maps team
// name to its fixture difficulty rating (1-5). NextGameweek is a hint from
// the source (the live API flags the next event); 0 means unknown and the
// resolver falls back to the reference date.
type Dataset struct {
	Players      []Player
	Fixtures     []Fixture
	Difficulty   map[string]float64
	NextGameweek int
	FetchedAt    time.Time
}

// DataSource produces the tabular inputs for a pipeline run.
type DataSource interface {
	Fetch(ctx context.Context) (*Dataset, error)
}

// CacheProvider is the subset of the cache service the clients need.
type CacheProvider interface {
	SetSimple(key string, value interface{}, expiration time.Duration) error
	GetSimple(key string, dest interface{}) error
}
