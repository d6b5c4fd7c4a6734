package features

import (
	"math"

	"github.com/jstittsworth/fpl-predictor/internal/fixtures"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
)

// Row is a player with the fixture join and every derived column applied.
type Row struct {
	fpl.Player

	Opponent           string  `json:"opponent"`
	IsHome             bool    `json:"is_home"`
	OpponentDifficulty float64 `json:"opponent_difficulty"`
	FixtureString      string  `json:"fixture"`

	DifficultyAdjustment float64 `json:"difficulty_adjustment"`
	FormNormalized       float64 `json:"form_normalized"`
	GoalsPer90           float64 `json:"goals_per_90"`
	AssistsPer90         float64 `json:"assists_per_90"`
	BonusPer90           float64 `json:"bonus_per_90"`
	ValueIndicator       float64 `json:"value_indicator"`
	MinutesReliability   float64 `json:"minutes_reliability"`
	ConsistencyScore     float64 `json:"consistency_score"`
	RecentFormTrend      float64 `json:"recent_form_trend"`

	PredictedPoints float64 `json:"predicted_points"`
}

// Engineer derives the model features from the raw player table and the
// resolved fixture lookup.
type Engineer struct {
	homeAdvantage float64
}

func NewEngineer(homeAdvantage float64) *Engineer {
	return &Engineer{homeAdvantage: homeAdvantage}
}

// Build joins fixture info onto every player and computes the derived
// columns. Players whose team has no fixture this gameweek keep zero
// difficulty and an empty fixture string, mirroring a missed join.
func (e *Engineer) Build(players []fpl.Player, lookup map[string]fixtures.Info) []Row {
	maxForm := 0.0
	for _, p := range players {
		if p.Form > maxForm {
			maxForm = p.Form
		}
	}

	rows := make([]Row, 0, len(players))
	for _, p := range players {
		row := Row{Player: p}

		if info, ok := lookup[p.Team]; ok {
			row.Opponent = info.Opponent
			row.IsHome = info.IsHome
			row.OpponentDifficulty = info.Difficulty
			row.FixtureString = info.FixtureString
		}

		row.DifficultyAdjustment = (6 - row.OpponentDifficulty) / 10
		if row.IsHome {
			row.DifficultyAdjustment *= e.homeAdvantage
		}

		if maxForm > 0 {
			row.FormNormalized = p.Form / maxForm
		}

		playedMinutes := math.Max(p.Minutes, 1)
		row.GoalsPer90 = p.GoalsScored / playedMinutes * 90
		row.AssistsPer90 = p.Assists / playedMinutes * 90
		row.BonusPer90 = p.Bonus / playedMinutes * 90

		costMillions := p.NowCost / 10
		row.ValueIndicator = p.PointsPerGame / math.Max(costMillions, 0.1)

		row.MinutesReliability = math.Min(p.Minutes/450, 1.0)
		row.ConsistencyScore = 1 / (1 + p.PointsPerGame*0.1)

		if p.PointsPerGame > 0 {
			row.RecentFormTrend = (p.Form - p.PointsPerGame) / math.Max(p.PointsPerGame, 0.1)
		}

		rows = append(rows, row)
	}
	return rows
}

// FeatureNames is the fixed feature schema, in vector order. The training
// target (points per game or total points) is deliberately absent.
var FeatureNames = []string{
	"now_cost",
	"chance_of_playing_next_round",
	"bonus",
	"influence_rank",
	"threat_rank_type",
	"expected_goals",
	"clean_sheets_per_90",
	"form_normalized",
	"minutes",
	"assists",
	"goals_scored",
	"yellow_cards",
	"red_cards",
	"saves_per_90",
	"opponent_difficulty",
	"difficulty_adjustment",
	"is_home",
	"chance_of_playing_this_round",
	"goals_per_90",
	"assists_per_90",
	"bonus_per_90",
	"value_indicator",
	"minutes_reliability",
	"consistency_score",
	"recent_form_trend",
}

// Vector flattens a row into the feature schema.
func Vector(r Row) []float64 {
	isHome := 0.0
	if r.IsHome {
		isHome = 1.0
	}
	return []float64{
		r.NowCost,
		r.ChanceNextRound,
		r.Bonus,
		r.InfluenceRank,
		r.ThreatRank,
		r.ExpectedGoals,
		r.CleanSheetsP90,
		r.FormNormalized,
		r.Minutes,
		r.Assists,
		r.GoalsScored,
		r.YellowCards,
		r.RedCards,
		r.SavesPer90,
		r.OpponentDifficulty,
		r.DifficultyAdjustment,
		isHome,
		r.ChanceThisRound,
		r.GoalsPer90,
		r.AssistsPer90,
		r.BonusPer90,
		r.ValueIndicator,
		r.MinutesReliability,
		r.ConsistencyScore,
		r.RecentFormTrend,
	}
}

// Matrix builds the feature matrix for a set of rows.
func Matrix(rows []Row) [][]float64 {
	m := make([][]float64, len(rows))
	for i, r := range rows {
		m[i] = Vector(r)
	}
	return m
}

// Target returns the training label for a row.
func Target(r Row, target string) float64 {
	if target == "total_points" {
		return r.TotalPoints
	}
	return r.PointsPerGame
}

// TrainingIndices selects the rows the model trains on: players with at
// least minMinutes played. If that leaves fewer than minPlayers, any
// player with nonzero minutes qualifies instead. Prediction always runs
// over every row regardless.
func TrainingIndices(rows []Row, minMinutes float64, minPlayers int) []int {
	selected := make([]int, 0, len(rows))
	for i, r := range rows {
		if r.Minutes >= minMinutes {
			selected = append(selected, i)
		}
	}
	if len(selected) >= minPlayers {
		return selected
	}

	selected = selected[:0]
	for i, r := range rows {
		if r.Minutes > 0 {
			selected = append(selected, i)
		}
	}
	return selected
}
