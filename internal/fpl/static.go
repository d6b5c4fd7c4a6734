package fpl

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// StaticSource loads the pipeline inputs from a directory of CSV files
// (players.csv, fixtures.csv, difficulty.csv), matching the layout of the
// published season dataset. Useful for offline runs and tests.
type StaticSource struct {
	dir    string
	logger *logrus.Logger
}

func NewStaticSource(dir string, logger *logrus.Logger) *StaticSource {
	return &StaticSource{dir: dir, logger: logger}
}

func (s *StaticSource) Fetch(ctx context.Context) (*Dataset, error) {
	players, err := s.loadPlayers(filepath.Join(s.dir, "players.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	fixtures, err := s.loadFixtures(filepath.Join(s.dir, "fixtures.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	difficulty, err := s.loadDifficulty(filepath.Join(s.dir, "difficulty.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to load difficulty ratings: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"players":  len(players),
		"fixtures": len(fixtures),
		"teams":    len(difficulty),
	}).Info("Loaded static dataset")

	return &Dataset{
		Players:    players,
		Fixtures:   fixtures,
		Difficulty: difficulty,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// csvTable reads a CSV file into header-indexed rows.
type csvTable struct {
	index map[string]int
	rows  [][]string
}

func readTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}
	return &csvTable{index: index, rows: records[1:]}, nil
}

func (t *csvTable) str(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// num parses a numeric cell; missing or unparseable values become 0.
func (t *csvTable) num(row []string, column string) float64 {
	v, err := strconv.ParseFloat(t.str(row, column), 64)
	if err != nil {
		return 0
	}
	return v
}

func (s *StaticSource) loadPlayers(path string) ([]Player, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	players := make([]Player, 0, len(table.rows))
	for _, row := range table.rows {
		players = append(players, Player{
			Name:     table.str(row, "name"),
			Team:     table.str(row, "team"),
			Position: table.str(row, "position"),

			NowCost:        table.num(row, "now_cost"),
			Minutes:        table.num(row, "minutes"),
			GoalsScored:    table.num(row, "goals_scored"),
			Assists:        table.num(row, "assists"),
			YellowCards:    table.num(row, "yellow_cards"),
			RedCards:       table.num(row, "red_cards"),
			Bonus:          table.num(row, "bonus"),
			Saves:          table.num(row, "saves"),
			SavesPer90:     table.num(row, "saves_per_90"),
			CleanSheets:    table.num(row, "clean_sheets"),
			CleanSheetsP90: table.num(row, "clean_sheets_per_90"),

			Form:          table.num(row, "form"),
			PointsPerGame: table.num(row, "points_per_game"),
			TotalPoints:   table.num(row, "total_points"),
			ExpectedGoals: table.num(row, "expected_goals"),

			InfluenceRank: table.num(row, "influence_rank"),
			ThreatRank:    table.num(row, "threat_rank_type"),

			ChanceThisRound: table.num(row, "chance_of_playing_this_round"),
			ChanceNextRound: table.num(row, "chance_of_playing_next_round"),
		})
	}
	return players, nil
}

func (s *StaticSource) loadFixtures(path string) ([]Fixture, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	fixtures := make([]Fixture, 0, len(table.rows))
	for _, row := range table.rows {
		fx := Fixture{
			Gameweek: int(table.num(row, "week")),
			Home:     table.str(row, "home"),
			Away:     table.str(row, "away"),
		}
		if date := table.str(row, "date"); date != "" {
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, date); err == nil {
					fx.Kickoff = t
					break
				}
			}
		}
		// The season dataset has no finished flag; fixtures already
		// played are in the past relative to the reference date.
		fx.Finished = table.str(row, "finished") == "True" || table.str(row, "finished") == "true"
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

func (s *StaticSource) loadDifficulty(path string) (map[string]float64, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	difficulty := make(map[string]float64, len(table.rows))
	for _, row := range table.rows {
		team := table.str(row, "Team")
		if team == "" {
			continue
		}
		difficulty[team] = table.num(row, "Fixture Difficulty Rating")
	}
	return difficulty, nil
}
