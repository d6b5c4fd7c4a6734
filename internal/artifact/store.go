package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoArtifact means no prediction file exists in the output directory.
var ErrNoArtifact = errors.New("no prediction artifact found")

// Record is one exported prediction row. Field order here matches the CSV
// column order; the JSON tags are the serving-layer contract.
type Record struct {
	Name               string  `json:"name"`
	Team               string  `json:"team"`
	Position           string  `json:"position"`
	Fixture            string  `json:"fixture"`
	PredictedPoints    float64 `json:"predicted_points"`
	NowCost            float64 `json:"now_cost"`
	PointsPerGame      float64 `json:"points_per_game"`
	Form               float64 `json:"form"`
	ExpectedGoals      float64 `json:"expected_goals"`
	Minutes            float64 `json:"minutes"`
	Assists            float64 `json:"assists"`
	GoalsScored        float64 `json:"goals_scored"`
	YellowCards        float64 `json:"yellow_cards"`
	RedCards           float64 `json:"red_cards"`
	SavesPer90         float64 `json:"saves_per_90"`
	TotalPoints        float64 `json:"total_points"`
	CleanSheets        float64 `json:"clean_sheets"`
	OpponentDifficulty float64 `json:"opponent_difficulty"`
	IsHome             bool    `json:"is_home"`
	ChanceThisRound    float64 `json:"chance_of_playing_this_round"`

	// Filled at serve time from the live API; never part of the CSV.
	PlayerCode int    `json:"player_code"`
	ImageURL   string `json:"image_url,omitempty"`
}

var columns = []string{
	"name", "team", "position", "fixture", "predicted_points",
	"now_cost", "points_per_game", "form", "expected_goals",
	"minutes", "assists", "goals_scored", "yellow_cards",
	"red_cards", "saves_per_90", "total_points", "clean_sheets",
	"opponent_difficulty", "is_home", "chance_of_playing_this_round",
}

// Columns returns the artifact column list in CSV order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Table is a parsed prediction artifact.
type Table struct {
	Gameweek    int
	FileName    string
	Records     []Record
	LastUpdated string
}

// Store reads and writes gameweek prediction artifacts in a single
// configured directory. Downstream readers find "the latest" file by the
// gameweek number embedded in the name.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func fileName(gameweek int) string {
	return fmt.Sprintf("gameweek_%d_predictions.csv", gameweek)
}

var filePattern = regexp.MustCompile(`^gameweek_(\d+)_predictions\.csv$`)

// Write exports the ranked records for a gameweek and stamps
// last_updated.txt alongside.
func (s *Store) Write(gameweek int, records []Record, updatedAt time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.dir, fileName(gameweek))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, r := range records {
		if err := w.Write(encodeRecord(r)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	stamp := updatedAt.UTC().Format(time.RFC3339)
	stampPath := filepath.Join(s.dir, "last_updated.txt")
	if err := os.WriteFile(stampPath, []byte(stamp+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write last_updated: %w", err)
	}

	return path, nil
}

// Latest parses the artifact with the highest gameweek number.
func (s *Store) Latest() (*Table, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoArtifact
		}
		return nil, err
	}

	best := -1
	bestName := ""
	for _, entry := range entries {
		m := filePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		gw, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if gw > best {
			best = gw
			bestName = entry.Name()
		}
	}
	if best < 0 {
		return nil, ErrNoArtifact
	}

	records, err := s.read(filepath.Join(s.dir, bestName))
	if err != nil {
		return nil, err
	}

	return &Table{
		Gameweek:    best,
		FileName:    bestName,
		Records:     records,
		LastUpdated: s.LastUpdated(),
	}, nil
}

// LastUpdated returns the export timestamp, or "Unknown" when the stamp
// file is missing.
func (s *Store) LastUpdated() string {
	data, err := os.ReadFile(filepath.Join(s.dir, "last_updated.txt"))
	if err != nil {
		return "Unknown"
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("artifact %s is empty", filepath.Base(path))
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	num := func(row []string, column string) float64 {
		v, err := strconv.ParseFloat(cell(row, column), 64)
		if err != nil {
			return 0
		}
		return v
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, Record{
			Name:               cell(row, "name"),
			Team:               cell(row, "team"),
			Position:           cell(row, "position"),
			Fixture:            cell(row, "fixture"),
			PredictedPoints:    num(row, "predicted_points"),
			NowCost:            num(row, "now_cost"),
			PointsPerGame:      num(row, "points_per_game"),
			Form:               num(row, "form"),
			ExpectedGoals:      num(row, "expected_goals"),
			Minutes:            num(row, "minutes"),
			Assists:            num(row, "assists"),
			GoalsScored:        num(row, "goals_scored"),
			YellowCards:        num(row, "yellow_cards"),
			RedCards:           num(row, "red_cards"),
			SavesPer90:         num(row, "saves_per_90"),
			TotalPoints:        num(row, "total_points"),
			CleanSheets:        num(row, "clean_sheets"),
			OpponentDifficulty: num(row, "opponent_difficulty"),
			IsHome:             parseBool(cell(row, "is_home")),
			ChanceThisRound:    num(row, "chance_of_playing_this_round"),
		})
	}
	return records, nil
}

func encodeRecord(r Record) []string {
	return []string{
		r.Name, r.Team, r.Position, r.Fixture,
		formatFloat(r.PredictedPoints),
		formatFloat(r.NowCost),
		formatFloat(r.PointsPerGame),
		formatFloat(r.Form),
		formatFloat(r.ExpectedGoals),
		formatFloat(r.Minutes),
		formatFloat(r.Assists),
		formatFloat(r.GoalsScored),
		formatFloat(r.YellowCards),
		formatFloat(r.RedCards),
		formatFloat(r.SavesPer90),
		formatFloat(r.TotalPoints),
		formatFloat(r.CleanSheets),
		formatFloat(r.OpponentDifficulty),
		formatBool(r.IsHome),
		formatFloat(r.ChanceThisRound),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatBool writes True/False, the form earlier season exports used.
func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1":
		return true
	}
	return false
}
