package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/artifact"
	"github.com/jstittsworth/fpl-predictor/internal/fpl"
	"github.com/jstittsworth/fpl-predictor/internal/services"
	"github.com/jstittsworth/fpl-predictor/pkg/utils"
)

// ImageResolver maps player names to the element codes behind the
// official player photo URLs. Best effort: a failed lookup just means no
// images on this response.
type ImageResolver interface {
	PlayerCodes(ctx context.Context) (map[string]int, error)
}

// PredictionsHandler serves the latest prediction artifact with optional
// filter and sort query parameters. Each request re-reads the artifact
// (through a short-lived cache); the handler holds no mutable state.
type PredictionsHandler struct {
	store  *artifact.Store
	cache  fpl.CacheProvider // nil disables caching
	images ImageResolver     // nil disables image enrichment
	logger *logrus.Logger
}

func NewPredictionsHandler(store *artifact.Store, cache fpl.CacheProvider, images ImageResolver, logger *logrus.Logger) *PredictionsHandler {
	return &PredictionsHandler{
		store:  store,
		cache:  cache,
		images: images,
		logger: logger,
	}
}

// numericSortColumns are the sort_by values compared numerically; any
// other known column compares as a string.
var numericSortColumns = map[string]func(artifact.Record) float64{
	"predicted_points":             func(r artifact.Record) float64 { return r.PredictedPoints },
	"now_cost":                     func(r artifact.Record) float64 { return r.NowCost },
	"points_per_game":              func(r artifact.Record) float64 { return r.PointsPerGame },
	"form":                         func(r artifact.Record) float64 { return r.Form },
	"total_points":                 func(r artifact.Record) float64 { return r.TotalPoints },
	"expected_goals":               func(r artifact.Record) float64 { return r.ExpectedGoals },
	"minutes":                      func(r artifact.Record) float64 { return r.Minutes },
	"assists":                      func(r artifact.Record) float64 { return r.Assists },
	"goals_scored":                 func(r artifact.Record) float64 { return r.GoalsScored },
	"yellow_cards":                 func(r artifact.Record) float64 { return r.YellowCards },
	"red_cards":                    func(r artifact.Record) float64 { return r.RedCards },
	"saves_per_90":                 func(r artifact.Record) float64 { return r.SavesPer90 },
	"clean_sheets":                 func(r artifact.Record) float64 { return r.CleanSheets },
	"opponent_difficulty":          func(r artifact.Record) float64 { return r.OpponentDifficulty },
	"chance_of_playing_this_round": func(r artifact.Record) float64 { return r.ChanceThisRound },
}

var stringSortColumns = map[string]func(artifact.Record) string{
	"name":     func(r artifact.Record) string { return r.Name },
	"team":     func(r artifact.Record) string { return r.Team },
	"position": func(r artifact.Record) string { return r.Position },
	"fixture":  func(r artifact.Record) string { return r.Fixture },
}

// GetPredictions handles GET /api/predictions.
func (h *PredictionsHandler) GetPredictions(c *gin.Context) {
	table, err := h.loadTable()
	if err != nil {
		utils.SendInternalError(c, "Failed to read prediction data")
		return
	}

	team := strings.TrimSpace(c.Query("team"))
	position := strings.TrimSpace(c.Query("position"))
	search := strings.TrimSpace(c.Query("search"))
	sortBy := c.DefaultQuery("sort_by", "predicted_points")
	sortOrder := c.DefaultQuery("sort_order", "desc")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	filtered := filterRecords(table.Records, team, position, search)
	sortRecords(filtered, sortBy, sortOrder)

	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}

	filtered = h.attachImages(c.Request.Context(), filtered)

	c.JSON(http.StatusOK, gin.H{
		"gameweek":         table.Gameweek,
		"csv_file":         table.FileName,
		"total_players":    len(table.Records),
		"filtered_players": len(filtered),
		"last_updated":     table.LastUpdated,
		"players":          filtered,
	})
}

// GetTeams handles GET /api/teams: the sorted distinct team list.
func (h *PredictionsHandler) GetTeams(c *gin.Context) {
	table, err := h.loadTable()
	if err != nil {
		utils.SendInternalError(c, "Failed to read prediction data")
		return
	}

	seen := make(map[string]bool)
	teams := make([]string, 0, 20)
	for _, r := range table.Records {
		if r.Team == "" || seen[r.Team] {
			continue
		}
		seen[r.Team] = true
		teams = append(teams, r.Team)
	}
	sort.Strings(teams)

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// GetStats handles GET /api/stats: aggregate figures over the latest
// artifact.
func (h *PredictionsHandler) GetStats(c *gin.Context) {
	table, err := h.loadTable()
	if err != nil {
		utils.SendInternalError(c, "Failed to read prediction data")
		return
	}

	var sum, max float64
	positions := make(map[string]int)
	teams := make(map[string]bool)
	for _, r := range table.Records {
		sum += r.PredictedPoints
		if r.PredictedPoints > max {
			max = r.PredictedPoints
		}
		positions[r.Position]++
		teams[r.Team] = true
	}

	avg := 0.0
	if len(table.Records) > 0 {
		avg = sum / float64(len(table.Records))
	}

	c.JSON(http.StatusOK, gin.H{
		"gameweek":             table.Gameweek,
		"total_players":        len(table.Records),
		"avg_predicted_points": avg,
		"max_predicted_points": max,
		"positions":            positions,
		"teams":                len(teams),
		"columns":              artifact.Columns(),
		"last_updated":         table.LastUpdated,
	})
}

// loadTable returns the latest artifact, via the cache when possible,
// falling back to the fixed sample payload when none exists yet.
func (h *PredictionsHandler) loadTable() (*artifact.Table, error) {
	cacheKey := services.LatestTableCacheKey()

	if h.cache != nil {
		var cached artifact.Table
		if err := h.cache.GetSimple(cacheKey, &cached); err == nil && len(cached.Records) > 0 {
			return &cached, nil
		}
	}

	table, err := h.store.Latest()
	if err != nil {
		if errors.Is(err, artifact.ErrNoArtifact) {
			// Callers always get a well-formed response.
			return artifact.SampleTable(), nil
		}
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetSimple(cacheKey, table, 5*time.Minute); err != nil {
			h.logger.Warnf("Failed to cache prediction table: %v", err)
		}
	}
	return table, nil
}

func (h *PredictionsHandler) attachImages(ctx context.Context, records []artifact.Record) []artifact.Record {
	if h.images == nil || len(records) == 0 {
		return records
	}

	codes := h.playerCodes(ctx)
	if codes == nil {
		return records
	}

	for i := range records {
		code, ok := codes[records[i].Name]
		if !ok {
			continue
		}
		records[i].PlayerCode = code
		records[i].ImageURL = fmt.Sprintf("https://resources.premierleague.com/premierleague/photos/players/110x140/p%d.png", code)
	}
	return records
}

func (h *PredictionsHandler) playerCodes(ctx context.Context) map[string]int {
	cacheKey := services.PlayerCodesCacheKey()

	if h.cache != nil {
		var cached map[string]int
		if err := h.cache.GetSimple(cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached
		}
	}

	codes, err := h.images.PlayerCodes(ctx)
	if err != nil {
		h.logger.Warnf("Failed to fetch player codes: %v", err)
		return nil
	}

	if h.cache != nil {
		h.cache.SetSimple(cacheKey, codes, time.Hour)
	}
	return codes
}

func filterRecords(records []artifact.Record, team, position, search string) []artifact.Record {
	out := make([]artifact.Record, 0, len(records))
	for _, r := range records {
		if team != "" && !strings.Contains(strings.ToLower(r.Team), strings.ToLower(team)) {
			continue
		}
		if position != "" && r.Position != position {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRecords orders by a known column; unknown columns leave the
// artifact's ranking untouched. Stable so ties keep their ranked order.
func sortRecords(records []artifact.Record, sortBy, sortOrder string) {
	ascending := sortOrder == "asc"

	if key, ok := numericSortColumns[sortBy]; ok {
		sort.SliceStable(records, func(i, j int) bool {
			if ascending {
				return key(records[i]) < key(records[j])
			}
			return key(records[i]) > key(records[j])
		})
		return
	}

	if key, ok := stringSortColumns[sortBy]; ok {
		sort.SliceStable(records, func(i, j int) bool {
			if ascending {
				return key(records[i]) < key(records[j])
			}
			return key(records[i]) > key(records[j])
		})
	}
}
