package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client pulls player, team, event and fixture data from the Fantasy
// Premier League API. Requests are rate limited and run behind a circuit
// breaker so a flapping upstream fails fast instead of hammering it.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	cache       CacheProvider
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL          string
	Timeout          time.Duration
	RequestsPerMin   int
	BreakerThreshold int
}

// NewClient creates an FPL API client.
func NewClient(opts ClientOptions, cache CacheProvider, logger *logrus.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	rpm := opts.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	threshold := opts.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:    "fpl-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     opts.BaseURL,
		userAgent:   "fpl-predictor/1.0",
		cache:       cache,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Bootstrap response structures. The API encodes several per-game rates as
// strings, hence the string fields here.
type bootstrapResponse struct {
	Events   []bootstrapEvent   `json:"events"`
	Teams    []bootstrapTeam    `json:"teams"`
	Elements []bootstrapElement `json:"elements"`
}

type bootstrapEvent struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

type bootstrapTeam struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Strength  int    `json:"strength"`
}

type bootstrapElement struct {
	ID          int    `json:"id"`
	Code        int    `json:"code"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`

	NowCost     int `json:"now_cost"`
	Minutes     int `json:"minutes"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	YellowCards int `json:"yellow_cards"`
	RedCards    int `json:"red_cards"`
	Bonus       int `json:"bonus"`
	Saves       int `json:"saves"`
	CleanSheets int `json:"clean_sheets"`
	TotalPoints int `json:"total_points"`

	Form             string `json:"form"`
	PointsPerGame    string `json:"points_per_game"`
	ExpectedGoals    string `json:"expected_goals"`
	SavesPer90       string `json:"saves_per_90"`
	CleanSheetsPer90 string `json:"clean_sheets_per_90"`

	InfluenceRank  int `json:"influence_rank"`
	ThreatRankType int `json:"threat_rank_type"`

	ChanceThisRound *int `json:"chance_of_playing_this_round"`
	ChanceNextRound *int `json:"chance_of_playing_next_round"`
}

type apiFixture struct {
	Event       *int    `json:"event"`
	KickoffTime *string `json:"kickoff_time"`
	TeamH       int     `json:"team_h"`
	TeamA       int     `json:"team_a"`
	Finished    bool    `json:"finished"`
}

var positionNames = map[int]string{
	1: "GKP",
	2: "DEF",
	3: "MID",
	4: "FWD",
}

// Fetch pulls bootstrap and fixture data and maps it onto the tabular
// model the pipeline consumes.
func (c *Client) Fetch(ctx context.Context) (*Dataset, error) {
	bootstrap, err := c.fetchBootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	var rawFixtures []apiFixture
	if err := c.getJSON(ctx, "/fixtures/", &rawFixtures); err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	teamNames := make(map[int]string, len(bootstrap.Teams))
	difficulty := make(map[string]float64, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teamNames[t.ID] = t.Name
		difficulty[t.Name] = float64(t.Strength)
	}

	nextGameweek := 0
	for _, ev := range bootstrap.Events {
		if ev.IsNext {
			nextGameweek = ev.ID
			break
		}
	}

	players := make([]Player, 0, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		players = append(players, mapElement(el, teamNames))
	}

	fixtures := make([]Fixture, 0, len(rawFixtures))
	for _, f := range rawFixtures {
		fx := Fixture{
			Home:     teamNames[f.TeamH],
			Away:     teamNames[f.TeamA],
			Finished: f.Finished,
		}
		if f.Event != nil {
			fx.Gameweek = *f.Event
		}
		if f.KickoffTime != nil {
			if t, err := time.Parse(time.RFC3339, *f.KickoffTime); err == nil {
				fx.Kickoff = t
			}
		}
		fixtures = append(fixtures, fx)
	}

	c.logger.WithFields(logrus.Fields{
		"players":       len(players),
		"fixtures":      len(fixtures),
		"next_gameweek": nextGameweek,
	}).Info("Fetched FPL dataset")

	return &Dataset{
		Players:      players,
		Fixtures:     fixtures,
		Difficulty:   difficulty,
		NextGameweek: nextGameweek,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// PlayerCodes returns the full-name to element-code mapping used to build
// player photo URLs. Served best-effort: callers treat an error as "no
// images this time".
func (c *Client) PlayerCodes(ctx context.Context) (map[string]int, error) {
	bootstrap, err := c.fetchBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]int, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		codes[el.FirstName+" "+el.SecondName] = el.Code
	}
	return codes, nil
}

func (c *Client) fetchBootstrap(ctx context.Context) (*bootstrapResponse, error) {
	const cacheKey = "fpl:bootstrap"

	var cached bootstrapResponse
	if c.cache != nil {
		if err := c.cache.GetSimple(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var bootstrap bootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return nil, err
	}

	if c.cache != nil && len(bootstrap.Elements) > 0 {
		// Bootstrap is ~2MB and changes rarely between deadlines.
		c.cache.SetSimple(cacheKey, bootstrap, 15*time.Minute)
	}

	return &bootstrap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("GET %s returned %d", path, resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(body.([]byte), dest)
}

func mapElement(el bootstrapElement, teamNames map[int]string) Player {
	return Player{
		Name:     el.FirstName + " " + el.SecondName,
		Team:     teamNames[el.Team],
		Position: positionNames[el.ElementType],
		Code:     el.Code,

		NowCost:        float64(el.NowCost),
		Minutes:        float64(el.Minutes),
		GoalsScored:    float64(el.GoalsScored),
		Assists:        float64(el.Assists),
		YellowCards:    float64(el.YellowCards),
		RedCards:       float64(el.RedCards),
		Bonus:          float64(el.Bonus),
		Saves:          float64(el.Saves),
		SavesPer90:     lenientFloat(el.SavesPer90),
		CleanSheets:    float64(el.CleanSheets),
		CleanSheetsP90: lenientFloat(el.CleanSheetsPer90),

		Form:          lenientFloat(el.Form),
		PointsPerGame: lenientFloat(el.PointsPerGame),
		TotalPoints:   float64(el.TotalPoints),
		ExpectedGoals: lenientFloat(el.ExpectedGoals),

		InfluenceRank: float64(el.InfluenceRank),
		ThreatRank:    float64(el.ThreatRankType),

		// The API reports null for players with no fitness news, which
		// means fully available, not unavailable.
		ChanceThisRound: chanceValue(el.ChanceThisRound),
		ChanceNextRound: chanceValue(el.ChanceNextRound),
	}
}

func chanceValue(v *int) float64 {
	if v == nil {
		return 100
	}
	return float64(*v)
}

// lenientFloat parses the API's string-encoded numerics; anything
// unparseable becomes 0.
func lenientFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
