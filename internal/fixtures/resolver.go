package fixtures

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jstittsworth/fpl-predictor/internal/fpl"
)

// ErrNoUpcomingFixtures is returned when the schedule holds nothing left
// to predict against. Predicting on stale data is worse than failing.
var ErrNoUpcomingFixtures = errors.New("no upcoming fixtures found")

// Info describes a team's next fixture from that team's point of view.
type Info struct {
	Opponent      string
	IsHome        bool
	Difficulty    float64
	FixtureString string
}

// Resolve determines the next unplayed gameweek and builds the per-team
// fixture lookup for it. gameweekHint, when positive, is an explicit
// "next gameweek" signal from the data source and takes precedence over
// date-based resolution. Otherwise the earliest gameweek with a kickoff
// after referenceDate wins, falling back to the earliest gameweek with
// any unfinished fixture.
func Resolve(all []fpl.Fixture, difficulty map[string]float64, referenceDate time.Time, gameweekHint int) (map[string]Info, int, error) {
	if len(all) == 0 {
		return nil, 0, ErrNoUpcomingFixtures
	}

	gameweek := gameweekHint
	if gameweek <= 0 {
		gameweek = nextGameweekByDate(all, referenceDate)
	}
	if gameweek <= 0 {
		gameweek = earliestUnfinished(all)
	}
	if gameweek <= 0 {
		return nil, 0, ErrNoUpcomingFixtures
	}

	lookup := make(map[string]Info)
	for _, f := range all {
		if f.Gameweek != gameweek {
			continue
		}
		lookup[f.Home] = Info{
			Opponent:      f.Away,
			IsHome:        true,
			Difficulty:    difficulty[f.Away],
			FixtureString: fmt.Sprintf("%s (H) vs %s", f.Home, f.Away),
		}
		lookup[f.Away] = Info{
			Opponent:      f.Home,
			IsHome:        false,
			Difficulty:    difficulty[f.Home],
			FixtureString: fmt.Sprintf("%s (A) vs %s", f.Away, f.Home),
		}
	}

	if len(lookup) == 0 {
		return nil, 0, ErrNoUpcomingFixtures
	}
	return lookup, gameweek, nil
}

// nextGameweekByDate finds the gameweek of the earliest fixture kicking
// off after the reference date. Returns 0 when nothing qualifies.
func nextGameweekByDate(all []fpl.Fixture, referenceDate time.Time) int {
	upcoming := make([]fpl.Fixture, 0, len(all))
	for _, f := range all {
		if !f.Kickoff.IsZero() && f.Kickoff.After(referenceDate) && f.Gameweek > 0 {
			upcoming = append(upcoming, f)
		}
	}
	if len(upcoming) == 0 {
		return 0
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Kickoff.Before(upcoming[j].Kickoff)
	})
	return upcoming[0].Gameweek
}

// earliestUnfinished is the fallback when kickoff dates are missing or
// all lie in the past: the lowest gameweek still carrying an unfinished
// fixture.
func earliestUnfinished(all []fpl.Fixture) int {
	best := 0
	for _, f := range all {
		if f.Finished || f.Gameweek <= 0 {
			continue
		}
		if best == 0 || f.Gameweek < best {
			best = f.Gameweek
		}
	}
	return best
}
