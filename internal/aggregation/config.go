package aggregation

import "time"

// Config is the immutable policy object for one aggregation run. The engine
// is a pure function of (enriched view, config); nothing is read from
// ambient state.
type Config struct {
	// WeekStart is the configured week boundary for weekly bucketing.
	WeekStart time.Weekday
	// RollingWindows are the trailing window lengths, in weekly periods.
	// Each length becomes one column of the rolling tables.
	RollingWindows []int
	// Anchor is the rolling-window anchor date: periods before it are
	// excluded entirely, not zero-filled.
	Anchor time.Time
	// MinAttempts is the statistical-significance floor for strike-rate
	// leaderboards, applied after the full group-by.
	MinAttempts int
	// LeaderboardSize is N for the top-N and bottom-N entity tables.
	LeaderboardSize int
	// TrackCategories restricts leaderboards and strike-rate tables.
	TrackCategories []string
}

// DefaultConfig returns the engine defaults used when no explicit policy is
// supplied.
func DefaultConfig() Config {
	return Config{
		WeekStart:       time.Monday,
		RollingWindows:  []int{2, 4, 8},
		Anchor:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MinAttempts:     50,
		LeaderboardSize: 15,
		TrackCategories: []string{"Horse Racing", "Greyhound Racing", "Harness Racing"},
	}
}
