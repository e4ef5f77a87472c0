package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "betpulse/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Ingest      IngestConfig      `yaml:"ingest" envconfig:"INGEST"`
	Features    FeaturesConfig    `yaml:"features" envconfig:"FEATURES"`
	Aggregation AggregationConfig `yaml:"aggregation" envconfig:"AGGREGATION"`
	Sheets      SheetsConfig      `yaml:"sheets" envconfig:"SHEETS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// IngestConfig controls raw batch normalization.
type IngestConfig struct {
	// CurrencyMarker breaks ties between multiple profit-like columns:
	// among headers containing "profit", the one also containing this
	// marker wins.
	CurrencyMarker string `yaml:"currency_marker" envconfig:"CURRENCY_MARKER" validate:"required"`
}

// FeaturesConfig controls categorical feature extraction from the market
// description field.
type FeaturesConfig struct {
	// TrackCategories are the categories for which sub-entity, region and
	// event-detail decomposition applies.
	TrackCategories []string `yaml:"track_categories" envconfig:"TRACK_CATEGORIES" validate:"min=1"`
	// RegionFallback is assigned to track-based rows with no parenthetical
	// region code. This is deliberate configuration, not a parse failure.
	RegionFallback string `yaml:"region_fallback" envconfig:"REGION_FALLBACK" validate:"required"`
	// UnclassifiedRegion is the sentinel assigned to every non-track row.
	UnclassifiedRegion string `yaml:"unclassified_region" envconfig:"UNCLASSIFIED_REGION" validate:"required"`
}

// AggregationConfig controls the aggregation engine.
type AggregationConfig struct {
	WeekStart       string `yaml:"week_start" envconfig:"WEEK_START" validate:"required"`
	RollingWindows  []int  `yaml:"rolling_windows" envconfig:"ROLLING_WINDOWS" validate:"min=1,dive,min=1"`
	AnchorDate      string `yaml:"anchor_date" envconfig:"ANCHOR_DATE" validate:"required"`
	MinAttempts     int    `yaml:"min_attempts" envconfig:"MIN_ATTEMPTS" validate:"min=1"`
	LeaderboardSize int    `yaml:"leaderboard_size" envconfig:"LEADERBOARD_SIZE" validate:"min=1"`
}

// SheetsConfig configures the optional Google Sheets report sink.
type SheetsConfig struct {
	CredentialsFile string  `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	SpreadsheetID   string  `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	WritesPerSecond float64 `yaml:"writes_per_second" envconfig:"WRITES_PER_SECOND"`
	WriteBurst      int     `yaml:"write_burst" envconfig:"WRITE_BURST"`
}

// weekdays maps the configured week-start name to a time.Weekday.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load builds the configuration in three layers: built-in defaults, then an
// optional YAML file, then BETPULSE_* environment variables. Unresolvable
// configuration is fatal and surfaces immediately, before any ledger write.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read config file", err).
				WithContext("path", configFile)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to parse config file", err).
				WithContext("path", configFile)
		}
	}

	if err := envconfig.Process("BETPULSE", cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration. It is called by Load but exported so
// hand-built configs in tests and tools go through the same checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if _, err := time.Parse("2006-01-02", c.Aggregation.AnchorDate); err != nil {
		return apperrors.NewConfigError("malformed anchor date", err).
			WithContext("anchor_date", c.Aggregation.AnchorDate)
	}

	if _, ok := weekdays[strings.ToLower(c.Aggregation.WeekStart)]; !ok {
		return apperrors.NewConfigError(
			fmt.Sprintf("unknown week start day %q", c.Aggregation.WeekStart), nil)
	}

	for _, w := range c.Aggregation.RollingWindows {
		if w <= 0 {
			return apperrors.NewConfigError(
				fmt.Sprintf("rolling window length must be positive, got %d", w), nil)
		}
	}

	return nil
}

// AnchorTime returns the parsed rolling-window anchor date. Validate must
// have succeeded first.
func (c *AggregationConfig) AnchorTime() time.Time {
	t, _ := time.Parse("2006-01-02", c.AnchorDate)
	return t
}

// WeekStartDay returns the configured week boundary as a time.Weekday.
// Validate must have succeeded first.
func (c *AggregationConfig) WeekStartDay() time.Weekday {
	return weekdays[strings.ToLower(c.WeekStart)]
}

// findConfigFile returns the first config file found in common locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/betpulse.log",
		},
		Paths: DefaultPaths(),
		Ingest: IngestConfig{
			CurrencyMarker: "AUD",
		},
		Features: FeaturesConfig{
			TrackCategories:    []string{"Horse Racing", "Greyhound Racing", "Harness Racing"},
			RegionFallback:     "AU",
			UnclassifiedRegion: "Unclassified",
		},
		Aggregation: AggregationConfig{
			WeekStart:       "Monday",
			RollingWindows:  []int{2, 4, 8},
			AnchorDate:      "2024-01-01",
			MinAttempts:     50,
			LeaderboardSize: 15,
		},
		Sheets: SheetsConfig{
			CredentialsFile: "credentials.json",
			WritesPerSecond: 1,
			WriteBurst:      3,
		},
	}
}
