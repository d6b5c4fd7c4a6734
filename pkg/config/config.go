package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Run history database (optional, disabled when empty)
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Data source
	DataSource    string        `mapstructure:"DATA_SOURCE"` // "live" or "static"
	StaticDataDir string        `mapstructure:"STATIC_DATA_DIR"`
	FPLBaseURL    string        `mapstructure:"FPL_BASE_URL"`
	FPLRateLimit  int           `mapstructure:"FPL_RATE_LIMIT"` // requests per minute
	FPLTimeout    time.Duration `mapstructure:"FPL_TIMEOUT"`

	CircuitBreakerThreshold int `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Artifact output
	OutputDir string `mapstructure:"OUTPUT_DIR"`

	// Prediction tunables. The damping factor and the divide-by-10 point
	// scale are empirical corrections carried over from earlier seasons;
	// treat them as tunable, not as derived constants.
	HomeAdvantage      float64 `mapstructure:"HOME_ADVANTAGE"`
	PredictionDamping  float64 `mapstructure:"PREDICTION_DAMPING"`
	PointsScale        float64 `mapstructure:"POINTS_SCALE"`
	MinTrainingMinutes float64 `mapstructure:"MIN_TRAINING_MINUTES"`
	MinTrainingPlayers int     `mapstructure:"MIN_TRAINING_PLAYERS"`
	PredictionTarget   string  `mapstructure:"PREDICTION_TARGET"` // "points_per_game" or "total_points"

	// Model
	TreeCount    int     `mapstructure:"TREE_COUNT"`
	MaxTreeDepth int     `mapstructure:"MAX_TREE_DEPTH"`
	TestSplit    float64 `mapstructure:"TEST_SPLIT"`
	RandomSeed   int64   `mapstructure:"RANDOM_SEED"`

	// Scheduler
	EnableScheduler bool   `mapstructure:"ENABLE_SCHEDULER"`
	RunInterval     string `mapstructure:"RUN_INTERVAL"`
	SkipInitialRun  bool   `mapstructure:"SKIP_INITIAL_RUN"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("DATA_SOURCE", "live")
	viper.SetDefault("STATIC_DATA_DIR", "./data")
	viper.SetDefault("FPL_BASE_URL", "https://fantasy.premierleague.com/api")
	viper.SetDefault("FPL_RATE_LIMIT", 30)
	viper.SetDefault("FPL_TIMEOUT", "20s")
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5) // trip after 5 consecutive failures

	viper.SetDefault("OUTPUT_DIR", ".")

	viper.SetDefault("HOME_ADVANTAGE", 1.1) // 10% bonus for home fixtures
	viper.SetDefault("PREDICTION_DAMPING", 0.6)
	viper.SetDefault("POINTS_SCALE", 10.0)
	viper.SetDefault("MIN_TRAINING_MINUTES", 45.0)
	viper.SetDefault("MIN_TRAINING_PLAYERS", 100)
	viper.SetDefault("PREDICTION_TARGET", "points_per_game")

	viper.SetDefault("TREE_COUNT", 100)
	viper.SetDefault("MAX_TREE_DEPTH", 12)
	viper.SetDefault("TEST_SPLIT", 0.2)
	viper.SetDefault("RANDOM_SEED", 42)

	viper.SetDefault("ENABLE_SCHEDULER", true)
	viper.SetDefault("RUN_INTERVAL", "6h")
	viper.SetDefault("SKIP_INITIAL_RUN", false)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	if config.DataSource != "live" && config.DataSource != "static" {
		return nil, fmt.Errorf("invalid DATA_SOURCE %q: must be \"live\" or \"static\"", config.DataSource)
	}
	if config.PredictionTarget != "points_per_game" && config.PredictionTarget != "total_points" {
		return nil, fmt.Errorf("invalid PREDICTION_TARGET %q", config.PredictionTarget)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
