package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"registration-analytics/internal/logger"
)

// Configuration holds the static settings needed to run the dashboard
type Configuration struct {
	Address string `env:"ADDRESS" envDefault:":8080"` // HTTP listen address

	// Record source
	SourceType            string        `env:"SOURCE_TYPE" envDefault:"mongo"` // mongo or file
	SourceURL             string        `env:"SOURCE_URL"`                     // file path or http(s) URL when SOURCE_TYPE=file
	MongoDBConnectionURI  string        `env:"MONGODB_CONNECTION_URI"`
	MongoDBName           string        `env:"MONGODB_DBNAME"`
	Collection            string        `env:"COLLECTION" envDefault:"CourseRegistration"`
	LoadTimeout           time.Duration `env:"LOAD_TIMEOUT" envDefault:"30s"`
	LoadMaxRetries        int           `env:"LOAD_MAX_RETRIES" envDefault:"3"`
	LoadRetryInitialDelay time.Duration `env:"LOAD_RETRY_INITIAL_DELAY" envDefault:"1s"`
	LoadRetryMaxDelay     time.Duration `env:"LOAD_RETRY_MAX_DELAY" envDefault:"30s"`

	// Pipeline
	ReferenceCurrencySymbol string        `env:"REFERENCE_CURRENCY_SYMBOL" envDefault:"€"`
	RejectPolicy            string        `env:"REJECT_POLICY" envDefault:"skip"` // skip or abort
	SnapshotTTL             time.Duration `env:"SNAPSHOT_TTL" envDefault:"0s"`    // 0 keeps a snapshot until refreshed

	// Storage
	StorePath string `env:"STORE_PATH" envDefault:"pipeline.db"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"exports"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"` // stdout, file or both
	LogPath   string `env:"LOG_PATH" envDefault:"logs"`
}

// Validate checks settings that depend on each other
func (c *Configuration) Validate() error {
	switch c.SourceType {
	case "mongo":
		if c.MongoDBConnectionURI == "" || c.MongoDBName == "" {
			return fmt.Errorf("MONGODB_CONNECTION_URI and MONGODB_DBNAME are required when SOURCE_TYPE=mongo")
		}
	case "file":
		if c.SourceURL == "" {
			return fmt.Errorf("SOURCE_URL is required when SOURCE_TYPE=file")
		}
	default:
		return fmt.Errorf("unknown SOURCE_TYPE %q", c.SourceType)
	}
	if c.ReferenceCurrencySymbol == "" {
		return fmt.Errorf("REFERENCE_CURRENCY_SYMBOL must not be empty")
	}
	if c.LoadMaxRetries < 0 {
		return fmt.Errorf("LOAD_MAX_RETRIES must not be negative")
	}
	return nil
}

// LogConfig returns the logger settings
func (c *Configuration) LogConfig() *logger.LogConfig {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Output = c.LogOutput
	cfg.LogPath = c.LogPath
	return cfg
}

// getEnvPath returns config/env/<GO_ENV>.env from the nearest directory
// upwards that has one, or "" if none exists
func getEnvPath() string {
	name := os.Getenv("GO_ENV")
	if name == "" {
		name = "development"
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		envPath := filepath.Join(dir, "config", "env", name+".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// NewConfig loads the optional env file, then parses the process
// environment. Explicit files take precedence over the GO_ENV lookup.
// Variables already set in the environment are never overridden.
func NewConfig(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		if envPath := getEnvPath(); envPath != "" {
			files = []string{envPath}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
