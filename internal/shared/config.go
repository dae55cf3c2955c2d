package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/time/rate"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Storage     StorageConfig     `toml:"storage"`
	Import      ImportConfig      `toml:"import"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify client-credentials pair.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig contains content store settings for cover art.
//
// Backend selects the implementation: "local" writes under Dir, "s3" targets
// the configured bucket (Endpoint supports S3-compatible services).
type StorageConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	URLBase   string `toml:"url_base"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// ImportConfig contains tuning for the ingestion pipeline.
type ImportConfig struct {
	PageSize     int     `toml:"page_size"`
	RequestDelay float64 `toml:"request_delay_seconds"`
}

// Limiter builds the rate limiter the pipeline shares across paginated fetches
// and per-record processing. A non-positive delay means one request per second.
func (c ImportConfig) Limiter() *rate.Limiter {
	delay := c.RequestDelay
	if delay <= 0 {
		delay = 1
	}
	limiter := rate.NewLimiter(rate.Limit(1/delay), 1)
	// Spend the initial burst token so the very first wait already observes
	// the configured spacing.
	limiter.Allow()
	return limiter
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that everything the import pipeline requires before any
// network call is present.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path must be set", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case "", "local":
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage dir must be set for the local backend", ErrInvalidConfig)
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage bucket must be set for the s3 backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}
