package model

import (
	"fmt"
	"time"
)

// Config holds all application configuration. The weight table is
// read once at startup and treated as immutable afterwards; changing
// scoring policy requires a restart so one history never mixes
// results scored under different policies.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Adapters AdapterConfig  `yaml:"adapters"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type FetchConfig struct {
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	Feeds             []string      `yaml:"feeds"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	ExtractContent    bool          `yaml:"extract_content"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	Proxy             string        `yaml:"proxy"`
}

type AdapterConfig struct {
	// Timeout bounds every single classifier call so one slow model
	// cannot stall a batch.
	Timeout time.Duration      `yaml:"timeout"`
	Weights map[string]float64 `yaml:"weights"`
	OpenAI  OpenAIConfig       `yaml:"openai"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ScoringConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type WatchConfig struct {
	Keywords []string `yaml:"keywords"`
	Schedule string   `yaml:"schedule"`
	Limit    int      `yaml:"limit"`
}

type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults. The weight table
// mirrors the trust ordering of the shipped adapters; unlisted model
// ids fall back to 0.10 at aggregation time.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "data/newspulse.db",
		},
		Fetch: FetchConfig{
			UserAgent:         "newspulse/0.1 (+https://github.com/newspulse)",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
			ExtractContent:    false,
			MaxBodyBytes:      2_000_000,
			Feeds: []string{
				"http://feeds.bbci.co.uk/news/rss.xml",
				"https://www.theguardian.com/uk/rss",
			},
		},
		Adapters: AdapterConfig{
			Timeout: 10 * time.Second,
			Weights: map[string]float64{
				"openai":   0.40,
				"lexicon":  0.35,
				"polarity": 0.25,
			},
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
		},
		Scoring: ScoringConfig{
			Concurrency: 4,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Watch: WatchConfig{
			Schedule: "@hourly",
			Limit:    10,
		},
		Cache: CacheConfig{
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Adapters.Timeout <= 0 {
		return fmt.Errorf("adapters.timeout must be positive")
	}
	for id, w := range c.Adapters.Weights {
		if w <= 0 || w > 1 {
			return fmt.Errorf("adapters.weights[%s] must be in (0,1], got %v", id, w)
		}
	}
	if c.Scoring.Concurrency <= 0 {
		return fmt.Errorf("scoring.concurrency must be positive")
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be positive")
	}
	return nil
}
