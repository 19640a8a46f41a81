package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"newspulse/internal/cache"
	"newspulse/internal/classifier"
	"newspulse/internal/ensemble"
	"newspulse/internal/fetch"
	"newspulse/internal/history"
	"newspulse/internal/logging"
	"newspulse/internal/model"
	"newspulse/internal/pipeline"
	"newspulse/internal/scorer"
	"newspulse/internal/trend"
	"newspulse/internal/util"
	"newspulse/internal/worker"
)

// app bundles the wired components commands operate on.
type app struct {
	cfg      *model.Config
	store    *history.Store
	analyzer *pipeline.Analyzer
	logger   *slog.Logger
}

// loadConfig layers defaults, the YAML config file, and environment
// overrides, in that order.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment overrides for the settings that vary per deployment.
	if v := viper.GetString("database_path"); v != "" {
		cfg.Database.Path = v
	}
	if v := viper.GetString("server_addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Log.Level = v
	}
	if cfg.Adapters.OpenAI.APIKey == "" {
		cfg.Adapters.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildApp wires the full pipeline from config.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log)

	store, err := history.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	adapters, err := classifier.FromConfig(cfg.Adapters)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	aggregator := ensemble.NewAggregator(cfg.Adapters.Weights)
	sc := scorer.New(adapters, aggregator, store, scorer.Options{
		AdapterTimeout: cfg.Adapters.Timeout,
		Concurrency:    cfg.Scoring.Concurrency,
		Logger:         logger,
	})

	limiter := worker.NewLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst)
	memCache := cache.NewMemory(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	var extractor *fetch.Extractor
	if cfg.Fetch.ExtractContent {
		robots := util.NewRobotsChecker(cfg.Fetch.UserAgent, cfg.Fetch.Timeout)
		extractor = fetch.NewExtractor(cfg.Fetch, limiter, robots, memCache, cfg.Cache.TTL, logger)
	}
	fetcher := fetch.NewRSS(cfg.Fetch, limiter, memCache, extractor, logger)

	analyzer := pipeline.NewAnalyzer(fetcher, sc, store, trend.NewEngine(store), logger)

	return &app{
		cfg:      cfg,
		store:    store,
		analyzer: analyzer,
		logger:   logger,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing history store", "error", err)
	}
}
