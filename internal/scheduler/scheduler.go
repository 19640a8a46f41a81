package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newspulse/internal/model"
)

// AnalyzeFunc runs one keyword analysis; the scheduler does not care
// about the report, only the error.
type AnalyzeFunc func(ctx context.Context, keyword string, limit int) error

// Scheduler re-analyzes the watched keywords on a cron schedule so
// trend windows keep filling without manual runs.
type Scheduler struct {
	cron    *cron.Cron
	analyze AnalyzeFunc
	cfg     model.WatchConfig
	logger  *slog.Logger

	// runTimeout bounds one full sweep over the watch list.
	runTimeout time.Duration
}

// New creates a scheduler. The schedule string accepts standard cron
// expressions plus the @every and @hourly style descriptors.
func New(cfg model.WatchConfig, analyze AnalyzeFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:       cron.New(),
		analyze:    analyze,
		cfg:        cfg,
		logger:     logger,
		runTimeout: 10 * time.Minute,
	}
}

// Start registers the sweep job and begins ticking. It returns
// immediately; jobs run on the cron goroutine.
func (s *Scheduler) Start() error {
	if len(s.cfg.Keywords) == 0 {
		s.logger.Info("watch list empty, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Schedule, s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"schedule", s.cfg.Schedule,
		"keywords", len(s.cfg.Keywords))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep analyzes every watched keyword in order. One failing keyword
// does not stop the rest.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	for _, keyword := range s.cfg.Keywords {
		if ctx.Err() != nil {
			s.logger.Warn("sweep aborted", "error", ctx.Err())
			return
		}
		if err := s.analyze(ctx, keyword, s.cfg.Limit); err != nil {
			s.logger.Warn("scheduled analysis failed",
				"keyword", keyword,
				"error", err)
		}
	}
}
