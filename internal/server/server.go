package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"newspulse/internal/model"
	"newspulse/internal/pipeline"
)

// AnalyzerService is the pipeline surface the HTTP layer exposes.
type AnalyzerService interface {
	Analyze(ctx context.Context, keyword string, limit int) (*pipeline.AnalysisReport, error)
	History(ctx context.Context, keyword string, days int) ([]model.HistoryRecord, error)
	Trends(ctx context.Context, keyword string, days int) ([]model.TrendPoint, error)
	Stats(ctx context.Context, keyword string, days int) (model.SummaryStats, []model.KeywordStat, error)
}

// Server serves the JSON API.
type Server struct {
	echo   *echo.Echo
	app    AnalyzerService
	logger *slog.Logger
	addr   string
}

// New creates the server and registers routes.
func New(app AnalyzerService, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))

	s := &Server{echo: e, app: app, logger: logger, addr: addr}

	e.POST("/api/analyze", s.handleAnalyze)
	e.GET("/api/history", s.handleHistory)
	e.GET("/api/trends/:keyword", s.handleTrends)
	e.GET("/api/stats", s.handleStats)
	e.GET("/healthz", s.handleHealth)

	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.addr)
	return s.echo.Start(s.addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
