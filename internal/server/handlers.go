package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"newspulse/internal/model"
)

type analyzeRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "keyword is required"})
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	report, err := s.app.Analyze(c.Request().Context(), req.Keyword, req.Limit)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleHistory(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	days := queryInt(c, "days", 7)

	records, err := s.app.History(c.Request().Context(), keyword, days)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":   len(records),
		"history": records,
	})
}

func (s *Server) handleTrends(c echo.Context) error {
	keyword := strings.TrimSpace(c.Param("keyword"))
	if keyword == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "keyword is required"})
	}
	days := queryInt(c, "days", 7)

	points, err := s.app.Trends(c.Request().Context(), keyword, days)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"keyword": keyword,
		"days":    days,
		"trends":  points,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	days := queryInt(c, "days", 7)

	stats, top, err := s.app.Stats(c.Request().Context(), keyword, days)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"stats":        stats,
		"top_keywords": top,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorJSON maps domain errors onto HTTP statuses.
func (s *Server) errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrEmptyBatch), errors.Is(err, model.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrNoData):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed",
			"path", c.Path(),
			"error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
