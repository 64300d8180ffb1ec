// Package dashboard serves the read-only monitoring API and the pause
// control over HTTP.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calcibot/calci/internal/domain"
	"github.com/calcibot/calci/internal/ports"
)

const (
	defaultTradesLimit = 50
	maxTradesLimit     = 500
)

// OpportunitySource exposes the latest scan results. The engine implements
// it; the dashboard never talks to the venue directly.
type OpportunitySource interface {
	LatestOpportunities() []domain.Opportunity
}

// Server is the HTTP dashboard. All trading state comes from storage and the
// engine's published scan; the only write it can do is the pause toggle.
type Server struct {
	echo  *echo.Echo
	store ports.Storage
	opps  OpportunitySource
	addr  string
}

// New builds the dashboard server. The Prometheus gatherer backs /metrics.
func New(store ports.Storage, opps OpportunitySource, gatherer prometheus.Gatherer, addr string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogRequestLogger())

	s := &Server{echo: e, store: store, opps: opps, addr: addr}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/snapshot", s.snapshot)
	api.GET("/trades", s.trades)
	api.GET("/opportunities", s.opportunities)
	api.GET("/scans", s.scans)
	api.GET("/activity", s.activity)
	api.GET("/stats", s.stats)
	api.POST("/pause", s.pause)

	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	slog.Info("dashboard: listening", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard.Start: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(c echo.Context) error {
	snap, ok, err := s.store.LatestSnapshot(c.Request().Context())
	if err != nil {
		return internalErr(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no snapshot yet"})
	}
	return c.JSON(http.StatusOK, snapshotJSON(snap))
}

func (s *Server) trades(c echo.Context) error {
	limit := intQuery(c, "limit", defaultTradesLimit)
	if limit < 1 || limit > maxTradesLimit {
		limit = defaultTradesLimit
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	trades, err := s.store.Trades(c.Request().Context(), limit, offset)
	if err != nil {
		return internalErr(c, err)
	}
	out := make([]tradeJSON, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeJSON(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) opportunities(c echo.Context) error {
	opps := s.opps.LatestOpportunities()
	out := make([]opportunityJSON, 0, len(opps))
	for _, o := range opps {
		out = append(out, toOpportunityJSON(o))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) scans(c echo.Context) error {
	limit := intQuery(c, "limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}
	scans, err := s.store.RecentScans(c.Request().Context(), limit)
	if err != nil {
		return internalErr(c, err)
	}
	out := make([]scanJSON, 0, len(scans))
	for _, r := range scans {
		out = append(out, toScanJSON(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) activity(c echo.Context) error {
	limit := intQuery(c, "limit", 30)
	if limit < 1 || limit > 200 {
		limit = 30
	}
	entries, err := s.store.RecentActivity(c.Request().Context(), limit)
	if err != nil {
		return internalErr(c, err)
	}
	out := make([]activityJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityJSON(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.store.Stats(c.Request().Context())
	if err != nil {
		return internalErr(c, err)
	}
	return c.JSON(http.StatusOK, statsJSON{
		Total:    stats.Total,
		Wins:     stats.Wins,
		Losses:   stats.Losses,
		TotalPnL: stats.TotalPnL,
		WinRate:  stats.WinRate(),
	})
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

func (s *Server) pause(c echo.Context) error {
	var req pauseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	value := "false"
	if req.Paused {
		value = "true"
	}
	if err := s.store.SetSetting(c.Request().Context(), ports.PauseKey, value); err != nil {
		return internalErr(c, err)
	}
	slog.Info("dashboard: pause flag set", "paused", req.Paused)
	return c.JSON(http.StatusOK, map[string]bool{"paused": req.Paused})
}

func internalErr(c echo.Context, err error) error {
	slog.Error("dashboard: request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func intQuery(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func slogRequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Debug("dashboard: request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"elapsed", time.Since(start).Round(time.Millisecond))
			return err
		}
	}
}
