// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the aggregation pipeline over HTTP. The transport
// stays a thin shell: request decoding and status codes live here, all
// behavior lives in pipeline, task, and history.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pdiddy/biosearch/internal/history"
	"github.com/pdiddy/biosearch/internal/pipeline"
	"github.com/pdiddy/biosearch/internal/registry"
	"github.com/pdiddy/biosearch/internal/task"
)

// Server is the HTTP API over one pipeline instance.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	tasks    *task.Manager
	store    *history.Store
}

// New wires the routes. store may be nil when history is disabled; the
// history endpoints then answer 503.
func New(p *pipeline.Pipeline, tasks *task.Manager, store *history.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}))

	logger := log.New(log.Writer(), "[api] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Printf("%d %s %s: %v", code, c.Request().Method, c.Request().URL.Path, err)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	s := &Server{echo: e, pipeline: p, tasks: tasks, store: store}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	api := e.Group("/api")
	api.POST("/search", s.startSearch)
	api.GET("/task/:id", s.getTask)
	api.GET("/sources", s.listSources)
	api.GET("/history", s.listHistory)
	api.GET("/search/:id", s.searchDetail)
	api.DELETE("/search/:id", s.deleteSearch)
	api.GET("/stats", s.stats)
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type searchRequest struct {
	Query      string   `json:"query"`
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
}

func (s *Server) startSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	id, err := s.pipeline.StartSearch(req.Query, req.Sources, req.MaxResults)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"task_id": id,
		"status":  "pending",
	})
}

func (s *Server) getTask(c echo.Context) error {
	t, ok := s.tasks.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) listSources(c echo.Context) error {
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		return c.JSON(http.StatusOK, registry.ByCategory(category))
	}
	return c.JSON(http.StatusOK, registry.All())
}

func (s *Server) listHistory(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history disabled")
	}
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 0)
	entries, total, err := s.store.History(c.Request().Context(), page, pageSize, c.QueryParam("keyword"))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"page":    page,
	})
}

func (s *Server) searchDetail(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history disabled")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "search id must be numeric")
	}
	entry, err := s.store.Detail(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) deleteSearch(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history disabled")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "search id must be numeric")
	}
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) stats(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history disabled")
	}
	st, err := s.store.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func intQuery(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
