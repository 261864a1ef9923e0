package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const notionTimeout = 8 * time.Second

type notionDatabase struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) requireNotion(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.notion == nil {
			return echo.NewHTTPError(http.StatusNotFound, "notion mirror disabled")
		}
		return next(c)
	}
}

func (s *Server) handleDebugNotion(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), notionTimeout)
	defer cancel()

	if err := s.notion.Ping(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDebugSearchDatabases(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), notionTimeout)
	defer cancel()

	dbs, err := s.notion.SearchDatabases(ctx)
	if err != nil {
		return err
	}

	out := make([]notionDatabase, 0, len(dbs))
	for _, db := range dbs {
		var name string
		for _, rt := range db.Title {
			name += rt.PlainText
		}
		out = append(out, notionDatabase{ID: db.ID, Title: name})
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(out), "dbs": out})
}
