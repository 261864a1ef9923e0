package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"jobtracker.local/internal/domain"
)

// Payloads sent by the extension popup.
type addApplicationRequest struct {
	CompanyName string `json:"companyName"`
	JobLink     string `json:"jobLink"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := s.health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListApplications(c echo.Context) error {
	ctx := c.Request().Context()

	if grouped, _ := strconv.ParseBool(c.QueryParam("grouped")); grouped {
		groups, err := s.tracker.Grouped(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, groups)
	}

	list, err := s.tracker.LoadApplications(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleAddApplication(c echo.Context) error {
	var req addApplicationRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}

	rec, err := s.tracker.AddApplication(c.Request().Context(), req.CompanyName, req.JobLink)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleGetApplication(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	rec, err := s.tracker.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleChangeStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req changeStatusRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	rec, err := s.tracker.ChangeStatus(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	n, err := s.tracker.Sweep(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"ghosted": n})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}
