package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"jobtracker.local/internal/domain"
	"jobtracker.local/internal/notion"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a service error to a status code and an error type.
func classify(err error) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, notion.ErrUnavailable):
		return http.StatusBadGateway, "notion_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func errorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err == nil {
			return nil
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return err
		}

		status, kind := classify(err)
		message := err.Error()
		attrs := []any{
			"error_type", kind,
			"path", c.Request().URL.Path,
			"method", c.Request().Method,
			"status", status,
			"error", err,
		}

		ctx := c.Request().Context()
		switch status {
		case http.StatusBadRequest, http.StatusNotFound:
			slog.InfoContext(ctx, "Request rejected", attrs...)
		case http.StatusConflict:
			slog.WarnContext(ctx, "Conflict", attrs...)
		default:
			slog.ErrorContext(ctx, "Request failed", attrs...)
			if status == http.StatusInternalServerError {
				message = "internal server error"
			}
		}

		if err := c.JSON(status, errorResponse{Error: kind, Message: message}); err != nil {
			return fmt.Errorf("failed to write error response: %w", err)
		}
		return nil
	}
}
