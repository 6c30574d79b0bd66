package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/api/metrics"
	"github.com/mediciel/clinic-records/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → stable, non-revealing messages.
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict, "identity already registered"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.AuthorizationFailuresTotal.WithLabelValues("invalid_token").Inc()
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, domain.ErrSessionNotFound):
		metrics.AuthorizationFailuresTotal.WithLabelValues("session_not_found").Inc()
		return http.StatusUnauthorized, "no active session for this token"
	case errors.Is(err, domain.ErrAccessDenied):
		metrics.AuthorizationFailuresTotal.WithLabelValues("access_denied").Inc()
		return http.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, "session update in progress, retry"
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusBadRequest, "operation not supported"
	case errors.Is(err, domain.ErrDecryption):
		metrics.DecryptionFailuresTotal.Inc()
		log.Error().
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("stored record failed integrity check")
		return http.StatusInternalServerError, "stored data could not be read"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
