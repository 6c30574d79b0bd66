package handler

import (
	"errors"

	"github.com/mediciel/clinic-records/internal/api/metrics"
	"github.com/mediciel/clinic-records/internal/core/domain"
)

// observeLogin records the outcome of a login or refresh attempt.
func observeLogin(kind string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		result = "invalid_token"
	case errors.Is(err, domain.ErrSessionBusy):
		result = "busy"
	default:
		result = "error"
	}
	metrics.LoginsTotal.WithLabelValues(kind, result).Inc()
}
