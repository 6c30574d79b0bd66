package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
		{domain.ErrDuplicateIdentity, http.StatusConflict, "identity already registered"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{fmt.Errorf("verify: %w", domain.ErrInvalidToken), http.StatusUnauthorized, "invalid or expired token"},
		{domain.ErrSessionNotFound, http.StatusUnauthorized, "no active session for this token"},
		{domain.ErrAccessDenied, http.StatusForbidden, "access denied"},
		{domain.ErrNotFound, http.StatusNotFound, "not found"},
		{domain.ErrSessionBusy, http.StatusConflict, "session update in progress, retry"},
		{domain.ErrUnsupported, http.StatusBadRequest, "operation not supported"},
		{fmt.Errorf("%w: authentication failed", domain.ErrDecryption), http.StatusInternalServerError, "stored data could not be read"},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: invalid json: %v", tc.err, err)
		}
		if body.Error != tc.msg {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.msg, body.Error)
		}
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrNotFound, c)

	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected bare 404, got %d %q", rec.Code, rec.Body.String())
	}
}
