package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/core/ports"
)

// Context keys set by Auth.
const (
	TokenKey  = "token"
	ClaimsKey = "claims"
)

// Auth extracts the bearer token, verifies it and injects both the raw token
// and its claims into the context. Stored-session checks happen later, in
// the services that need the caller's identity.
func Auth(tokens ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := BearerToken(c.Request())
			if err != nil {
				return err
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(TokenKey, raw)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
