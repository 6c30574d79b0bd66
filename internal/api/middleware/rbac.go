package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/api/metrics"
	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
)

// RequirePermission rejects requests whose claims role is not allowed to
// perform op, using the same table as the services.
func RequirePermission(op access.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(*domain.Claims)
			if !ok || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !access.Allowed(claims.Role, op) {
				metrics.AuthorizationFailuresTotal.WithLabelValues("access_denied").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}
