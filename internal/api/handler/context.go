package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/api/middleware"
)

// ctxToken returns the raw bearer token injected by the Auth middleware.
// Services re-verify it and match it against the stored session, so the
// handler only checks that the middleware ran.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.TokenKey).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return token, nil
}

// pathID parses the numeric :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
