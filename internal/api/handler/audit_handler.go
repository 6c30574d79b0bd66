package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/core/ports"
)

// AuditHandler serves the persisted audit trail.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// Recent returns the newest audit events. Admin only.
//
// @Summary      List recent audit events
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum events to return (default 50, max 500)"
// @Success      200    {object}  listAuditResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /audit [get]
func (h *AuditHandler) Recent(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	events, err := h.service.Recent(c.Request().Context(), token, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListAuditResponse(events))
}
