package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/api/metrics"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// RecordHandler serves medical records. Sensitive fields arrive and leave in
// plaintext; encryption happens inside the service.
type RecordHandler struct {
	service ports.RecordService
}

func NewRecordHandler(service ports.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// Create stores a new record owned by the calling doctor.
//
// @Summary      Create a medical record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      recordRequest  true  "Record content"
// @Success      201   {object}  recordResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /records [post]
func (h *RecordHandler) Create(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	var req recordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rec, err := h.service.Create(c.Request().Context(), token, toRecordInput(req))
	if err != nil {
		return err
	}
	metrics.RecordsWrittenTotal.WithLabelValues("create").Inc()

	resp := toRecordResponse(rec)
	c.Response().Header().Set(echo.HeaderLocation, resp.Links.Self)
	return c.JSON(http.StatusCreated, resp)
}

// Update replaces the clinical and sensitive fields of an owned record.
// It is a full replace: any field omitted from the body is stored empty.
// The owner and patient name never change, and a zero date keeps the stored one.
//
// @Summary      Update a medical record
// @Description  Full replace. Clinical and sensitive fields omitted from the body are cleared.
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Record id"
// @Param        body  body      recordRequest  true  "Record content"
// @Success      200   {object}  recordResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /records/{id} [put]
func (h *RecordHandler) Update(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req recordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rec, err := h.service.Update(c.Request().Context(), token, id, toRecordInput(req))
	if err != nil {
		return err
	}
	metrics.RecordsWrittenTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toRecordResponse(rec))
}

// Delete removes an owned record.
//
// @Summary      Delete a medical record
// @Tags         records
// @Security     BearerAuth
// @Param        id   path  int  true  "Record id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /records/{id} [delete]
func (h *RecordHandler) Delete(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), token, id); err != nil {
		return err
	}
	metrics.RecordsWrittenTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Get returns one owned record with its sensitive fields decrypted.
//
// @Summary      Get a medical record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Record id"
// @Success      200  {object}  recordResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /records/{id} [get]
func (h *RecordHandler) Get(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rec, err := h.service.Get(c.Request().Context(), token, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRecordResponse(rec))
}

// ListMine returns the calling doctor's records.
//
// @Summary      List own medical records
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listRecordsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /records [get]
func (h *RecordHandler) ListMine(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	recs, err := h.service.ListMine(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListRecordsResponse(recs))
}

// ListAll returns every record in the system. Admin only.
//
// @Summary      List all medical records
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listRecordsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /medicalrecords [get]
func (h *RecordHandler) ListAll(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	recs, err := h.service.ListAll(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListRecordsResponse(recs))
}
