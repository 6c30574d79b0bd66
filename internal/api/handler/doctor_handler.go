package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/core/ports"
)

// DoctorHandler serves doctor sessions and the doctor directory.
type DoctorHandler struct {
	service ports.DoctorService
}

func NewDoctorHandler(service ports.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

// Login opens a session for a doctor.
//
// @Summary      Doctor login
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Param        body  body      doctorCredentialsRequest  true  "Doctor credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /doctor/login [post]
func (h *DoctorHandler) Login(c echo.Context) error {
	var req doctorCredentialsRequest
	if err := c.Bind(&req); err != nil || req.Matricule == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "matricule and password are required")
	}

	doctor, err := h.service.Login(c.Request().Context(), req.Matricule, req.Password)
	observeLogin("doctor", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(doctor))
}

// Logout clears the caller's session.
//
// @Summary      Doctor logout
// @Tags         doctors
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /doctor/logout [post]
func (h *DoctorHandler) Logout(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh a doctor session
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /doctor/refresh [post]
func (h *DoctorHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doctor, err := h.service.Refresh(c.Request().Context(), req.RefreshToken)
	observeLogin("doctor", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(doctor))
}

// List returns every doctor.
//
// @Summary      List doctors
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listPrincipalsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /doctors [get]
func (h *DoctorHandler) List(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	doctors, err := h.service.List(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListPrincipalsResponse(doctors))
}

// Search filters doctors by specialty and department. Empty parameters match all.
//
// @Summary      Search doctors
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        specialty   query     string  false  "Exact specialty"
// @Param        department  query     string  false  "Exact department"
// @Success      200         {object}  listPrincipalsResponse
// @Failure      401         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Router       /doctors/search [get]
func (h *DoctorHandler) Search(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	doctors, err := h.service.Search(c.Request().Context(), token, ports.PrincipalFilter{
		Specialty:  c.QueryParam("specialty"),
		Department: c.QueryParam("department"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListPrincipalsResponse(doctors))
}

// Get returns one doctor.
//
// @Summary      Get a doctor
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Doctor id"
// @Success      200  {object}  principalResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /doctors/{id} [get]
func (h *DoctorHandler) Get(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	doctor, err := h.service.Get(c.Request().Context(), token, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPrincipalResponse(doctor))
}

// Update replaces a doctor's profile.
//
// @Summary      Update a doctor profile
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Doctor id"
// @Param        body  body      doctorProfileRequest  true  "New profile"
// @Success      200   {object}  principalResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /doctors/{id} [put]
func (h *DoctorHandler) Update(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req doctorProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doctor, err := h.service.Update(c.Request().Context(), token, id, toProfile(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPrincipalResponse(doctor))
}

// Delete removes a doctor account. Admin only.
//
// @Summary      Delete a doctor
// @Tags         doctors
// @Security     BearerAuth
// @Param        id   path  int  true  "Doctor id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /doctors/{id} [delete]
func (h *DoctorHandler) Delete(c echo.Context) error {
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
	return c.NoContent(http.StatusNoContent)
}
