package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/core/ports"
)

// AdminHandler serves admin registration, session lifecycle and
// admin-only provisioning.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Register creates a new admin account.
//
// @Summary      Register an admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      adminCredentialsRequest  true  "Admin credentials"
// @Success      201   {object}  principalResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/register [post]
func (h *AdminHandler) Register(c echo.Context) error {
	var req adminCredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin, err := h.service.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPrincipalResponse(admin))
}

// Login opens a session for an admin and returns the token pair.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      adminCredentialsRequest  true  "Admin credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/login [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminCredentialsRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	admin, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	observeLogin("admin", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(admin))
}

// Logout clears the caller's session.
//
// @Summary      Admin logout
// @Tags         admin
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /admin/logout [post]
func (h *AdminHandler) Logout(c echo.Context) error {
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
// @Summary      Refresh an admin session
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/refresh [post]
func (h *AdminHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin, err := h.service.Refresh(c.Request().Context(), req.RefreshToken)
	observeLogin("admin", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(admin))
}

// List returns every admin.
//
// @Summary      List admins
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listPrincipalsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admins [get]
func (h *AdminHandler) List(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	admins, err := h.service.List(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListPrincipalsResponse(admins))
}

// RegisterDoctor provisions a doctor account. Admin only.
//
// @Summary      Register a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerDoctorRequest  true  "Doctor account and profile"
// @Success      201   {object}  principalResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /doctor/register [post]
func (h *AdminHandler) RegisterDoctor(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	var req registerDoctorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doctor, err := h.service.RegisterDoctor(c.Request().Context(), token, toRegisterDoctorInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPrincipalResponse(doctor))
}
