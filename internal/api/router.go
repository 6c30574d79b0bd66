package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mediciel/clinic-records/docs" // swagger spec registration
	"github.com/mediciel/clinic-records/internal/api/handler"
	"github.com/mediciel/clinic-records/internal/api/middleware"
	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// Dependencies are the wired services the router exposes over HTTP.
type Dependencies struct {
	Admins  ports.AdminService
	Doctors ports.DoctorService
	Records ports.RecordService
	Audit   ports.AuditService
	Tokens  ports.TokenVerifier

	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem: "clinic",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	auth := middleware.Auth(d.Tokens)
	can := middleware.RequirePermission

	adminHandler := handler.NewAdminHandler(d.Admins)
	doctorHandler := handler.NewDoctorHandler(d.Doctors)
	recordHandler := handler.NewRecordHandler(d.Records)
	auditHandler := handler.NewAuditHandler(d.Audit)

	// --- Admin routes ---
	e.POST("/admin/register", adminHandler.Register)
	e.POST("/admin/login", adminHandler.Login)
	e.POST("/admin/refresh", adminHandler.Refresh)
	e.POST("/admin/logout", adminHandler.Logout, auth)
	e.GET("/admins", adminHandler.List, auth, can(access.OpListAdmins))

	// --- Doctor session routes ---
	e.POST("/doctor/register", adminHandler.RegisterDoctor, auth, can(access.OpRegisterDoctor))
	e.POST("/doctor/login", doctorHandler.Login)
	e.POST("/doctor/refresh", doctorHandler.Refresh)
	e.POST("/doctor/logout", doctorHandler.Logout, auth)

	// --- Doctor directory ---
	doctors := e.Group("/doctors", auth)
	doctors.GET("", doctorHandler.List, can(access.OpListDoctors))
	doctors.GET("/search", doctorHandler.Search, can(access.OpSearchDoctors))
	doctors.GET("/:id", doctorHandler.Get, can(access.OpViewDoctor))
	doctors.PUT("/:id", doctorHandler.Update, can(access.OpUpdateDoctor))
	doctors.DELETE("/:id", doctorHandler.Delete, can(access.OpDeleteDoctor))

	// --- Medical records ---
	records := e.Group("/records", auth)
	records.POST("", recordHandler.Create, can(access.OpCreateRecord))
	records.GET("", recordHandler.ListMine, can(access.OpListOwnRecords))
	records.GET("/:id", recordHandler.Get, can(access.OpReadRecord))
	records.PUT("/:id", recordHandler.Update, can(access.OpUpdateRecord))
	records.DELETE("/:id", recordHandler.Delete, can(access.OpDeleteRecord))
	e.GET("/medicalrecords", recordHandler.ListAll, auth, can(access.OpListAllRecords))

	// --- Audit trail ---
	e.GET("/audit", auditHandler.Recent, auth, can(access.OpListAudit))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks, d.Log)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request. Authorization headers
// and bodies are never logged.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
