package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mediciel/clinic-records/internal/api/middleware"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

var errNotStubbed = errors.New("not stubbed")

type stubAdminService struct {
	registerFn       func(ctx context.Context, username, password string) (*domain.Principal, error)
	loginFn          func(ctx context.Context, username, password string) (*domain.Principal, error)
	logoutFn         func(ctx context.Context, token string) error
	refreshFn        func(ctx context.Context, refreshToken string) (*domain.Principal, error)
	listFn           func(ctx context.Context, token string) ([]*domain.Principal, error)
	registerDoctorFn func(ctx context.Context, token string, input ports.RegisterDoctorInput) (*domain.Principal, error)
}

func (s *stubAdminService) Register(ctx context.Context, username, password string) (*domain.Principal, error) {
	if s.registerFn == nil {
		return nil, errNotStubbed
	}
	return s.registerFn(ctx, username, password)
}

func (s *stubAdminService) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	if s.loginFn == nil {
		return nil, errNotStubbed
	}
	return s.loginFn(ctx, username, password)
}

func (s *stubAdminService) Logout(ctx context.Context, token string) error {
	if s.logoutFn == nil {
		return errNotStubbed
	}
	return s.logoutFn(ctx, token)
}

func (s *stubAdminService) Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	if s.refreshFn == nil {
		return nil, errNotStubbed
	}
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAdminService) List(ctx context.Context, token string) ([]*domain.Principal, error) {
	if s.listFn == nil {
		return nil, errNotStubbed
	}
	return s.listFn(ctx, token)
}

func (s *stubAdminService) RegisterDoctor(ctx context.Context, token string, input ports.RegisterDoctorInput) (*domain.Principal, error) {
	if s.registerDoctorFn == nil {
		return nil, errNotStubbed
	}
	return s.registerDoctorFn(ctx, token, input)
}

type stubDoctorService struct {
	loginFn   func(ctx context.Context, matricule, password string) (*domain.Principal, error)
	logoutFn  func(ctx context.Context, token string) error
	refreshFn func(ctx context.Context, refreshToken string) (*domain.Principal, error)
	getFn     func(ctx context.Context, token string, id int64) (*domain.Principal, error)
	searchFn  func(ctx context.Context, token string, filter ports.PrincipalFilter) ([]*domain.Principal, error)
	listFn    func(ctx context.Context, token string) ([]*domain.Principal, error)
	updateFn  func(ctx context.Context, token string, id int64, profile domain.DoctorProfile) (*domain.Principal, error)
	deleteFn  func(ctx context.Context, token string, id int64) error
}

func (s *stubDoctorService) Login(ctx context.Context, matricule, password string) (*domain.Principal, error) {
	if s.loginFn == nil {
		return nil, errNotStubbed
	}
	return s.loginFn(ctx, matricule, password)
}

func (s *stubDoctorService) Logout(ctx context.Context, token string) error {
	if s.logoutFn == nil {
		return errNotStubbed
	}
	return s.logoutFn(ctx, token)
}

func (s *stubDoctorService) Refresh(ctx context.Context, refreshToken string) (*domain.Principal, error) {
	if s.refreshFn == nil {
		return nil, errNotStubbed
	}
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubDoctorService) Get(ctx context.Context, token string, id int64) (*domain.Principal, error) {
	if s.getFn == nil {
		return nil, errNotStubbed
	}
	return s.getFn(ctx, token, id)
}

func (s *stubDoctorService) Search(ctx context.Context, token string, filter ports.PrincipalFilter) ([]*domain.Principal, error) {
	if s.searchFn == nil {
		return nil, errNotStubbed
	}
	return s.searchFn(ctx, token, filter)
}

func (s *stubDoctorService) List(ctx context.Context, token string) ([]*domain.Principal, error) {
	if s.listFn == nil {
		return nil, errNotStubbed
	}
	return s.listFn(ctx, token)
}

func (s *stubDoctorService) Update(ctx context.Context, token string, id int64, profile domain.DoctorProfile) (*domain.Principal, error) {
	if s.updateFn == nil {
		return nil, errNotStubbed
	}
	return s.updateFn(ctx, token, id, profile)
}

func (s *stubDoctorService) Delete(ctx context.Context, token string, id int64) error {
	if s.deleteFn == nil {
		return errNotStubbed
	}
	return s.deleteFn(ctx, token, id)
}

type stubRecordService struct {
	createFn   func(ctx context.Context, token string, input ports.RecordInput) (*domain.MedicalRecord, error)
	updateFn   func(ctx context.Context, token string, id int64, input ports.RecordInput) (*domain.MedicalRecord, error)
	deleteFn   func(ctx context.Context, token string, id int64) error
	getFn      func(ctx context.Context, token string, id int64) (*domain.MedicalRecord, error)
	listMineFn func(ctx context.Context, token string) ([]*domain.MedicalRecord, error)
	listAllFn  func(ctx context.Context, token string) ([]*domain.MedicalRecord, error)
}

func (s *stubRecordService) Create(ctx context.Context, token string, input ports.RecordInput) (*domain.MedicalRecord, error) {
	if s.createFn == nil {
		return nil, errNotStubbed
	}
	return s.createFn(ctx, token, input)
}

func (s *stubRecordService) Update(ctx context.Context, token string, id int64, input ports.RecordInput) (*domain.MedicalRecord, error) {
	if s.updateFn == nil {
		return nil, errNotStubbed
	}
	return s.updateFn(ctx, token, id, input)
}

func (s *stubRecordService) Delete(ctx context.Context, token string, id int64) error {
	if s.deleteFn == nil {
		return errNotStubbed
	}
	return s.deleteFn(ctx, token, id)
}

func (s *stubRecordService) Get(ctx context.Context, token string, id int64) (*domain.MedicalRecord, error) {
	if s.getFn == nil {
		return nil, errNotStubbed
	}
	return s.getFn(ctx, token, id)
}

func (s *stubRecordService) ListMine(ctx context.Context, token string) ([]*domain.MedicalRecord, error) {
	if s.listMineFn == nil {
		return nil, errNotStubbed
	}
	return s.listMineFn(ctx, token)
}

func (s *stubRecordService) ListAll(ctx context.Context, token string) ([]*domain.MedicalRecord, error) {
	if s.listAllFn == nil {
		return nil, errNotStubbed
	}
	return s.listAllFn(ctx, token)
}

// newContext builds an echo context with the validator registered and, when
// token is non-empty, the value the Auth middleware would have injected.
func newContext(method, target, body, token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if token != "" {
		c.Set(middleware.TokenKey, token)
	}
	return c, rec
}

// httpStatus returns the status carried by an *echo.HTTPError, or 0.
func httpStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
