package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/access"
	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

const (
	defaultAuditPage = 50
	maxAuditPage     = 500
)

// AuditService reads the persisted audit trail. It needs a live admin
// session, not just admin claims.
type AuditService struct {
	admins *CredentialStore
	guard  *access.Guard
	reader ports.AuditReader
	log    zerolog.Logger
}

var _ ports.AuditService = (*AuditService)(nil)

// NewAuditService builds the reader side of the audit trail. A nil reader
// means events are log-only and Recent reports ErrUnsupported.
func NewAuditService(admins *CredentialStore, guard *access.Guard, reader ports.AuditReader, log zerolog.Logger) *AuditService {
	return &AuditService{admins: admins, guard: guard, reader: reader, log: log}
}

// Recent returns up to limit events, newest first. Non-positive limits use
// the default page; larger ones are capped.
func (s *AuditService) Recent(ctx context.Context, token string, limit int) ([]domain.AuditEvent, error) {
	admin, err := s.guard.RequireSession(ctx, s.admins, token, access.OpListAudit)
	if err != nil {
		return nil, err
	}
	if s.reader == nil {
		return nil, domain.ErrUnsupported
	}

	switch {
	case limit <= 0:
		limit = defaultAuditPage
	case limit > maxAuditPage:
		limit = maxAuditPage
	}

	events, err := s.reader.Recent(ctx, limit)
	if err != nil {
		return nil, storageFailure(ctx, s.log, discardAudit{}, "audit list", actor(admin.ID), err)
	}
	return events, nil
}
