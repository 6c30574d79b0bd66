package ports

import (
	"context"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

// AuditSink receives leveled events from the core. Record never blocks on
// delivery and never fails the caller.
type AuditSink interface {
	Record(ctx context.Context, level domain.AuditLevel, message, actorID string)
}

// AuditRepository is the durable store behind the audit sink.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// AuditReader reads back persisted events, newest first.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
