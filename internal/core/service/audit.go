package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

type discardAudit struct{}

func (discardAudit) Record(context.Context, domain.AuditLevel, string, string) {}

func auditOrDiscard(sink ports.AuditSink) ports.AuditSink {
	if sink == nil {
		return discardAudit{}
	}
	return sink
}

// storageFailure logs the raw error, records a non-revealing audit event and
// hands the caller domain.ErrInternal in its place.
func storageFailure(ctx context.Context, log zerolog.Logger, sink ports.AuditSink, op, actor string, err error) error {
	log.Error().Err(err).Str("op", op).Str("actor", actor).Msg("storage failure")
	sink.Record(ctx, domain.AuditError, fmt.Sprintf("%s failed: storage error", op), actor)
	return domain.ErrInternal
}
