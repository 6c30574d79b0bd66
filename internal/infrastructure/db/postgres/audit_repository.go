package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

const insertAuditLog = `INSERT INTO audit_logs (id, level, message, actor_id, created_at) VALUES ($1, $2, $3, $4, $5)`

const selectRecentAuditLogs = `SELECT id, level, message, actor_id, created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`

// AuditRepository appends audit events to audit_logs.
type AuditRepository struct {
	db *sql.DB
}

var (
	_ ports.AuditRepository = (*AuditRepository)(nil)
	_ ports.AuditReader     = (*AuditRepository)(nil)
)

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var actor sql.NullString
	if e.ActorID != "" {
		actor = sql.NullString{String: e.ActorID, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, insertAuditLog, e.ID, string(e.Level), e.Message, actor, e.Timestamp.UTC()); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Recent returns the newest limit events, newest first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectRecentAuditLogs, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			e     domain.AuditEvent
			level string
			actor sql.NullString
			ts    time.Time
		)
		if err := rows.Scan(&e.ID, &level, &e.Message, &actor, &ts); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.Level = domain.AuditLevel(level)
		e.ActorID = actor.String
		e.Timestamp = ts.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return out, nil
}

// Ping is used by the readiness probe.
func (r *AuditRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
