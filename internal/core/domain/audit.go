package domain

import "time"

// AuditLevel is the severity of an audit event.
type AuditLevel string

const (
	AuditInfo    AuditLevel = "INFO"
	AuditWarning AuditLevel = "WARNING"
	AuditError   AuditLevel = "ERROR"
)

// AuditEvent is an append-only trace of something the core did or refused to do.
type AuditEvent struct {
	ID        string
	Level     AuditLevel
	Message   string
	ActorID   string // optional
	Timestamp time.Time
}
