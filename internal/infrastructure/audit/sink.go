// Package audit delivers core audit events to the console log and, through
// a sharded background queue, to durable storage.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
	"github.com/mediciel/clinic-records/internal/infrastructure/queue"
)

const anonymousShard = "-"

// Options tunes a Sink.
type Options struct {
	Workers int
	// Dropped is incremented when an event is discarded because the queue is full.
	Dropped prometheus.Counter
	Clock   func() time.Time
}

// Sink implements ports.AuditSink. Record writes one log line synchronously
// and hands the event to the queue without waiting for persistence.
type Sink struct {
	repo    ports.AuditRepository
	queue   *queue.Dispatcher[domain.AuditEvent]
	log     zerolog.Logger
	dropped prometheus.Counter
	now     func() time.Time
}

var _ ports.AuditSink = (*Sink)(nil)

// NewSink builds a sink. A nil repo makes it log-only.
func NewSink(repo ports.AuditRepository, log zerolog.Logger, opts Options) *Sink {
	s := &Sink{
		repo:    repo,
		log:     log.With().Str("component", "audit").Logger(),
		dropped: opts.Dropped,
		now:     opts.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if repo != nil {
		s.queue = queue.NewDispatcher(opts.Workers, shardKey, s.persist, s.log)
	}
	return s
}

// Start launches the persistence workers.
func (s *Sink) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (s *Sink) Close() {
	if s.queue != nil {
		s.queue.Close()
		s.queue.Wait()
	}
}

// Pending returns the number of events queued but not yet persisted.
func (s *Sink) Pending() int {
	if s.queue == nil {
		return 0
	}
	return s.queue.Depth()
}

func (s *Sink) Record(_ context.Context, level domain.AuditLevel, message, actorID string) {
	ev := domain.AuditEvent{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		ActorID:   actorID,
		Timestamp: s.now().UTC(),
	}

	s.logLine(ev)

	if s.queue == nil {
		return
	}
	if !s.queue.TryEnqueue(ev) {
		if s.dropped != nil {
			s.dropped.Inc()
		}
		s.log.Warn().Str("audit_id", ev.ID).Msg("audit queue full, event not persisted")
	}
}

func (s *Sink) logLine(ev domain.AuditEvent) {
	var e *zerolog.Event
	switch ev.Level {
	case domain.AuditError:
		e = s.log.Error()
	case domain.AuditWarning:
		e = s.log.Warn()
	default:
		e = s.log.Info()
	}
	e = e.Str("audit_id", ev.ID).Str("audit_level", string(ev.Level))
	if ev.ActorID != "" {
		e = e.Str("actor_id", ev.ActorID)
	}
	e.Msg(ev.Message)
}

// persist runs on a queue worker; the caller that recorded the event has
// long returned, so failures are only logged.
func (s *Sink) persist(ctx context.Context, ev domain.AuditEvent) error {
	return s.repo.Insert(ctx, ev)
}

func shardKey(ev domain.AuditEvent) string {
	if ev.ActorID == "" {
		return anonymousShard
	}
	return ev.ActorID
}
