package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/mediciel/clinic-records/internal/core/domain"
)

type stubAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (r *stubAuditRepo) Insert(_ context.Context, e domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func TestSink_PersistsAsynchronously(t *testing.T) {
	repo := &stubAuditRepo{}
	ts := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	sink := NewSink(repo, zerolog.Nop(), Options{Workers: 2, Clock: func() time.Time { return ts }})
	sink.Start(context.Background())

	sink.Record(context.Background(), domain.AuditInfo, "Doctor logged in", "3")
	sink.Record(context.Background(), domain.AuditWarning, "Doctor login failed", "")
	sink.Close()

	if len(repo.events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(repo.events))
	}
	for _, e := range repo.events {
		if e.ID == "" || !e.Timestamp.Equal(ts) {
			t.Fatalf("expected id and timestamp on %+v", e)
		}
	}
}

func TestSink_WritesLogLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(nil, zerolog.New(&buf), Options{})

	sink.Record(context.Background(), domain.AuditError, "list failed: storage error", "9")

	line := buf.String()
	for _, want := range []string{`"level":"error"`, `"audit_level":"ERROR"`, `"actor_id":"9"`, `"message":"list failed: storage error"`, `"component":"audit"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestSink_RepositoryFailureDoesNotReachCaller(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("db down")}
	sink := NewSink(repo, zerolog.Nop(), Options{Workers: 1})
	sink.Start(context.Background())

	sink.Record(context.Background(), domain.AuditInfo, "Admin registered", "1")
	sink.Close()

	if len(repo.events) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestSink_DropsWhenQueueFull(t *testing.T) {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_audit_dropped_total"})
	repo := &stubAuditRepo{}
	// never started, so the single worker buffer fills up
	sink := NewSink(repo, zerolog.Nop(), Options{Workers: 1, Dropped: dropped})

	for i := 0; i < 300; i++ {
		sink.Record(context.Background(), domain.AuditInfo, "Doctor logged in", "3")
	}

	var m dto.Metric
	if err := dropped.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 300-256 {
		t.Fatalf("expected %d drops, got %v", 300-256, got)
	}
	if got := sink.Pending(); got != 256 {
		t.Fatalf("expected 256 pending events, got %d", got)
	}
}

func TestSink_PendingWithoutRepository(t *testing.T) {
	sink := NewSink(nil, zerolog.Nop(), Options{})
	sink.Record(context.Background(), domain.AuditWarning, "Admin login failed", "")
	if got := sink.Pending(); got != 0 {
		t.Fatalf("log-only sink must report 0 pending, got %d", got)
	}
}
