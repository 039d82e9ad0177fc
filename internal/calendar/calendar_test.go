package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

type logRecorder struct {
	mu      sync.Mutex
	entries []domain.SyncLog
}

func (r *logRecorder) AppendSyncLog(_ context.Context, entry domain.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func newTestSyncer(logs SyncLogWriter, latency time.Duration) Syncer {
	n := 0
	return NewSyncer(Options{
		Enabled: true,
		Latency: latency,
		Logs:    logs,
		NewID: func() string {
			n++
			return fmt.Sprintf("id%d", n)
		},
	})
}

func TestSyncSessionCreatesThenUpdates(t *testing.T) {
	rec := &logRecorder{}
	c := newTestSyncer(rec, 0)
	sess := domain.NewSession("s1", "2024-05-20", domain.MustTimeOfDay("09:00"), time.Now())

	id, ok := c.SyncSession(context.Background(), sess, "staff-1")
	if !ok || !strings.HasPrefix(id, "gevent_") {
		t.Fatalf("unexpected create result %q %v", id, ok)
	}
	sess.CalendarEventID = id
	again, ok := c.SyncSession(context.Background(), sess, "staff-1")
	if !ok || again != id {
		t.Fatalf("update should keep the event id, got %q", again)
	}

	if len(rec.entries) != 2 {
		t.Fatalf("expected 2 sync logs, got %d", len(rec.entries))
	}
	if rec.entries[0].Action != domain.SyncCreate || rec.entries[1].Action != domain.SyncUpdate {
		t.Fatalf("unexpected actions %s, %s", rec.entries[0].Action, rec.entries[1].Action)
	}
	if rec.entries[0].Status != domain.SyncSuccess || rec.entries[0].EntityID != "s1" || rec.entries[0].UserID != "staff-1" {
		t.Fatalf("unexpected log %+v", rec.entries[0])
	}
	if !rec.entries[0].Timestamp.IsZero() {
		t.Fatalf("timestamp is stamped by the log writer, got %v", rec.entries[0].Timestamp)
	}
}

func TestSyncSessionCancelledLogsError(t *testing.T) {
	rec := &logRecorder{}
	c := newTestSyncer(rec, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id, ok := c.SyncSession(ctx, domain.Session{ID: "s1"}, "staff-1")
	if ok || id != "" {
		t.Fatalf("expected failure, got %q %v", id, ok)
	}
	if len(rec.entries) != 1 || rec.entries[0].Status != domain.SyncError {
		t.Fatalf("expected one ERROR log, got %+v", rec.entries)
	}
}

func TestDisabledCalendarDoesNothing(t *testing.T) {
	rec := &logRecorder{}
	c := NewSyncer(Options{Logs: rec, NewID: func() string { return "x" }})
	if _, ok := c.SyncSession(context.Background(), domain.Session{ID: "s1"}, "staff-1"); ok {
		t.Fatal("disabled calendar reported success")
	}
	c.DeleteEvent(context.Background(), "gevent_x", "staff-1")
	if len(rec.entries) != 0 {
		t.Fatalf("disabled calendar wrote logs: %+v", rec.entries)
	}
}

func TestDeleteEventLogs(t *testing.T) {
	rec := &logRecorder{}
	c := newTestSyncer(rec, 0)
	c.DeleteEvent(context.Background(), "gevent_1", "staff-1")
	if len(rec.entries) != 1 || rec.entries[0].Action != domain.SyncDelete || rec.entries[0].CalendarEventID != "gevent_1" {
		t.Fatalf("unexpected delete log %+v", rec.entries)
	}
}
