package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/repository/memory"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// monday0910 falls inside the 09:00 slot of Monday 2024-05-20.
var monday0910 = time.Date(2024, 5, 20, 9, 10, 0, 0, time.UTC)

const testMonday domain.Date = "2024-05-20"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestStore(t *testing.T, students ...domain.Student) (*store.Store, *testClock) {
	t.Helper()
	clock := &testClock{now: monday0910}
	s := store.New(store.Options{
		Backend:      memory.NewBackend(),
		SchemaTag:    "service-test",
		SeedStudents: students,
		Clock:        clock.Now,
	})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func recurring(id, name string, day time.Weekday, hhmm string) domain.Student {
	return domain.Student{
		ID:             id,
		Name:           name,
		Active:         true,
		StudentType:    domain.StudentFixed,
		WeeklySchedule: []domain.ScheduleEntry{{Day: day, Time: domain.MustTimeOfDay(hhmm)}},
	}
}

func dropIn(id, name string) domain.Student {
	return domain.Student{ID: id, Name: name, Active: true, StudentType: domain.StudentDropIn}
}

func mustRead(t *testing.T, ds DocumentStore) *domain.Document {
	t.Helper()
	doc, err := ds.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return doc
}

func lastAudit(t *testing.T, ds DocumentStore) domain.AuditLog {
	t.Helper()
	doc := mustRead(t, ds)
	if len(doc.AuditLogs) == 0 {
		t.Fatal("expected an audit entry")
	}
	return doc.AuditLogs[0]
}
