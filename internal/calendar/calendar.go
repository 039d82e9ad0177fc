// Package calendar is the external calendar collaborator. The current
// implementation simulates the remote API: it waits a configurable latency,
// hands out stable event ids and records every attempt in the sync log.
package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/metrics"
)

// DefaultLatency approximates a round trip to the calendar API.
const DefaultLatency = 800 * time.Millisecond

// Syncer pushes sessions to the external calendar. Failures never propagate:
// SyncSession reports ok=false and the caller carries on.
type Syncer interface {
	SyncSession(ctx context.Context, sess domain.Session, actorID string) (eventID string, ok bool)
	DeleteEvent(ctx context.Context, eventID, actorID string)
}

// SyncLogWriter records sync attempts; the document store implements it.
type SyncLogWriter interface {
	AppendSyncLog(ctx context.Context, entry domain.SyncLog) error
}

// Options configures the simulated calendar.
type Options struct {
	Enabled bool
	Latency time.Duration
	Logs    SyncLogWriter
	NewID   func() string
	Metrics *metrics.Metrics
}

type stubCalendar struct {
	enabled bool
	latency time.Duration
	logs    SyncLogWriter
	newID   func() string
	metrics *metrics.Metrics
}

// NewSyncer returns the simulated calendar.
func NewSyncer(opts Options) Syncer {
	return &stubCalendar{
		enabled: opts.Enabled,
		latency: opts.Latency,
		logs:    opts.Logs,
		newID:   opts.NewID,
		metrics: opts.Metrics,
	}
}

// SyncSession creates the event, or updates it when the session already has
// one. It returns the event id to attach to the session.
func (c *stubCalendar) SyncSession(ctx context.Context, sess domain.Session, actorID string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	action := domain.SyncCreate
	if sess.CalendarEventID != "" {
		action = domain.SyncUpdate
	}
	log.Printf("INFO: Calendar %s for session %s on %s %s", action, sess.ID, sess.Date, sess.StartTime)

	if err := c.wait(ctx, c.latency); err != nil {
		c.record(ctx, domain.SyncLog{
			UserID:   actorID,
			EntityID: sess.ID,
			Action:   action,
			Status:   domain.SyncError,
			Message:  fmt.Sprintf("Calendar sync failed: %v", err),
		})
		return "", false
	}

	eventID := sess.CalendarEventID
	if eventID == "" {
		eventID = "gevent_" + c.newID()
	}
	c.record(ctx, domain.SyncLog{
		UserID:          actorID,
		EntityID:        sess.ID,
		Action:          action,
		CalendarEventID: eventID,
		Status:          domain.SyncSuccess,
		Message:         fmt.Sprintf("Session synced: %s %s", sess.Date, sess.StartTime),
	})
	return eventID, true
}

// DeleteEvent removes an event from the calendar.
func (c *stubCalendar) DeleteEvent(ctx context.Context, eventID, actorID string) {
	if !c.enabled || eventID == "" {
		return
	}
	log.Printf("INFO: Calendar DELETE event %s", eventID)
	if err := c.wait(ctx, c.latency*5/8); err != nil {
		log.Printf("ERROR: Failed to delete calendar event %s: %v", eventID, err)
		c.metrics.CalendarSync(string(domain.SyncDelete), string(domain.SyncError))
		return
	}
	c.record(ctx, domain.SyncLog{
		UserID:          actorID,
		EntityID:        "N/A",
		Action:          domain.SyncDelete,
		CalendarEventID: eventID,
		Status:          domain.SyncSuccess,
		Message:         "Event removed from calendar.",
	})
}

func (c *stubCalendar) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *stubCalendar) record(ctx context.Context, entry domain.SyncLog) {
	c.metrics.CalendarSync(string(entry.Action), string(entry.Status))
	if c.logs == nil {
		return
	}
	entry.ID = c.newID()
	// The log write must outlive a cancelled request.
	if err := c.logs.AppendSyncLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("ERROR: Failed to record calendar sync log: %v", err)
	}
}
