package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

// DefaultKeepAlive is the interval of ping events on idle streams.
const DefaultKeepAlive = 25 * time.Second

// Subscriber is the change notification side of the document store.
type Subscriber interface {
	Subscribe(fn func()) (unsubscribe func())
}

// EventsHandler streams document change notifications as server-sent events.
type EventsHandler struct {
	subscriber Subscriber
	keepAlive  time.Duration
}

func NewEventsHandler(subscriber Subscriber, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &EventsHandler{subscriber: subscriber, keepAlive: keepAlive}
}

// Stream godoc
// @Summary Change notifications
// @Description Sends a "ready" event once subscribed, then one DATA_UPDATED message per committed write. Clients re-read what they display.
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	// Bursts of writes collapse into one pending notification.
	updates := make(chan struct{}, 1)
	unsubscribe := h.subscriber.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.SSEvent("ready", "subscribed")
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-updates:
			c.SSEvent("message", repository.UpdatedMessage)
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}
