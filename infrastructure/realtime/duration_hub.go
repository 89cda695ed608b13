package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	eventDurationChanged = "duration_changed"
	subscriberBuffer     = 16
)

// Hub streams committed duration changes to operators watching a
// recalculation run over server-sent events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan model.DurationChangedEvent]string
}

var _ repository.IDurationEventPublisher = (*Hub)(nil)

func NewDurationHub() *Hub {
	return &Hub{subscribers: make(map[chan model.DurationChangedEvent]string)}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
// An optional runId query parameter narrows the stream to one run.
func (h *Hub) Serve(c *gin.Context) {
	if c.GetString("user_id") == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.DurationChangedEvent, subscriberBuffer)
	h.addSubscriber(ch, c.Query("runId"))
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = c.Writer.Write([]byte("event: " + eventDurationChanged + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// PublishDurationChanged never blocks; slow subscribers drop events.
func (h *Hub) PublishDurationChanged(_ context.Context, event model.DurationChangedEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, runID := range h.subscribers {
		if runID != "" && runID != event.RunID {
			continue
		}
		select { // non-blocking
		case ch <- event:
		default:
			logger.GetLogger().WithField("runId", event.RunID).Debug("Dropping duration event for slow subscriber")
		}
	}
	return nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) addSubscriber(ch chan model.DurationChangedEvent, runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = runID
}

func (h *Hub) removeSubscriber(ch chan model.DurationChangedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}
