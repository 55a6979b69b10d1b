package event

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"
)

// Writer wraps the async WriteAPI and remembers the last write error for the probes.
type Writer struct {
	api     api.WriteAPI
	mu      sync.RWMutex
	lastErr time.Time
	lastIn  time.Time
	counts  map[string]int64
}

// NewWriter starts draining the write error channel.
func NewWriter(w api.WriteAPI) *Writer {
	ww := &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				ww.markError()
				logrus.WithError(err).Warn("event-svc: influx write error")
			}
		}
	}()
	return ww
}

func (w *Writer) markError() {
	w.mu.Lock()
	w.lastErr = time.Now()
	w.mu.Unlock()
}

// Write queues the event and counts it.
func (w *Writer) Write(evt CommonEvent) {
	w.api.WritePoint(EventToPoint(evt))
	w.MarkIngest(evt.EventType)
}

func (w *Writer) Flush() {
	if w != nil {
		w.api.Flush()
	}
}

// LastErrorAge is the time since the last write error; large when never initialized.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

func (w *Writer) MarkIngest(eventType string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.counts[eventType]++
	w.lastIn = time.Now()
	w.mu.Unlock()
}

// LastIngestAge is the time since the last stored event; ok is false before the first one.
func (w *Writer) LastIngestAge() (time.Duration, bool) {
	if w == nil {
		return 0, false
	}
	w.mu.RLock()
	t := w.lastIn
	w.mu.RUnlock()
	if t.IsZero() {
		return 0, false
	}
	return time.Since(t), true
}

// Counts returns a copy of the per-type ingest counters.
func (w *Writer) Counts() map[string]int64 {
	out := map[string]int64{}
	if w == nil {
		return out
	}
	w.mu.RLock()
	for k, v := range w.counts {
		out[k] = v
	}
	w.mu.RUnlock()
	return out
}
