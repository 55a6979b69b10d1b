package api

import (
	"context"
	"net/http"
	"time"
)

type healthStatus struct {
	Status        string            `json:"status"`
	MQTTConnected bool              `json:"mqtt_connected"`
	StorageOK     bool              `json:"storage_ok"`
	Breakers      map[string]string `json:"breakers,omitempty"`
}

func (s *Server) storageOK(ctx context.Context) bool {
	if s.deps.Store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.deps.Store.Ping(ctx) == nil
}

// handleHealth always answers 200; status is ok, degraded or down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := healthStatus{
		MQTTConnected: s.deps.Events != nil && s.deps.Events.Connected(),
		StorageOK:     s.storageOK(r.Context()),
	}
	if s.deps.Breakers != nil {
		st.Breakers = s.deps.Breakers()
	}

	open := 0
	for _, state := range st.Breakers {
		if state == "open" {
			open++
		}
	}
	eventsOK := s.deps.Events == nil || st.MQTTConnected
	switch {
	case st.StorageOK && eventsOK && open == 0:
		st.Status = "ok"
	case st.StorageOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	writeJSON(w, http.StatusOK, st)
}

// handleReady answers 200 only when storage answers and, if configured, the broker is connected.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.storageOK(r.Context())
	if s.deps.Events != nil && !s.deps.Events.Connected() {
		ready = false
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, struct {
		Ready bool `json:"ready"`
	}{ready})
}
