package event

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// BrokerConn is the broker state the probes look at; mqtt.Client satisfies it.
type BrokerConn interface {
	IsConnectionOpen() bool
}

// Pinger is the InfluxDB liveness call; influxdb2.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) (bool, error)
}

// Probe backs /healthz and /readyz for the event service.
type Probe struct {
	broker   BrokerConn
	influx   Pinger
	writer   *Writer
	started  time.Time
	grace    time.Duration // readiness is withheld this long after start
	errQuiet time.Duration // a write error younger than this makes the service unready
	now      func() time.Time
}

func NewProbe(broker BrokerConn, influx Pinger, w *Writer, grace time.Duration) *Probe {
	return &Probe{
		broker:   broker,
		influx:   influx,
		writer:   w,
		started:  time.Now(),
		grace:    grace,
		errQuiet: 30 * time.Second,
		now:      time.Now,
	}
}

type probeStatus struct {
	Status          string           `json:"status"`
	MQTTConnected   bool             `json:"mqtt_connected"`
	InfluxOK        bool             `json:"influx_ok"`
	LastWriteErrorS float64          `json:"last_write_error_age_sec"`
	LastIngestS     *float64         `json:"last_ingest_age_sec"`
	Ingested        map[string]int64 `json:"ingested"`
}

func (p *Probe) check(ctx context.Context) probeStatus {
	st := probeStatus{
		MQTTConnected:   p.broker != nil && p.broker.IsConnectionOpen(),
		LastWriteErrorS: p.writer.LastErrorAge().Seconds(),
		Ingested:        p.writer.Counts(),
	}
	if p.influx != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok, err := p.influx.Ping(pctx)
		cancel()
		st.InfluxOK = ok && err == nil
	}
	if age, ok := p.writer.LastIngestAge(); ok {
		s := age.Seconds()
		st.LastIngestS = &s
	}

	switch {
	case st.MQTTConnected && st.InfluxOK && p.writer.LastErrorAge() > p.errQuiet:
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	return st
}

// Health always answers 200 with the dependency breakdown.
func (p *Probe) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p.check(r.Context()))
}

// Ready answers 200 once the grace period is over and the status is ok.
func (p *Probe) Ready(w http.ResponseWriter, r *http.Request) {
	ready := p.now().Sub(p.started) >= p.grace && p.check(r.Context()).Status == "ok"
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}
