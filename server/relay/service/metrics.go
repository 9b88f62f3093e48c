package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const OutcomeSuccess = "success"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	uploadsTotal    *prometheus.CounterVec
	relayedBytes    prometheus.Counter
	upstreamLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "snd",
				Subsystem: "relay",
				Name:      "uploads_total",
				Help:      "Upload requests by final outcome",
			},
			[]string{"outcome"},
		),
		relayedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "snd",
				Subsystem: "relay",
				Name:      "relayed_bytes_total",
				Help:      "Video bytes accepted by the upstream store",
			},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "snd",
				Subsystem: "relay",
				Name:      "upstream_duration_seconds",
				Help:      "Duration of sendVideo calls",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~14min
			},
			[]string{"ok"},
		),
	}
	reg.MustRegister(m.uploadsTotal, m.relayedBytes, m.upstreamLatency)
	return m
}

func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeUpstream(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	label := "false"
	if ok {
		label = "true"
	}
	m.upstreamLatency.WithLabelValues(label).Observe(d.Seconds())
}

func (m *Metrics) addRelayedBytes(n int64) {
	if m == nil {
		return
	}
	m.relayedBytes.Add(float64(n))
}
