// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections is the number of open websocket connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sw1_ws_connections",
		Help: "Open websocket connections",
	})

	// Events counts inbound real-time events by name and outcome.
	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sw1_ws_events_total",
		Help: "Inbound real-time events by event name and result",
	}, []string{"event", "result"})

	// DroppedFrames counts outbound frames dropped because a client's
	// send buffer was full.
	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sw1_ws_dropped_frames_total",
		Help: "Outbound frames dropped on slow clients",
	})

	// AIRequests counts completions by backend and result (ok, canned, error).
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sw1_ai_requests_total",
		Help: "Assistant completions by backend and result",
	}, []string{"backend", "result"})

	// AILatency tracks end-to-end completion latency.
	AILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sw1_ai_request_duration_seconds",
		Help:    "Assistant completion latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"backend"})

	// EditScripts counts replies that carried an applicable edit script.
	EditScripts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sw1_ai_edit_scripts_total",
		Help: "Assistant replies carrying a diagram edit script",
	})
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultCanned   = "canned"
	ResultRejected = "rejected"
)
