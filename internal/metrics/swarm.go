package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/forzza-swarm/internal/swarm"
)

// SwarmMetrics records Swarm client activity. It implements swarm.Recorder.
type SwarmMetrics struct {
	requests        *prometheus.CounterVec   // By command and outcome
	requestDuration *prometheus.HistogramVec // By command
	pending         prometheus.Gauge
	connects        *prometheus.CounterVec // By outcome
	state           prometheus.Gauge
	framesDropped   *prometheus.CounterVec // By reason
}

var _ swarm.Recorder = (*SwarmMetrics)(nil)

// NewSwarmMetrics creates the Swarm metrics and registers them with reg.
func NewSwarmMetrics(reg prometheus.Registerer) *SwarmMetrics {
	m := &SwarmMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "requests_total",
			Help:      "Requests submitted to Swarm by command and outcome",
		}, []string{"command", "outcome"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "request_duration_seconds",
			Help:      "Time from submit to reply",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"command"}),

		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "pending_requests",
			Help:      "Requests awaiting a reply",
		}),

		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "connects_total",
			Help:      "Connect attempts by outcome",
		}, []string{"outcome"}),

		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "connection_state",
			Help:      "0 disconnected, 1 connecting, 2 connected, 3 closing",
		}),

		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "swarm",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames that matched no pending request",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.pending,
		m.connects,
		m.state,
		m.framesDropped,
	)

	return m
}

func (m *SwarmMetrics) RequestStarted(string) {
	m.pending.Inc()
}

func (m *SwarmMetrics) RequestDone(command string, err error, d time.Duration) {
	m.pending.Dec()
	m.requests.WithLabelValues(command, Outcome(err)).Inc()
	m.requestDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *SwarmMetrics) ConnectDone(err error, _ time.Duration) {
	m.connects.WithLabelValues(Outcome(err)).Inc()
}

func (m *SwarmMetrics) ConnectionState(s swarm.Status) {
	m.state.Set(float64(s))
}

func (m *SwarmMetrics) FrameDropped(reason string) {
	m.framesDropped.WithLabelValues(reason).Inc()
}

// Outcome classifies err into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, swarm.ErrRequestTimeout), errors.Is(err, swarm.ErrConnectTimeout):
		return "timeout"
	case errors.Is(err, swarm.ErrSendFailure):
		return "send_failure"
	case errors.Is(err, swarm.ErrConnectionClosed), errors.Is(err, swarm.ErrClosed):
		return "closed"
	case errors.Is(err, swarm.ErrProtocol), errors.Is(err, swarm.ErrSessionMissing):
		return "protocol"
	case errors.Is(err, swarm.ErrRemote):
		return "remote"
	default:
		return "error"
	}
}
