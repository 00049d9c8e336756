package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScrapeMetrics records full-scrape runs.
type ScrapeMetrics struct {
	runs        *prometheus.CounterVec // By outcome
	games       prometheus.Gauge
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewScrapeMetrics creates the scrape metrics and registers them with reg.
func NewScrapeMetrics(reg prometheus.Registerer) *ScrapeMetrics {
	m := &ScrapeMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "runs_total",
			Help:      "Full-scrape runs by outcome",
		}, []string{"outcome"}),

		games: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "games_total",
			Help:      "Games collected by the last successful scrape",
		}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "duration_seconds",
			Help:      "Wall time of full-scrape runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful scrape",
		}),
	}

	reg.MustRegister(m.runs, m.games, m.duration, m.lastSuccess)
	return m
}

// Observe records one scrape run that collected games and ended with err.
func (m *ScrapeMetrics) Observe(games int, err error, d time.Duration) {
	m.runs.WithLabelValues(Outcome(err)).Inc()
	m.duration.Observe(d.Seconds())
	if err == nil {
		m.games.Set(float64(games))
		m.lastSuccess.SetToCurrentTime()
	}
}
