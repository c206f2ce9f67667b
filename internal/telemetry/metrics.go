// Package telemetry provides Prometheus metrics and report correlation ids.
package telemetry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	EventsIngested  *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	SessionsFlushed prometheus.Counter
	ReportsPosted   *prometheus.CounterVec
	RankUps         prometheus.Counter

	OpenSessionsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{Name: "liveboard_events_ingested_total", Help: "Live-stream events ingested, by kind"}, []string{"kind"})
		SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "liveboard_sessions_started_total", Help: "Broadcast sessions opened"})
		SessionsFlushed = promauto.NewCounter(prometheus.CounterOpts{Name: "liveboard_sessions_flushed_total", Help: "Broadcast sessions flushed to the ledger"})
		ReportsPosted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "liveboard_reports_posted_total", Help: "Leaderboard reports posted, by kind"}, []string{"kind"})
		RankUps = promauto.NewCounter(prometheus.CounterOpts{Name: "liveboard_rankups_total", Help: "Rank-up notifications emitted"})
		OpenSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "liveboard_open_sessions", Help: "Currently open broadcast sessions"})
	})
}

// CountEvent increments the ingest counter for an event kind.
func CountEvent(kind string) {
	if EventsIngested != nil {
		EventsIngested.WithLabelValues(kind).Inc()
	}
}

// CountReport increments the posted-report counter for a report kind.
func CountReport(kind string) {
	if ReportsPosted != nil {
		ReportsPosted.WithLabelValues(kind).Inc()
	}
}

// CountSessionStarted increments the opened-sessions counter.
func CountSessionStarted() {
	if SessionsStarted != nil {
		SessionsStarted.Inc()
	}
}

// CountSessionFlushed increments the flushed-sessions counter.
func CountSessionFlushed() {
	if SessionsFlushed != nil {
		SessionsFlushed.Inc()
	}
}

// CountRankUp increments the rank-up counter.
func CountRankUp() {
	if RankUps != nil {
		RankUps.Inc()
	}
}

// SetOpenSessions records the current number of open sessions.
func SetOpenSessions(n int) {
	if OpenSessionsGauge != nil {
		OpenSessionsGauge.Set(float64(n))
	}
}

// NewReportID returns a correlation id attached to report log lines and
// webhook payloads.
func NewReportID() string {
	return uuid.NewString()
}
