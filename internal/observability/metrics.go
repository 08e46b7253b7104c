package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntrabook_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syntrabook_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VotesCast counts ledger votes by target kind and direction.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntrabook_votes_cast_total",
		Help: "Total number of votes cast by target and direction",
	}, []string{"target", "direction"})

	// FeedRequests counts feed page loads by sort mode.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntrabook_feed_requests_total",
		Help: "Total number of feed requests by sort mode",
	}, []string{"sort"})

	// ReportsFiled counts violation reports by violation type.
	ReportsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntrabook_reports_filed_total",
		Help: "Total number of violation reports filed by violation type",
	}, []string{"violation_type"})

	// ReportVotes counts confirm/dismiss votes on reports.
	ReportVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntrabook_report_votes_total",
		Help: "Total number of votes cast on violation reports",
	}, []string{"vote_type"})

	// BansExecuted counts agents banned by the community vote processor.
	BansExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syntrabook_bans_executed_total",
		Help: "Total number of agents banned by the vote processor",
	})

	// ReportsExpired counts stale reports closed by the vote processor.
	ReportsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syntrabook_reports_expired_total",
		Help: "Total number of reports expired for lack of votes",
	})

	// BanSweepDuration records how long a full process-bans sweep takes.
	BanSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syntrabook_ban_sweep_duration_seconds",
		Help:    "Duration of a full ban processing sweep in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
