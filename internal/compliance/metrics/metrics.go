package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	// Recorded checks by recommended action and marketplace
	ChecksRecorded *prometheus.CounterVec

	// Idempotent replays of an existing check id
	CheckReplays prometheus.Counter

	// Failed recordings by error code
	CheckFailures *prometheus.CounterVec

	ComplaintPacksCreated prometheus.Counter

	KeywordTouches *prometheus.CounterVec

	// Check cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec

	// Outbox relay publishes by result: "published", "failed"
	OutboxPublishes *prometheus.CounterVec

	// End-to-end RecordCheck latency
	RecordLatency prometheus.Histogram
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the compliance metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listingwatch_checks_recorded_total",
			Help: "Total compliance checks recorded by recommended action and marketplace",
		}, []string{"action", "marketplace"}),

		CheckReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "listingwatch_check_replays_total",
			Help: "Total submissions answered with an existing check",
		}),

		CheckFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listingwatch_check_failures_total",
			Help: "Total failed check recordings by error code",
		}, []string{"code"}),

		ComplaintPacksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "listingwatch_complaint_packs_created_total",
			Help: "Total complaint packs created",
		}),

		KeywordTouches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listingwatch_keyword_touches_total",
			Help: "Total saved-search touches by marketplace",
		}, []string{"marketplace"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listingwatch_check_cache_lookups_total",
			Help: "Check cache lookups by result",
		}, []string{"result"}),

		OutboxPublishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listingwatch_outbox_publishes_total",
			Help: "Outbox relay publish attempts by result",
		}, []string{"result"}),

		RecordLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "listingwatch_record_check_duration_seconds",
			Help:    "Duration of check recording including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRecorded records a newly persisted check.
func (m *Metrics) IncrementRecorded(action, marketplace string) {
	if m != nil {
		m.ChecksRecorded.WithLabelValues(action, marketplace).Inc()
	}
}

func (m *Metrics) IncrementReplay() {
	if m != nil {
		m.CheckReplays.Inc()
	}
}

func (m *Metrics) IncrementFailure(code string) {
	if m != nil {
		m.CheckFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncrementComplaintPack() {
	if m != nil {
		m.ComplaintPacksCreated.Inc()
	}
}

func (m *Metrics) IncrementKeywordTouch(marketplace string) {
	if m != nil {
		m.KeywordTouches.WithLabelValues(marketplace).Inc()
	}
}

// IncrementCacheLookup records a cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementOutboxPublish records a relay publish result.
func (m *Metrics) IncrementOutboxPublish(result string) {
	if m != nil {
		m.OutboxPublishes.WithLabelValues(result).Inc()
	}
}

// ObserveRecordLatency records the RecordCheck duration.
func (m *Metrics) ObserveRecordLatency(d time.Duration) {
	if m != nil {
		m.RecordLatency.Observe(d.Seconds())
	}
}
