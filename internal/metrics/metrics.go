package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for finished jobs.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// Result labels for stage observations.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	defaultStageBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600}
	defaultJobBuckets   = []float64{10, 30, 60, 300, 900, 1800, 3600, 7200}
)

// Manager owns the worker's collectors. A nil *Manager is valid and records
// nothing, so callers can wire metrics unconditionally.
type Manager struct {
	namespace    string
	stageBuckets []float64
	jobBuckets   []float64
	registry     *prometheus.Registry

	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobsInFlight    prometheus.Gauge
	stageDuration   *prometheus.HistogramVec
	pollsTotal      *prometheus.CounterVec
	degradedTracks  *prometheus.CounterVec
	reportFailures  *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
	claimsLostTotal prometheus.Counter
}

// NewManager creates a manager with its collectors registered. Without
// WithRegistry a fresh registry carrying the Go and process collectors is
// used.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "reelscan",
		stageBuckets: defaultStageBuckets,
		jobBuckets:   defaultJobBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.jobsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "jobs_total",
		Help:      "Analysis jobs finished, by outcome",
	}, []string{"outcome"})

	m.jobDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time of analysis jobs from claim to final status",
		Buckets:   m.jobBuckets,
	}, []string{"outcome"})

	m.jobsInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "jobs_in_flight",
		Help:      "Analysis jobs currently running",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   m.stageBuckets,
	}, []string{"stage", "result"})

	m.pollsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "transcription",
		Name:      "polls_total",
		Help:      "Transcription status polls, by observed state",
	}, []string{"state"})

	m.degradedTracks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "degraded_tracks_total",
		Help:      "Edit maps completed with a track left empty after a non-fatal failure",
	}, []string{"stage"})

	m.reportFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "metadata",
		Name:      "report_failures_total",
		Help:      "Failed writes to the metadata store, by kind of write",
	}, []string{"write"})

	m.queueDepth = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "jobs",
		Help:      "Queued jobs by status at the last poll",
	}, []string{"status"})

	m.claimsLostTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "claims_lost_total",
		Help:      "Jobs abandoned because their queue claim expired or was taken",
	})
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// JobStarted increments the in-flight gauge.
func (m *Manager) JobStarted() {
	if m == nil {
		return
	}
	m.jobsInFlight.Inc()
}

// JobFinished records a finished job and decrements the in-flight gauge.
func (m *Manager) JobFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
	m.jobsTotal.WithLabelValues(outcome).Inc()
	m.jobDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveStage records one stage run. It matches pipeline.StageObserver.
func (m *Manager) ObserveStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.stageDuration.WithLabelValues(stage, result).Observe(elapsed.Seconds())
}

// ObservePoll counts one transcription status poll.
func (m *Manager) ObservePoll(state string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(state).Inc()
}

// TrackDegraded counts an edit map written without stage's output.
func (m *Manager) TrackDegraded(stage string) {
	if m == nil {
		return
	}
	m.degradedTracks.WithLabelValues(stage).Inc()
}

// ReportFailed counts a failed metadata write.
func (m *Manager) ReportFailed(write string) {
	if m == nil {
		return
	}
	m.reportFailures.WithLabelValues(write).Inc()
}

// SetQueueDepth replaces the queue depth gauges with counts.
func (m *Manager) SetQueueDepth(counts map[string]int) {
	if m == nil {
		return
	}
	m.queueDepth.Reset()
	for status, n := range counts {
		m.queueDepth.WithLabelValues(status).Set(float64(n))
	}
}

// ClaimLost counts a job abandoned after losing its claim.
func (m *Manager) ClaimLost() {
	if m == nil {
		return
	}
	m.claimsLostTotal.Inc()
}
