package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the token economy.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ledgerWrites    *prometheus.CounterVec
	reviewsRecorded prometheus.Counter
	votesCast       *prometheus.CounterVec
	mentorUpgrades  prometheus.Counter
	badgeMints      *prometheus.CounterVec
}

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_total",
		Help: "Ledger entries written, by transaction type",
	}, []string{"type"})

	reviewsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_recorded_total",
		Help: "Total reviews recorded",
	})

	votesCast := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votes_cast_total",
		Help: "Vote transitions applied, by action",
	}, []string{"action"})

	mentorUpgrades := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mentor_upgrades_total",
		Help: "Total mentor upgrades",
	})

	badgeMints := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "badge_mints_total",
		Help: "Badge mint resolutions, by status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, ledgerWrites, reviewsRecorded, votesCast, mentorUpgrades, badgeMints, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ledgerWrites:    ledgerWrites,
		reviewsRecorded: reviewsRecorded,
		votesCast:       votesCast,
		mentorUpgrades:  mentorUpgrades,
		badgeMints:      badgeMints,
	}
}

// Handler exposes the /metrics endpoint handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one HTTP request.
func (s *MetricsService) ObserveRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// CountLedgerWrite records a ledger entry by type.
func (s *MetricsService) CountLedgerWrite(txType string) {
	s.ledgerWrites.WithLabelValues(txType).Inc()
}

// CountReview records a recorded review.
func (s *MetricsService) CountReview() {
	s.reviewsRecorded.Inc()
}

// CountVote records a vote transition.
func (s *MetricsService) CountVote(action string) {
	s.votesCast.WithLabelValues(action).Inc()
}

// CountMentorUpgrade records a mentor upgrade.
func (s *MetricsService) CountMentorUpgrade() {
	s.mentorUpgrades.Inc()
}

// CountBadgeMint records a badge mint resolution.
func (s *MetricsService) CountBadgeMint(status string) {
	s.badgeMints.WithLabelValues(status).Inc()
}
