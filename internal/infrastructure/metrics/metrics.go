package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/gobudget/internal/domain"
)

const namespace = "gobudget"

// Metrics holds all Prometheus metrics and implements usecase.MetricsRecorder.
type Metrics struct {
	// Engine metrics
	Validations         *prometheus.CounterVec
	RuleErrors          *prometheus.CounterVec
	PeriodTransitions   *prometheus.CounterVec
	ClosedPeriodRejects prometheus.Counter

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitHits        prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Validations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Rule pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		RuleErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_errors_total",
				Help:      "Blocking validation messages by rule",
			},
			[]string{"rule"},
		),
		PeriodTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "period_transitions_total",
				Help:      "Period ledger transitions by action",
			},
			[]string{"action"},
		),
		ClosedPeriodRejects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_closed_rejections_total",
			Help:      "Mutations rejected because their period is closed",
		}),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ValidationCompleted counts one pipeline run.
func (m *Metrics) ValidationCompleted(valid bool) {
	outcome := "rejected"
	if valid {
		outcome = "accepted"
	}
	m.Validations.WithLabelValues(outcome).Inc()
}

// RuleFailed counts one blocking message of rule.
func (m *Metrics) RuleFailed(rule string) {
	m.RuleErrors.WithLabelValues(rule).Inc()
}

// PeriodTransition counts a close, reopen or close-again.
func (m *Metrics) PeriodTransition(action domain.AuditAction) {
	m.PeriodTransitions.WithLabelValues(string(action)).Inc()
}

// PeriodClosedRejected counts a mutation blocked by a closed period.
func (m *Metrics) PeriodClosedRejected() {
	m.ClosedPeriodRejects.Inc()
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
