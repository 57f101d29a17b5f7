package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

var _ usecase.MetricsRecorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ValidationCompleted(true)
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecorderCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ValidationCompleted(true)
	m.ValidationCompleted(false)
	m.ValidationCompleted(false)
	m.RuleFailed("category_limit")
	m.PeriodTransition(domain.AuditActionPeriodClose)
	m.PeriodTransition(domain.AuditActionPeriodReopen)
	m.PeriodTransition(domain.AuditActionPeriodClose)
	m.PeriodClosedRejected()

	if got := testutil.ToFloat64(m.Validations.WithLabelValues("rejected")); got != 2 {
		t.Fatalf("expected 2 rejected validations, got %v", got)
	}
	if got := testutil.ToFloat64(m.RuleErrors.WithLabelValues("category_limit")); got != 1 {
		t.Fatalf("expected 1 category_limit error, got %v", got)
	}
	if got := testutil.ToFloat64(m.PeriodTransitions.WithLabelValues("period.close")); got != 2 {
		t.Fatalf("expected 2 closes, got %v", got)
	}
	if got := testutil.ToFloat64(m.ClosedPeriodRejects); got != 1 {
		t.Fatalf("expected 1 closed-period rejection, got %v", got)
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(registry)
}
