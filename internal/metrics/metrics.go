// Package metrics exposes Prometheus collectors for field validations,
// submissions and HTTP latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

const namespace = "grantforms"

// Metrics owns a private registry so tests and multiple servers never clash
// on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	submissions *prometheus.CounterVec
	requests    *prometheus.HistogramVec
	pruned      prometheus.Counter
}

var _ formstate.Observer = (*Metrics)(nil)

// New registers the collectors. withRuntime adds the Go and process
// collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_validations_total",
			Help:      "Field validations by form, field and outcome.",
		}, []string{"form", "field", "valid"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submissions by outcome.",
		}, []string{"form", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_pruned_entries_total",
			Help:      "Stale storage entries removed by the pruner.",
		}),
	}
	m.registry.MustRegister(m.validations, m.submissions, m.requests, m.pruned)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// FieldValidated implements formstate.Observer.
func (m *Metrics) FieldValidated(form model.FormModel, field model.Field, result validation.Result) {
	m.validations.WithLabelValues(form.ID, field.Name, strconv.FormatBool(result.Valid)).Inc()
}

// Submitted implements formstate.Observer.
func (m *Metrics) Submitted(form model.FormModel, outcome formstate.Outcome) {
	label := "rejected"
	switch {
	case outcome.Accepted:
		label = "accepted"
	case len(outcome.Errors) == 0 && outcome.ConsentMissing:
		label = "consent_missing"
	}
	m.submissions.WithLabelValues(form.ID, label).Inc()
}

// ObserveRequest records one HTTP request. route should be a bounded label
// such as the matched pattern, never the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Pruned counts entries removed by storage pruning.
func (m *Metrics) Pruned(n int64) {
	if n > 0 {
		m.pruned.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
