// Package metrics exposes the Prometheus collectors of the admin service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edutrack"

// Row outcome labels
const (
	RowSuccess = "success"
	RowFailed  = "failed"
)

// Photo transfer labels
const (
	PhotoTransferred = "transferred"
	PhotoFailed      = "failed"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	importRows          *prometheus.CounterVec
	importDuplicates    prometheus.Counter
	importDuration      prometheus.Histogram
	allocationFallbacks prometheus.Counter
	photoTransfers      *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		importRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Imported rows by outcome.",
		}, []string{"status"}),
		importDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_duplicates_total",
			Help:      "Imported rows that matched an existing student and received a new index number.",
		}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of one import call.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		allocationFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_allocation_fallbacks_total",
			Help:      "Index allocations served by the count-based fallback.",
		}),
		photoTransfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_transfers_total",
			Help:      "External photo transfers by result.",
		}, []string{"result"}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ImportRow counts one processed import row
func (m *Metrics) ImportRow(status string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(status).Inc()
}

// ImportDuplicate counts one duplicate resolved by reassignment
func (m *Metrics) ImportDuplicate() {
	if m == nil {
		return
	}
	m.importDuplicates.Inc()
}

// ObserveImport records the duration of one import call
func (m *Metrics) ObserveImport(d time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.Observe(d.Seconds())
}

// AllocationFallback counts one fallback allocation
func (m *Metrics) AllocationFallback() {
	if m == nil {
		return
	}
	m.allocationFallbacks.Inc()
}

// PhotoTransfer counts one photo transfer attempt
func (m *Metrics) PhotoTransfer(result string) {
	if m == nil {
		return
	}
	m.photoTransfers.WithLabelValues(result).Inc()
}
