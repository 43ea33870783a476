// Package metrics records scan and persistence counters on a private
// Prometheus registry and exports them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "distiller"

// Failure reasons for the files_failed_total counter.
const (
	ReasonRead        = "read"
	ReasonUnsupported = "unsupported"
	ReasonExtract     = "extract"
)

// Metrics holds the collectors for one Engine. All methods are safe for
// concurrent use and are no-ops on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	filesDiscovered  prometheus.Counter
	filesProcessed   prometheus.Counter
	filesFailed      *prometheus.CounterVec
	commentsRetained prometheus.Counter
	commentsDropped  prometheus.Counter
	rowsPersisted    *prometheus.CounterVec
	scanDuration     prometheus.Histogram
}

// New creates a Metrics backed by a fresh registry, so several engines in
// one process never collide on registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		// filesDiscovered counts candidate files submitted to the worker pool.
		filesDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Files with a supported extension submitted for processing",
		}),

		filesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files processed into a record",
		}),

		// filesFailed counts per-file failures.
		// Labels: reason (read, unsupported, extract)
		filesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Files dropped from the scan because they could not be processed",
		}, []string{"reason"}),

		commentsRetained: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_retained_total",
			Help:      "Comments kept after length and script filtering",
		}),

		commentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_dropped_total",
			Help:      "Comments removed by length or script filtering",
		}),

		// rowsPersisted counts committed rows.
		// Labels: table (files, comments)
		rowsPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_persisted_total",
			Help:      "Rows committed to the store",
		}, []string{"table"}),

		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a directory scan",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}

	// Pre-create label series so they export as zero before the first failure.
	for _, reason := range []string{ReasonRead, ReasonUnsupported, ReasonExtract} {
		m.filesFailed.WithLabelValues(reason)
	}
	return m
}

// Registry returns the private registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FileDiscovered() {
	if m == nil {
		return
	}
	m.filesDiscovered.Inc()
}

func (m *Metrics) FileProcessed() {
	if m == nil {
		return
	}
	m.filesProcessed.Inc()
}

// FileFailed records one dropped file under reason.
func (m *Metrics) FileFailed(reason string) {
	if m == nil {
		return
	}
	m.filesFailed.WithLabelValues(reason).Inc()
}

// Comments records the outcome of filtering one file's comments.
func (m *Metrics) Comments(retained, dropped int) {
	if m == nil {
		return
	}
	m.commentsRetained.Add(float64(retained))
	m.commentsDropped.Add(float64(dropped))
}

// RowsPersisted records rows committed to table.
func (m *Metrics) RowsPersisted(table string, n int) {
	if m == nil {
		return
	}
	m.rowsPersisted.WithLabelValues(table).Add(float64(n))
}

// ObserveScan records the duration of one completed scan.
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(d.Seconds())
}

// WriteTextfile writes every collected metric to path in the textfile
// collector format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
