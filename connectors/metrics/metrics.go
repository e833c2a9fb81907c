package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "ptf_"

const (
	resultProcessed = "processed"
	resultSkipped   = "skipped"
	resultFailed    = "failed"
)

// Metrics bundles batch and fetch metrics. It implements batch.Observer.
type Metrics struct {
	FilesTotal      *prometheus.CounterVec
	RowsTotal       prometheus.Counter
	BatchesTotal    *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
	FetchesTotal    *prometheus.CounterVec
	SplitFilesTotal prometheus.Counter
}

// New constructs metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_files_total",
				Help: "Consumption files handled by result",
			},
			[]string{"result"},
		),
		RowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "batch_rows_total",
			Help: "Rows written by the batch pipeline",
		}),
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batches_total",
				Help: "Folder runs by outcome",
			},
			[]string{"ok"},
		),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "batch_duration_seconds",
			Help:    "Folder run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "epias_fetches_total",
				Help: "Market price fetches by result",
			},
			[]string{"result"},
		),
		SplitFilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "split_files_total",
			Help: "Subscriber files written by split exports",
		}),
	}
	reg.MustRegister(
		m.FilesTotal,
		m.RowsTotal,
		m.BatchesTotal,
		m.BatchDuration,
		m.FetchesTotal,
		m.SplitFilesTotal,
	)
	return m
}

func (m *Metrics) FileProcessed(_ string, rows int) {
	m.FilesTotal.WithLabelValues(resultProcessed).Inc()
	m.RowsTotal.Add(float64(rows))
}

func (m *Metrics) FileSkipped(string, string) {
	m.FilesTotal.WithLabelValues(resultSkipped).Inc()
}

func (m *Metrics) FileFailed(string, error) {
	m.FilesTotal.WithLabelValues(resultFailed).Inc()
}

// ObserveBatch records one folder run.
func (m *Metrics) ObserveBatch(ok bool, took time.Duration) {
	label := "false"
	if ok {
		label = "true"
	}
	m.BatchesTotal.WithLabelValues(label).Inc()
	m.BatchDuration.Observe(took.Seconds())
}

// ObserveFetch records one market price fetch.
func (m *Metrics) ObserveFetch(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
}
