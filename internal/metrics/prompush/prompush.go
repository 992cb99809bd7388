// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Stage, row, table and quality metrics are kept in a private registry and
// pushed to a Pushgateway on Flush; the pipeline runs as a batch job and has
// no scrape endpoint. The "job" label becomes the Pushgateway grouping key.
package prompush

import (
	"fmt"

	"ecomdw/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // etl_stage_total
	stageDuration *prometheus.SummaryVec // etl_stage_duration_seconds
	rowCounter    *prometheus.CounterVec // etl_rows_total
	tableRows     *prometheus.CounterVec // etl_table_rows_total
	qualityChecks *prometheus.CounterVec // etl_quality_checks_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "ecomdw"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Duration of pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"stage", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Record counts per kind (raw, clean, duplicates, ...).",
		}, []string{"kind"}),
		tableRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.TableRows,
			Help: "Rows written per warehouse table.",
		}, []string{"table", "status"}),
		qualityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.QualityChecks,
			Help: "Quality gate evaluations by stage and result.",
		}, []string{"stage", "result"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"stage counter":   b.stageCounter,
		"stage summary":   b.stageDuration,
		"row counter":     b.rowCounter,
		"table counter":   b.tableRows,
		"quality counter": b.qualityChecks,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter != nil {
			b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.TableRows:
		if b.tableRows != nil {
			b.tableRows.WithLabelValues(labels["table"], labels["status"]).Add(delta)
		}
	case metrics.QualityChecks:
		if b.qualityChecks != nil {
			b.qualityChecks.WithLabelValues(labels["stage"], labels["result"]).Add(delta)
		}
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
