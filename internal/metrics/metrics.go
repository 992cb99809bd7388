// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the sales pipeline.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// pipeline can record unconditionally. Concrete systems (Prometheus
// Pushgateway, DogStatsD) live in subpackages and are installed once at
// startup with SetBackend.
package metrics

import "time"

// Metric names.
const (
	StageTotal    = "etl_stage_total"
	StageDuration = "etl_stage_duration_seconds"
	RowsTotal     = "etl_rows_total"
	TableRows     = "etl_table_rows_total"
	QualityChecks = "etl_quality_checks_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStage counts one execution of a pipeline stage (extract, transform,
// load, run) and observes its duration.
func RecordStage(job, stage string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status(err),
	}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows increments a record-level counter. Kinds mirror the cleaner
// statistics: "raw", "clean", "dropped_missing_keys", "duplicates",
// "anonymous", "unparseable_timestamps".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordTableLoad counts the rows written to one warehouse table.
func RecordTableLoad(job, table string, rows int64, err error) {
	lbls := Labels{
		"job":    job,
		"table":  table,
		"status": status(err),
	}
	if rows < 0 {
		rows = 0
	}
	backend.IncCounter(TableRows, float64(rows), lbls)
}

// RecordQuality counts one quality gate evaluation.
func RecordQuality(job, stage string, passed bool) {
	result := "passed"
	if !passed {
		result = "failed"
	}
	backend.IncCounter(QualityChecks, 1, Labels{
		"job":    job,
		"stage":  stage,
		"result": result,
	})
}
