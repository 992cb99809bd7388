package config

import (
	"fmt"
	"strings"

	"ecomdw/internal/keys"
	"ecomdw/internal/parser/csv"
	"ecomdw/internal/transformer/builtin"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform.product_policy"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline. Callers decide whether warnings are fatal.
//
// kinds lists the registered storage backends; nil skips that check.
func ValidatePipeline(p Pipeline, kinds []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics, locks and run reports",
		})
	}
	issues = append(issues, validateSource(p)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransform(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage, kinds)...)
	issues = append(issues, validateRuntime(p)...)
	issues = append(issues, validateExtras(p)...)

	return issues
}

func validateSource(p Pipeline) []Issue {
	var issues []Issue
	uri := strings.TrimSpace(p.Source.URI)
	if uri == "" && p.Artifacts.Raw == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.uri",
			Message:  "source.uri or artifacts.raw must be set",
		})
	}
	if strings.Contains(uri, "://") && !strings.HasPrefix(uri, "s3://") && !strings.HasPrefix(uri, "file://") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.uri",
			Message:  fmt.Sprintf("unsupported scheme in %q; use a path, file:// or s3://", uri),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Encoding != "" && !csv.SupportedEncoding(p.Encoding) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.encoding",
			Message:  fmt.Sprintf("unsupported encoding %q", p.Encoding),
		})
	}
	if n := len([]rune(p.Comma)); n > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", p.Comma),
		})
	}
	return issues
}

func validateTransform(t Transform) []Issue {
	var issues []Issue
	if _, err := keys.ByName(t.CustomerKey); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.customer_key",
			Message:  err.Error(),
		})
	}
	if !builtin.ValidPolicy(t.ProductPolicy) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.product_policy",
			Message:  fmt.Sprintf("unknown product policy %q", t.ProductPolicy),
		})
	}
	for i, l := range t.TimestampLayouts {
		if strings.TrimSpace(l) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("transform.timestamp_layouts[%d]", i),
				Message:  "empty layout never matches",
			})
		}
	}
	return issues
}

func validateStorage(s Storage, kinds []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}
	if kinds != nil && !contains(kinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; registered: %s", s.Kind, strings.Join(kinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DSN) == "" && s.Kind != "bigquery" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if s.Kind == "bigquery" && s.Schema == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.schema",
			Message:  "bigquery needs the dataset in storage.schema",
		})
	}
	if s.Constraints && !s.AutoCreateTables {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.constraints",
			Message:  "constraints only apply when auto_create_tables is true",
		})
	}
	return issues
}

func validateRuntime(p Pipeline) []Issue {
	var issues []Issue
	if p.Runtime.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if p.Quality.MinRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "quality.min_rows",
			Message:  "min_rows must not be negative",
		})
	}
	if p.Storage.Kind == "sqlite" && !p.Runtime.SerializeDimensionLoads {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.serialize_dimension_loads",
			Message:  "sqlite accepts a single writer; consider serialize_dimension_loads=true",
		})
	}
	return issues
}

func validateExtras(p Pipeline) []Issue {
	var issues []Issue
	n := p.Notify
	if (n.KafkaBrokers == "") != (n.KafkaTopic == "") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "notify.kafka_topic",
			Message:  "kafka_brokers and kafka_topic must be set together",
		})
	}
	if (n.PubSubProject == "") != (n.PubSubTopic == "") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "notify.pubsub_topic",
			Message:  "pubsub_project and pubsub_topic must be set together",
		})
	}
	if p.Lock.TTL < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "lock.ttl",
			Message:  "ttl must not be negative",
		})
	}
	switch m := p.Metrics; strings.ToLower(m.Backend) {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend needs pushgateway_url",
			})
		}
	case "datadog":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}
	return issues
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
