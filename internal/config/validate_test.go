package config

import (
	"testing"
)

var testKinds = []string{"bigquery", "mssql", "mysql", "postgres", "snowflake", "sqlite"}

func validPipeline() Pipeline {
	return Pipeline{
		Job:     "online_retail",
		Source:  Source{URI: "data/online_retail.csv"},
		Storage: Storage{Kind: "postgres", DSN: "postgresql://etl@localhost/dw"},
		Runtime: RuntimeConfig{BatchSize: 5000},
		Quality: Quality{MinRows: 1},
	}
}

func hasIssue(issues []Issue, sev IssueSeverity, path string) bool {
	for _, i := range issues {
		if i.Severity == sev && i.Path == path {
			return true
		}
	}
	return false
}

func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline(), testKinds); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidatePipeline_Findings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(p *Pipeline)
		sev    IssueSeverity
		path   string
	}{
		{"empty job", func(p *Pipeline) { p.Job = " " }, SeverityError, "job"},
		{"no source", func(p *Pipeline) { p.Source.URI = "" }, SeverityError, "source.uri"},
		{"http source", func(p *Pipeline) { p.Source.URI = "https://example.com/x.csv" }, SeverityError, "source.uri"},
		{"bad encoding", func(p *Pipeline) { p.Parser.Encoding = "ebcdic" }, SeverityError, "parser.encoding"},
		{"long comma", func(p *Pipeline) { p.Parser.Comma = ";;" }, SeverityError, "parser.comma"},
		{"bad hasher", func(p *Pipeline) { p.Transform.CustomerKey = "sha1" }, SeverityError, "transform.customer_key"},
		{"bad policy", func(p *Pipeline) { p.Transform.ProductPolicy = "newest" }, SeverityError, "transform.product_policy"},
		{"empty layout", func(p *Pipeline) { p.Transform.TimestampLayouts = []string{""} }, SeverityWarning, "transform.timestamp_layouts[0]"},
		{"no kind", func(p *Pipeline) { p.Storage.Kind = "" }, SeverityError, "storage.kind"},
		{"unknown kind", func(p *Pipeline) { p.Storage.Kind = "oracle" }, SeverityError, "storage.kind"},
		{"no dsn", func(p *Pipeline) { p.Storage.DSN = "" }, SeverityError, "storage.dsn"},
		{"bigquery without dataset", func(p *Pipeline) { p.Storage.Kind = "bigquery" }, SeverityError, "storage.schema"},
		{"constraints without create", func(p *Pipeline) { p.Storage.Constraints = true }, SeverityWarning, "storage.constraints"},
		{"negative batch", func(p *Pipeline) { p.Runtime.BatchSize = -1 }, SeverityError, "runtime.batch_size"},
		{"negative min rows", func(p *Pipeline) { p.Quality.MinRows = -2 }, SeverityError, "quality.min_rows"},
		{"sqlite concurrent", func(p *Pipeline) { p.Storage.Kind = "sqlite" }, SeverityWarning, "runtime.serialize_dimension_loads"},
		{"kafka half", func(p *Pipeline) { p.Notify.KafkaBrokers = "b:9092" }, SeverityError, "notify.kafka_topic"},
		{"pubsub half", func(p *Pipeline) { p.Notify.PubSubTopic = "runs" }, SeverityError, "notify.pubsub_topic"},
		{"negative ttl", func(p *Pipeline) { p.Lock.TTL = -1 }, SeverityError, "lock.ttl"},
		{"pushgateway url", func(p *Pipeline) { p.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url"},
		{"unknown metrics", func(p *Pipeline) { p.Metrics.Backend = "graphite" }, SeverityError, "metrics.backend"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			p := validPipeline()
			c.mutate(&p)
			issues := ValidatePipeline(p, testKinds)
			if !hasIssue(issues, c.sev, c.path) {
				t.Fatalf("want %s at %s, got %v", c.sev, c.path, issues)
			}
		})
	}
}

func TestValidatePipeline_NilKindsSkipsRegistryCheck(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage.Kind = "oracle"
	if issues := ValidatePipeline(p, nil); HasErrors(issues) {
		t.Fatalf("unexpected errors: %v", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	got := Issue{Severity: SeverityError, Path: "storage.dsn", Message: "empty"}.Error()
	if got != "error at storage.dsn: empty" {
		t.Fatalf("Error() = %q", got)
	}
}
