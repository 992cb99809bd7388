// Package config defines the pipeline configuration model for the sales
// warehouse ETL.
//
// A pipeline file is JSON (configs/*.json) or YAML (configs/*.yaml). Field
// names in Go mirror the file structure. Environment variables prefixed with
// ETL_ override selected fields; see ApplyEnv.
//
// Example (trimmed):
//
//	{
//	  "job":     "online_retail",
//	  "source":  { "uri": "s3://landing/online_retail.xlsx" },
//	  "parser":  { "encoding": "windows-1252" },
//	  "storage": { "kind": "postgres", "dsn": "postgresql://...", "schema": "sales" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the pipeline in logs, metrics, locks and run reports.
	Job string `json:"job" yaml:"job"`

	Source    Source        `json:"source" yaml:"source"`
	Artifacts Artifacts     `json:"artifacts" yaml:"artifacts"`
	Parser    Parser        `json:"parser" yaml:"parser"`
	Transform Transform     `json:"transform" yaml:"transform"`
	Quality   Quality       `json:"quality" yaml:"quality"`
	Storage   Storage       `json:"storage" yaml:"storage"`
	Runtime   RuntimeConfig `json:"runtime" yaml:"runtime"`
	Ledger    Ledger        `json:"ledger" yaml:"ledger"`
	Lock      Lock          `json:"lock" yaml:"lock"`
	Notify    Notify        `json:"notify" yaml:"notify"`
	Metrics   Metrics       `json:"metrics" yaml:"metrics"`
}

// Source identifies the landed raw export: a local path, a file:// URI or an
// s3://bucket/key URI.
type Source struct {
	URI      string `json:"uri" yaml:"uri"`
	S3Region string `json:"s3_region" yaml:"s3_region"`
}

// Artifacts are the intermediate files exchanged between the stages when
// they are run separately.
type Artifacts struct {
	Raw   string `json:"raw" yaml:"raw"`
	Clean string `json:"clean" yaml:"clean"`
}

// Parser configures how the raw artifact is read.
type Parser struct {
	// Encoding is one of utf-8 (default), windows-1252, iso-8859-1.
	Encoding string `json:"encoding" yaml:"encoding"`

	// Comma is the delimiter of the raw artifact (default ",").
	Comma string `json:"comma" yaml:"comma"`

	// HeaderMap maps source header names onto the canonical column names.
	HeaderMap map[string]string `json:"header_map" yaml:"header_map"`

	MaxLoggedErrors int `json:"max_logged_errors" yaml:"max_logged_errors"`
}

// Transform configures cleaning and projection.
type Transform struct {
	// CustomerKey selects the surrogate-key hasher: md5 (default) or xxh3.
	CustomerKey string `json:"customer_key" yaml:"customer_key"`

	// TimestampLayouts are Go time layouts tried in order.
	TimestampLayouts []string `json:"timestamp_layouts" yaml:"timestamp_layouts"`

	// ProductPolicy picks the surviving row among duplicate products:
	// keep-last (default), keep-first, most-complete or most-recent.
	ProductPolicy string `json:"product_policy" yaml:"product_policy"`
}

// Quality configures the gates.
type Quality struct {
	MinRows int `json:"min_rows" yaml:"min_rows"`
}

// Storage selects the warehouse sink.
type Storage struct {
	// Kind is a registered backend: postgres, sqlite, mssql, mysql,
	// snowflake, bigquery.
	Kind string `json:"kind" yaml:"kind"`
	DSN  string `json:"dsn" yaml:"dsn"`

	// Schema qualifies the three tables (dataset for BigQuery).
	Schema string `json:"schema" yaml:"schema"`

	// Options are backend-specific settings, e.g. {"project": "..."}.
	Options Options `json:"options" yaml:"options"`

	// AutoCreateTables creates the warehouse tables if they are missing.
	AutoCreateTables bool `json:"auto_create_tables" yaml:"auto_create_tables"`

	// Constraints adds primary and foreign keys to created tables.
	Constraints bool `json:"constraints" yaml:"constraints"`
}

// RuntimeConfig controls batching and load concurrency.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// SerializeDimensionLoads loads dim_customers then dim_products instead
	// of concurrently, for sinks that accept a single writer.
	SerializeDimensionLoads bool `json:"serialize_dimension_loads" yaml:"serialize_dimension_loads"`
}

// Ledger enables the load ledger when Dir is set.
type Ledger struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Lock enables the Redis run lock when RedisAddr is set.
type Lock struct {
	RedisAddr string   `json:"redis_addr" yaml:"redis_addr"`
	TTL       Duration `json:"ttl" yaml:"ttl"`
}

// Notify lists the run-report destinations. Each is enabled by its fields.
type Notify struct {
	KafkaBrokers  string `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic    string `json:"kafka_topic" yaml:"kafka_topic"`
	PubSubProject string `json:"pubsub_project" yaml:"pubsub_project"`
	PubSubTopic   string `json:"pubsub_topic" yaml:"pubsub_topic"`
}

// Metrics selects the metrics backend: none (default), pushgateway, datadog.
type Metrics struct {
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	StatsdAddr     string `json:"statsd_addr" yaml:"statsd_addr"`
}

// Duration is a time.Duration written as "90s" or "2h" in pipeline files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalText(b []byte) error { return d.parse(string(b)) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Options is a small helper to fetch typed values from a free-form map
// without introducing extra configuration machinery.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML numbers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Strings renders every scalar value as a string, keyed as in o. Nested
// objects and arrays are skipped.
func (o Options) Strings() map[string]string {
	out := make(map[string]string, len(o))
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			out[k] = v
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
