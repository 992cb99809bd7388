package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ecomdw/internal/transformer/builtin"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for unset fields.
const (
	DefaultJob       = "ecomdw"
	DefaultBatchSize = 5000
	DefaultMinRows   = 1
)

// Load reads a pipeline file, applies ETL_* environment overrides (after
// loading .env files when present) and fills defaults. The format follows the
// file extension: .yaml/.yml is YAML, anything else JSON.
func Load(path string) (Pipeline, error) {
	_ = godotenv.Load()

	var p Pipeline
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	if p, err = Decode(b, filepath.Ext(path)); err != nil {
		return p, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ApplyEnv(&p, os.LookupEnv); err != nil {
		return p, err
	}
	ApplyDefaults(&p)
	return p, nil
}

// Decode parses b as YAML when ext is .yaml or .yml, JSON otherwise.
// Unknown fields are rejected in both formats.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return p, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, err
		}
	}
	return p, nil
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(p *Pipeline) {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Runtime.BatchSize <= 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Quality.MinRows <= 0 {
		p.Quality.MinRows = DefaultMinRows
	}
	if p.Parser.Encoding == "" {
		p.Parser.Encoding = "utf-8"
	}
	if p.Storage.Options == nil {
		p.Storage.Options = Options{}
	}
}

// ApplyEnv overrides fields from ETL_* variables read through lookup.
// Secrets such as DSNs usually arrive this way rather than in the file.
func ApplyEnv(p *Pipeline, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("ETL_JOB", &p.Job)
	str("ETL_SOURCE_URI", &p.Source.URI)
	str("ETL_S3_REGION", &p.Source.S3Region)
	str("ETL_RAW_PATH", &p.Artifacts.Raw)
	str("ETL_CLEAN_PATH", &p.Artifacts.Clean)
	str("ETL_STORAGE_KIND", &p.Storage.Kind)
	str("ETL_STORAGE_DSN", &p.Storage.DSN)
	str("ETL_STORAGE_SCHEMA", &p.Storage.Schema)
	str("ETL_LEDGER_DIR", &p.Ledger.Dir)
	str("ETL_REDIS_ADDR", &p.Lock.RedisAddr)
	str("ETL_KAFKA_BROKERS", &p.Notify.KafkaBrokers)
	str("ETL_KAFKA_TOPIC", &p.Notify.KafkaTopic)
	str("ETL_PUBSUB_PROJECT", &p.Notify.PubSubProject)
	str("ETL_PUBSUB_TOPIC", &p.Notify.PubSubTopic)
	str("ETL_METRICS_BACKEND", &p.Metrics.Backend)
	str("ETL_PUSHGATEWAY_URL", &p.Metrics.PushgatewayURL)
	str("ETL_STATSD_ADDR", &p.Metrics.StatsdAddr)

	if v, ok := lookup("ETL_BATCH_SIZE"); ok && v != "" {
		n, err := builtin.ParseInt(v)
		if err != nil {
			return fmt.Errorf("ETL_BATCH_SIZE=%q: %w", v, err)
		}
		p.Runtime.BatchSize = int(n)
	}
	if v, ok := lookup("ETL_SERIALIZE_DIMENSION_LOADS"); ok && v != "" {
		b, err := builtin.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ETL_SERIALIZE_DIMENSION_LOADS=%q: %w", v, err)
		}
		p.Runtime.SerializeDimensionLoads = b
	}
	return nil
}
