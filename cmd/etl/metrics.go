package main

import (
	"log"
	"os"
	"strings"

	"ecomdw/internal/config"
	"ecomdw/internal/metrics"
	"ecomdw/internal/metrics/datadog"
	"ecomdw/internal/metrics/prompush"
)

const defaultPushgatewayURL = "http://localhost:9091"

// pick returns the first non-empty value.
func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// setupMetrics installs the metrics backend chosen flag → env → config and
// returns the function that flushes it at exit.
func setupMetrics(p config.Pipeline, o options) func() {
	backendName := strings.ToLower(pick(o.metricsBackend, os.Getenv("METRICS_BACKEND"), p.Metrics.Backend))

	var b metrics.Backend
	switch backendName {
	case "pushgateway":
		gwURL := pick(o.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), p.Metrics.PushgatewayURL, defaultPushgatewayURL)
		pb, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, p.Job)
		b = pb

	case "datadog":
		addr := pick(o.statsdAddr, os.Getenv("DD_DOGSTATSD_ADDR"), p.Metrics.StatsdAddr, "127.0.0.1:8125")
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "ecomdw.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, backendName, p.Job)
		b = db

	case "", "none":
		// metrics disabled; nop backend remains
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
		if c, ok := b.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}
