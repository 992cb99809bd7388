package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomdw/internal/config"
	"ecomdw/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "ecomdw/internal/storage/all"
)

// options are the command-line flags.
type options struct {
	cfgPath        string
	stage          string
	validate       bool
	verbose        bool
	metricsBackend string
	pushgatewayURL string
	statsdAddr     string
	every          time.Duration
}

// main is the entry point for the ETL binary. It loads the pipeline config,
// optionally initializes a metrics backend, and executes the requested stage
// once or on a schedule.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cfgPath, "config", "configs/online_retail.json", "pipeline config path (.json or .yaml)")
	fs.StringVar(&o.stage, "stage", stageRun, "stage to execute: extract, transform, load or run")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&o.verbose, "v", false, "enable verbose logs")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides config and METRICS_BACKEND)")
	fs.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides config and PUSHGATEWAY_URL)")
	fs.StringVar(&o.statsdAddr, "statsd-addr", "", "DogStatsD address (overrides config and DD_DOGSTATSD_ADDR)")
	fs.DurationVar(&o.every, "every", 0, "repeat the stage on this interval instead of running once")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch o.stage {
	case stageExtract, stageTransform, stageLoad, stageRun:
	default:
		return o, fmt.Errorf("unknown -stage %q", o.stage)
	}
	if o.every < 0 {
		return o, fmt.Errorf("-every must not be negative")
	}
	return o, nil
}

// run is main without the process exit; it returns the exit status.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if !o.verbose {
		log.SetOutput(stderr)
	}

	p, err := config.Load(o.cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	issues := config.ValidatePipeline(p, storage.ListKinds())
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", o.cfgPath)
		return 1
	}
	if o.validate {
		log.Printf("Configuration is valid: %v", o.cfgPath)
		return 0
	}

	flush := setupMetrics(p, o)
	defer flush()

	a, err := newApp(ctx, p, o.stage)
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return 1
	}
	defer a.close()

	if o.every > 0 {
		if err := schedule(ctx, o.every, func() { a.execute(ctx, o.stage, stderr) }); err != nil {
			fmt.Fprintf(stderr, "schedule: %v\n", err)
			return 1
		}
		return 0
	}
	if err := a.execute(ctx, o.stage, stderr); err != nil {
		return 1
	}
	return 0
}
