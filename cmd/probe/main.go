package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ecomdw/internal/probe"
)

// main is the entrypoint for the probing CLI. It samples a landed sales
// export, maps its headers onto the canonical columns and prints the report
// with a starter pipeline configuration as JSON.
func main() {
	var (
		flagURI    = flag.String("uri", "", "landed export: local path, file:// or s3:// URI")
		flagRegion = flag.String("s3-region", "", "AWS region for s3:// sources")
		flagRows   = flag.Int("rows", 500, "number of data rows to sample")
		flagJob    = flag.String("job", "", "logical job name for the generated config")
		flagPretty = flag.Bool("pretty", true, "pretty-print JSON output")
		flagConfig = flag.Bool("config-only", false, "print only the generated pipeline config")
		flagBack   = flag.String("backend", "postgres", "storage backend in the generated config")
	)
	flag.Parse()

	if *flagURI == "" {
		fmt.Fprintln(os.Stderr, "missing -uri")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rep, err := probe.Probe(ctx, probe.Options{
		URI:        *flagURI,
		S3Region:   *flagRegion,
		SampleRows: *flagRows,
		Backend:    *flagBack,
		Job:        *flagJob,
	})
	if err != nil {
		log.Fatalf("probe: %v", err)
	}
	for _, m := range rep.Missing {
		log.Printf("probe: required column %s not found; add it to parser.header_map", m)
	}

	enc := json.NewEncoder(os.Stdout)
	if *flagPretty {
		enc.SetIndent("", "  ")
	}
	var out any = rep
	if *flagConfig {
		out = rep.Config
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}
