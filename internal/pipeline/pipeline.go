// Package pipeline runs the sales ETL stages: extract, transform and load,
// separately (exchanging file artifacts, as a scheduler would) or together
// in memory through Run.
//
// Every stage failure is returned as *StageError. It unwraps to one of
// *datasource.UnavailableError, *quality.DataQualityError or
// *loader.LoadFailure unchanged; the pipeline never retries.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"ecomdw/internal/config"
	"ecomdw/internal/datasource"
	"ecomdw/internal/extract"
	"ecomdw/internal/keys"
	"ecomdw/internal/loader"
	"ecomdw/internal/metrics"
	csvparser "ecomdw/internal/parser/csv"
	"ecomdw/internal/quality"
	"ecomdw/internal/record"
	"ecomdw/internal/schema"
	"ecomdw/internal/storage"
	"ecomdw/internal/transformer"
)

// Stage names.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Quality gate labels.
const (
	GateRaw     = "raw"
	GateCleaned = "cleaned"
	GateLoad    = "load"
)

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline holds the resolved configuration and the open sink. Repo may be
// nil for runs that never reach the load stage.
type Pipeline struct {
	Cfg    config.Pipeline
	Repo   storage.Repository
	Ledger loader.Ledger

	cleaner transformer.Cleaner
	mapper  schema.Mapper
}

// New validates the pieces of cfg the stages depend on and returns a
// Pipeline writing through repo.
func New(cfg config.Pipeline, repo storage.Repository) (*Pipeline, error) {
	h, err := keys.ByName(cfg.Transform.CustomerKey)
	if err != nil {
		return nil, err
	}
	if cfg.Job == "" {
		cfg.Job = config.DefaultJob
	}
	return &Pipeline{
		Cfg:     cfg,
		Repo:    repo,
		cleaner: transformer.Cleaner{Keyer: h, TimestampLayouts: cfg.Transform.TimestampLayouts},
		mapper:  schema.Mapper{ProductPolicy: cfg.Transform.ProductPolicy},
	}, nil
}

// TransformResult describes one transform stage.
type TransformResult struct {
	Read    csvparser.ReadStats
	Clean   transformer.Stats
	Quality []quality.Report
	Records []record.Clean
}

// Extract converts the landed export behind src into the raw artifact at
// out.
func (p *Pipeline) Extract(ctx context.Context, src datasource.Source, out string) (st extract.Stats, err error) {
	defer p.track(StageExtract, time.Now(), &err)

	err = writeAtomic(out, func(w io.Writer) error {
		var e error
		st, e = extract.Extract(ctx, src, w)
		return e
	})
	if err != nil {
		return st, &StageError{Stage: StageExtract, Err: err}
	}
	metrics.RecordRows(p.Cfg.Job, "extracted", int64(st.Rows))
	return st, nil
}

// Transform reads the raw artifact from src, gates it, cleans it, gates the
// result and, when cleanPath is not empty, writes the clean artifact.
func (p *Pipeline) Transform(ctx context.Context, src datasource.Source, cleanPath string) (res TransformResult, err error) {
	defer p.track(StageTransform, time.Now(), &err)

	res, err = p.transform(ctx, src)
	if err != nil {
		return res, &StageError{Stage: StageTransform, Err: err}
	}
	if cleanPath != "" {
		if err := writeAtomic(cleanPath, func(w io.Writer) error {
			return csvparser.WriteClean(w, res.Records)
		}); err != nil {
			return res, &StageError{Stage: StageTransform, Err: err}
		}
		log.Printf("transform: wrote clean artifact path=%s rows=%d", cleanPath, len(res.Records))
	}
	return res, nil
}

func (p *Pipeline) transform(ctx context.Context, src datasource.Source) (TransformResult, error) {
	var res TransformResult

	rc, err := datasource.Open(ctx, src)
	if err != nil {
		return res, err
	}
	defer rc.Close()

	raw, rs, err := csvparser.ReadRaw(rc, p.parserOptions())
	res.Read = rs
	if err != nil {
		return res, fmt.Errorf("read raw %s: %w", src.Name(), err)
	}
	metrics.RecordRows(p.Cfg.Job, "raw", int64(len(raw)))

	rep, err := p.gate(quality.RawGate(p.Cfg.Quality.MinRows), quality.RawRows(raw), GateRaw)
	res.Quality = append(res.Quality, rep)
	if err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	clean, cs := p.cleaner.CleanWithStats(raw)
	res.Clean = cs
	log.Printf("transform: input=%d dropped_missing_keys=%d duplicates=%d anonymous=%d bad_timestamps=%d output=%d",
		cs.Input, cs.DroppedMissingKeys, cs.Duplicates, cs.Anonymous, cs.UnparseableTimestamps, cs.Output)
	metrics.RecordRows(p.Cfg.Job, "clean", int64(cs.Output))
	metrics.RecordRows(p.Cfg.Job, "dropped", int64(cs.DroppedMissingKeys+cs.Duplicates))

	rep, err = p.gate(quality.CleanGate(p.Cfg.Quality.MinRows), quality.CleanRows(clean), GateCleaned)
	res.Quality = append(res.Quality, rep)
	if err != nil {
		return res, err
	}
	res.Records = clean
	return res, nil
}

// LoadResult describes one load stage.
type LoadResult struct {
	Rows      int
	Quality   quality.Report
	Tables    loader.Result
	Customers int
	Products  int
	Facts     int
}

// Load reads the clean artifact at cleanPath, gates it, projects it and
// loads the three tables.
func (p *Pipeline) Load(ctx context.Context, cleanPath string) (res LoadResult, err error) {
	defer p.track(StageLoad, time.Now(), &err)

	recs, err := readCleanFile(cleanPath)
	if err != nil {
		return res, &StageError{Stage: StageLoad, Err: err}
	}
	res, err = p.load(ctx, recs)
	if err != nil {
		return res, &StageError{Stage: StageLoad, Err: err}
	}
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, recs []record.Clean) (LoadResult, error) {
	res := LoadResult{Rows: len(recs)}

	rep, err := p.gate(quality.CleanGate(p.Cfg.Quality.MinRows), quality.CleanRows(recs), GateLoad)
	res.Quality = rep
	if err != nil {
		return res, err
	}

	proj, err := p.mapper.Project(recs)
	if err != nil {
		return res, err
	}
	res.Customers, res.Products, res.Facts = len(proj.Customers), len(proj.Products), len(proj.Facts)
	log.Printf("load: projected customers=%d products=%d facts=%d", res.Customers, res.Products, res.Facts)

	if p.Repo == nil {
		return res, fmt.Errorf("load: no storage repository configured")
	}
	if p.Cfg.Storage.AutoCreateTables {
		if err := storage.EnsureSchema(ctx, p.Cfg.Storage.Kind, p.Repo, storage.DDLOptions{
			Schema:      p.Cfg.Storage.Schema,
			Constraints: p.Cfg.Storage.Constraints,
		}); err != nil {
			return res, fmt.Errorf("ensure schema: %w", err)
		}
	}

	l := &loader.Loader{
		Repo:       p.Repo,
		BatchSize:  p.Cfg.Runtime.BatchSize,
		Concurrent: !p.Cfg.Runtime.SerializeDimensionLoads,
		Ledger:     p.Ledger,
		Job:        p.Cfg.Job,
	}
	res.Tables, err = l.Load(ctx, proj)
	metrics.RecordRows(p.Cfg.Job, "loaded", res.Tables.Inserted())
	return res, err
}

func (p *Pipeline) gate(g quality.Gate, ds quality.Dataset, label string) (quality.Report, error) {
	rep, err := g.ValidateOrFail(ds, label)
	metrics.RecordQuality(p.Cfg.Job, label, rep.Passed)
	if err != nil {
		log.Printf("quality: gate=%s rows=%d failed: %v", label, ds.Len(), rep.FailureReasons)
	}
	return rep, err
}

func (p *Pipeline) parserOptions() csvparser.Options {
	opt := csvparser.Options{
		Encoding:        p.Cfg.Parser.Encoding,
		HeaderMap:       p.Cfg.Parser.HeaderMap,
		MaxLoggedErrors: p.Cfg.Parser.MaxLoggedErrors,
	}
	if c := []rune(p.Cfg.Parser.Comma); len(c) > 0 {
		opt.Comma = c[0]
	}
	return opt
}

func (p *Pipeline) track(stage string, start time.Time, err *error) {
	d := time.Since(start)
	metrics.RecordStage(p.Cfg.Job, stage, *err, d)
	if *err != nil {
		log.Printf("%s: failed after %s: %v", stage, d.Truncate(time.Millisecond), *err)
		return
	}
	log.Printf("%s: completed in %s", stage, d.Truncate(time.Millisecond))
}

func readCleanFile(path string) ([]record.Clean, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &datasource.UnavailableError{Source: path, Err: err}
	}
	defer f.Close()
	recs, err := csvparser.ReadClean(f)
	if err != nil {
		return nil, fmt.Errorf("read clean artifact %s: %w", path, err)
	}
	return recs, nil
}

// writeAtomic writes path through a temp file in the same directory so a
// failed stage never leaves a partial artifact behind.
func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
