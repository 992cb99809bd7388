package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"ecomdw/internal/datasource"
	"ecomdw/internal/loader"
	"ecomdw/internal/quality"
)

// RunReport is the outcome of one Run. It is what notifiers publish.
type RunReport struct {
	RunID    string    `json:"run_id"`
	Job      string    `json:"job"`
	Source   string    `json:"source"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Stage is the failing stage, or "" when the run succeeded.
	Stage string `json:"stage,omitempty"`

	RawRows       int `json:"raw_rows"`
	SkippedRows   int `json:"skipped_rows"`
	CleanRows     int `json:"clean_rows"`
	DroppedRows   int `json:"dropped_rows"`
	DuplicateRows int `json:"duplicate_rows"`

	Customers int64 `json:"customers_inserted"`
	Products  int64 `json:"products_inserted"`
	Facts     int64 `json:"facts_inserted"`

	Quality []quality.Report `json:"quality"`

	// Kind classifies Error: source_unavailable, data_quality, load_failure
	// or other.
	Kind  string `json:"error_kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r RunReport) Succeeded() bool { return r.Error == "" }

// Run executes transform and load in memory for the raw artifact behind src
// under a fresh run id. The returned error, when not nil, is a *StageError.
func (p *Pipeline) Run(ctx context.Context, src datasource.Source) (RunReport, error) {
	return p.RunWithID(ctx, uuid.NewString(), src)
}

// RunWithID is Run labeled with a caller-chosen id, such as the run lock
// token, so logs and the report agree with it.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, src datasource.Source) (RunReport, error) {
	rep := RunReport{
		RunID:   runID,
		Job:     p.Cfg.Job,
		Source:  src.Name(),
		Started: time.Now().UTC(),
	}
	log.Printf("run: id=%s job=%s source=%s", rep.RunID, rep.Job, rep.Source)

	err := p.run(ctx, src, &rep)
	rep.Finished = time.Now().UTC()
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			rep.Stage = se.Stage
		}
		rep.Kind = ErrorKind(err)
		rep.Error = err.Error()
		log.Printf("run: id=%s failed stage=%s kind=%s elapsed=%s", rep.RunID, rep.Stage, rep.Kind, rep.Finished.Sub(rep.Started).Truncate(time.Millisecond))
		return rep, err
	}
	log.Printf("summary: id=%s raw=%d clean=%d customers=%d products=%d facts=%d elapsed=%s",
		rep.RunID, rep.RawRows, rep.CleanRows, rep.Customers, rep.Products, rep.Facts,
		rep.Finished.Sub(rep.Started).Truncate(time.Millisecond))
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, src datasource.Source, rep *RunReport) (err error) {
	tr, err := p.Transform(ctx, src, "")
	rep.RawRows = tr.Read.Rows
	rep.SkippedRows = tr.Read.SkippedRows
	rep.CleanRows = tr.Clean.Output
	rep.DroppedRows = tr.Clean.DroppedMissingKeys
	rep.DuplicateRows = tr.Clean.Duplicates
	rep.Quality = append(rep.Quality, tr.Quality...)
	if err != nil {
		return err
	}

	start := time.Now()
	defer p.track(StageLoad, start, &err)
	lr, err := p.load(ctx, tr.Records)
	rep.Quality = append(rep.Quality, lr.Quality)
	rep.Customers = lr.Tables.Customers.Inserted
	rep.Products = lr.Tables.Products.Inserted
	rep.Facts = lr.Tables.Facts.Inserted
	if err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	return nil
}

// ErrorKind names the taxonomy class of err.
func ErrorKind(err error) string {
	var (
		ue *datasource.UnavailableError
		dq *quality.DataQualityError
		lf *loader.LoadFailure
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ue):
		return "source_unavailable"
	case errors.As(err, &dq):
		return "data_quality"
	case errors.As(err, &lf):
		return "load_failure"
	}
	return "other"
}

// QualityReasons returns the violated rules carried by err, if any.
func QualityReasons(err error) []string {
	var dq *quality.DataQualityError
	if errors.As(err, &dq) {
		return dq.Report.FailureReasons
	}
	return nil
}
