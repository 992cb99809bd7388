package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ecomdw/internal/config"
	"ecomdw/internal/datasource"
	"ecomdw/internal/datasource/file"
	"ecomdw/internal/ledger"
	"ecomdw/internal/notify"
	"ecomdw/internal/pipeline"
	"ecomdw/internal/runlock"
	"ecomdw/internal/storage"
)

const (
	stageExtract   = pipeline.StageExtract
	stageTransform = pipeline.StageTransform
	stageLoad      = pipeline.StageLoad
	stageRun       = "run"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = storage.New

	newRedisFn = func(addr string) redis.Cmdable {
		return redis.NewClient(&redis.Options{Addr: addr})
	}

	newNotifierFn = buildNotifier
)

// app owns everything a stage execution needs and releases it in close.
type app struct {
	cfg      config.Pipeline
	pipe     *pipeline.Pipeline
	repo     storage.Repository
	ledger   *ledger.Store
	lock     *runlock.Lock
	notifier notify.Notifier
}

func newApp(ctx context.Context, p config.Pipeline, stage string) (*app, error) {
	a := &app{cfg: p}

	if stage == stageLoad || stage == stageRun {
		log.Printf("storage: kind=%s schema=%s", p.Storage.Kind, p.Storage.Schema)
		repo, err := newRepositoryFn(ctx, storage.Config{
			Kind:    p.Storage.Kind,
			DSN:     p.Storage.DSN,
			Schema:  p.Storage.Schema,
			Options: p.Storage.Options.Strings(),
		})
		if err != nil {
			return nil, fmt.Errorf("init repo: %w", err)
		}
		a.repo = repo
	}

	pipe, err := pipeline.New(p, a.repo)
	if err != nil {
		a.close()
		return nil, err
	}
	a.pipe = pipe

	if p.Ledger.Dir != "" {
		lg, err := ledger.Open(p.Ledger.Dir)
		if err != nil {
			a.close()
			return nil, err
		}
		a.ledger = lg
		a.pipe.Ledger = lg
	}
	if p.Lock.RedisAddr != "" {
		a.lock = runlock.New(newRedisFn(p.Lock.RedisAddr), p.Job, p.Lock.TTL.Std())
	}
	n, err := newNotifierFn(ctx, p.Notify)
	if err != nil {
		a.close()
		return nil, err
	}
	a.notifier = n
	return a, nil
}

func (a *app) close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			log.Printf("notify: close: %v", err)
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			log.Printf("ledger: close: %v", err)
		}
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// execute runs one stage under the run lock and prints a failure summary to
// stderr.
func (a *app) execute(ctx context.Context, stage string, stderr io.Writer) (err error) {
	runID := uuid.NewString()
	if a.lock != nil {
		if err := a.lock.Acquire(ctx, runID); err != nil {
			if errors.Is(err, runlock.ErrHeld) {
				log.Printf("run: skipped: %v", err)
			}
			fmt.Fprintf(stderr, "lock: %v\n", err)
			return err
		}
		defer func() {
			if rerr := a.lock.Release(context.WithoutCancel(ctx)); rerr != nil {
				log.Printf("runlock: %v", rerr)
			}
		}()
	}
	defer func() {
		if err != nil {
			report(stderr, err)
		}
	}()

	switch stage {
	case stageExtract:
		if a.cfg.Artifacts.Raw == "" {
			return errors.New("extract needs artifacts.raw")
		}
		src, err := a.source(ctx)
		if err != nil {
			return err
		}
		_, err = a.pipe.Extract(ctx, src, a.cfg.Artifacts.Raw)
		return err

	case stageTransform:
		src, err := a.rawSource(ctx)
		if err != nil {
			return err
		}
		_, err = a.pipe.Transform(ctx, src, a.cfg.Artifacts.Clean)
		return err

	case stageLoad:
		if a.cfg.Artifacts.Clean == "" {
			return errors.New("load needs artifacts.clean")
		}
		_, err := a.pipe.Load(ctx, a.cfg.Artifacts.Clean)
		return err
	}

	// run: extract first when both a landed source and a raw artifact path
	// are configured, then transform and load in memory.
	if a.cfg.Source.URI != "" && a.cfg.Artifacts.Raw != "" {
		src, err := a.source(ctx)
		if err != nil {
			return err
		}
		if _, err := a.pipe.Extract(ctx, src, a.cfg.Artifacts.Raw); err != nil {
			return err
		}
	}
	src, err := a.rawSource(ctx)
	if err != nil {
		return err
	}
	rep, runErr := a.pipe.RunWithID(ctx, runID, src)
	if nerr := a.notifier.Notify(context.WithoutCancel(ctx), runID, rep); nerr != nil {
		log.Printf("notify: run=%s: %v", runID, nerr)
	}
	return runErr
}

// source is the landed export.
func (a *app) source(ctx context.Context) (datasource.Source, error) {
	return datasource.Resolve(ctx, a.cfg.Source.URI, datasource.ResolveOptions{S3Region: a.cfg.Source.S3Region})
}

// rawSource is the raw artifact when configured, the landed export otherwise.
func (a *app) rawSource(ctx context.Context) (datasource.Source, error) {
	if a.cfg.Artifacts.Raw != "" {
		return file.NewLocal(a.cfg.Artifacts.Raw), nil
	}
	return a.source(ctx)
}

// report prints the failing stage and, for quality failures, every violated
// rule.
func report(w io.Writer, err error) {
	var se *pipeline.StageError
	stage := "setup"
	if errors.As(err, &se) {
		stage = se.Stage
	}
	fmt.Fprintf(w, "FAILED stage=%s kind=%s: %v\n", stage, pipeline.ErrorKind(err), err)
	for _, r := range pipeline.QualityReasons(err) {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func buildNotifier(ctx context.Context, n config.Notify) (notify.Notifier, error) {
	var out notify.Multi
	if n.KafkaBrokers != "" {
		k, err := notify.NewKafka(n.KafkaBrokers, n.KafkaTopic)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if n.PubSubProject != "" {
		ps, err := notify.NewPubSub(ctx, n.PubSubProject, n.PubSubTopic)
		if err != nil {
			out.Close()
			return nil, err
		}
		out = append(out, ps)
	}
	if len(out) > 0 {
		names := make([]string, 0, 2)
		if n.KafkaTopic != "" {
			names = append(names, "kafka:"+n.KafkaTopic)
		}
		if n.PubSubTopic != "" {
			names = append(names, "pubsub:"+n.PubSubTopic)
		}
		log.Printf("notify: targets=%s", strings.Join(names, ","))
	}
	return out, nil
}
