// This adapter wires the BigQuery backend into the storage-agnostic factory.

package bigquery

import (
	"context"

	"ecomdw/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("bigquery", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		bqCfg, err := ParseDSN(cfg.DSN, cfg.Schema)
		if err != nil {
			return nil, err
		}
		if p := cfg.Options["project"]; p != "" {
			bqCfg.Project = p
		}
		r, closeFn, err := newRepository(ctx, bqCfg)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("bigquery", EnsureTables)
}

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
