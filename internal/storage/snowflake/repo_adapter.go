// This adapter wires the Snowflake backend into the storage-agnostic factory.

package snowflake

import (
	"context"

	"ecomdw/internal/storage"
	sfddl "ecomdw/internal/storage/snowflake/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("snowflake", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Schema: cfg.Schema})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("snowflake", sfddl.EnsureTables)
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
