package ddl

import (
	"context"

	"ecomdw/internal/storage"
)

// EnsureTables creates the warehouse tables if they do not already exist.
// The IF OBJECT_ID guard makes it safe to call repeatedly.
func EnsureTables(ctx context.Context, repo storage.Repository, opts storage.DDLOptions) error {
	return storage.CreateTables(ctx, repo, Dialect, opts)
}
