//go:build integration

package mssql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecomdw/internal/record"
	"ecomdw/internal/schema"
	"ecomdw/internal/storage"
)

// getTestDSN reads the MSSQL_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

// TestStarSchemaIntegration creates the warehouse tables on a real SQL Server
// and bulk-copies a product row.
func TestStarSchemaIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Schema: "dbo"})
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	defer closeFn()

	for _, tbl := range []string{schema.FactSales, schema.DimProducts, schema.DimCustomers} {
		_ = repo.Exec(ctx, "DROP TABLE IF EXISTS [dbo].["+tbl+"]")
	}
	if err := storage.EnsureSchema(ctx, "mssql", &wrappedRepo{Repository: repo}, storage.DDLOptions{Schema: "dbo"}); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	row := record.ProductDim{ProductID: "S1", Description: record.Str("MUG"), UnitPrice: decimal.RequireFromString("2.55")}
	n, err := repo.CopyFrom(ctx, schema.DimProducts, schema.Columns(schema.DimProducts), [][]any{row.Values()})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 1 {
		t.Fatalf("CopyFrom n = %d, want 1", n)
	}
}
