package ddl

import (
	"strings"
	"testing"

	"ecomdw/internal/schema"
)

func TestBuildCreateTableSQL_Products(t *testing.T) {
	t.Parallel()

	def, _ := schema.Table(schema.DimProducts)
	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"dim_products\" (\n" +
		"  \"product_id\" TEXT NOT NULL,\n" +
		"  \"description\" TEXT,\n" +
		"  \"unit_price\" NUMERIC NOT NULL,\n" +
		"  PRIMARY KEY (\"product_id\")\n" +
		");"
	if got != want {
		t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildCreateTableSQL_RejectsEmptyTable(t *testing.T) {
	t.Parallel()

	def, _ := schema.Table(schema.DimProducts)
	def.FQN = " "
	if _, err := BuildCreateTableSQL(def); err == nil || !strings.Contains(err.Error(), "sqlite ddl") {
		t.Fatalf("err = %v", err)
	}
}
