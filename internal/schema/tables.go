// Package schema describes the sales star schema and projects clean records
// onto it.
package schema

import "ecomdw/internal/ddl"

// Table names.
const (
	DimCustomers = "dim_customers"
	DimProducts  = "dim_products"
	FactSales    = "fact_sales"
)

var (
	customersDef = ddl.TableDef{
		FQN: DimCustomers,
		Columns: []ddl.ColumnDef{
			{Name: "customer_id", Type: ddl.Key, PrimaryKey: true},
			{Name: "country", Type: ddl.Text, Nullable: true},
		},
	}
	productsDef = ddl.TableDef{
		FQN: DimProducts,
		Columns: []ddl.ColumnDef{
			{Name: "product_id", Type: ddl.Key, PrimaryKey: true},
			{Name: "description", Type: ddl.Text, Nullable: true},
			{Name: "unit_price", Type: ddl.Decimal},
		},
	}
	factDef = ddl.TableDef{
		FQN: FactSales,
		Columns: []ddl.ColumnDef{
			{Name: "invoice_no", Type: ddl.Key},
			{Name: "customer_id", Type: ddl.Key},
			{Name: "product_id", Type: ddl.Key},
			{Name: "quantity", Type: ddl.BigInt},
			{Name: "total_item_price", Type: ddl.Decimal},
			{Name: "invoice_date", Type: ddl.Timestamp, Nullable: true},
		},
		ForeignKeys: []ddl.ForeignKey{
			{Column: "customer_id", RefTable: DimCustomers, RefColumn: "customer_id"},
			{Column: "product_id", RefTable: DimProducts, RefColumn: "product_id"},
		},
	}
)

// Tables returns the three warehouse tables, dimensions first.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{customersDef, productsDef, factDef}
}

// Table returns the definition of the named table.
func Table(name string) (ddl.TableDef, bool) {
	for _, t := range Tables() {
		if t.FQN == name {
			return t, true
		}
	}
	return ddl.TableDef{}, false
}

// Columns returns the column names of the named table in load order. It
// panics on an unknown table name.
func Columns(name string) []string {
	t, ok := Table(name)
	if !ok {
		panic("schema: unknown table " + name)
	}
	return t.ColumnNames()
}
