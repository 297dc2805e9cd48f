package connector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryDuckDB connects to an in-memory database and seeds a small shop
// schema: two tables linked by a foreign key, a view joining them, a
// secondary index, and a scalar macro.
func memoryDuckDB(t *testing.T) *duckdbConnector {
	t.Helper()

	c := newDuckDB(Config{Provider: "duckdb", Path: ":memory:"}, slog.New(slog.DiscardHandler))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	stmts := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR NOT NULL, email VARCHAR)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers(id), total DOUBLE)`,
		`INSERT INTO customers VALUES (1, 'ada', 'ada@example.com'), (2, 'grace', NULL)`,
		`INSERT INTO orders VALUES (10, 1, 99.5)`,
		`CREATE VIEW v_order_names AS SELECT o.id, c.name FROM orders o JOIN customers c ON c.id = o.customer_id`,
		`CREATE INDEX idx_orders_customer ON orders (customer_id)`,
		`CREATE MACRO with_tax(amount) AS amount * 1.1`,
	}
	for _, stmt := range stmts {
		_, err := c.db.ExecContext(context.Background(), stmt)
		require.NoError(t, err, "seed statement: %s", stmt)
	}
	return c
}

func TestDuckDBConnectInMemory(t *testing.T) {
	c := newDuckDB(Config{Provider: "duckdb", Path: ":memory:"}, slog.New(slog.DiscardHandler))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, "duckdb", c.Provider())
	assert.NoError(t, c.Close())
}

func TestDuckDBConnectFileCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shop.db")
	c := newDuckDB(Config{Provider: "duckdb", Path: dbPath}, slog.New(slog.DiscardHandler))

	require.NoError(t, c.Connect(context.Background()))
	defer func() { _ = c.Close() }()

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
}

func TestDuckDBGetTables(t *testing.T) {
	c := memoryDuckDB(t)

	tables, err := c.GetTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	// Ordered by schema, name
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "main", tables[0].Schema)
	assert.EqualValues(t, 2, tables[0].RowCount)
	assert.Equal(t, "orders", tables[1].Name)
	assert.EqualValues(t, 1, tables[1].RowCount)
}

func TestDuckDBGetColumns(t *testing.T) {
	c := memoryDuckDB(t)

	cols, err := c.GetColumns(context.Background(), "main", "customers")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].DataType)
	assert.True(t, cols[0].IsPrimaryKey)

	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, "VARCHAR", cols[1].DataType)
	assert.False(t, cols[1].Nullable)
	assert.False(t, cols[1].IsPrimaryKey)

	assert.Equal(t, "email", cols[2].Name)
	assert.True(t, cols[2].Nullable)
}

func TestDuckDBGetForeignKeys(t *testing.T) {
	c := memoryDuckDB(t)

	fks, err := c.GetForeignKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, fks, 1)

	assert.Equal(t, "orders", fks[0].ParentTable)
	assert.Equal(t, "customer_id", fks[0].ParentColumn)
	assert.Equal(t, "customers", fks[0].ReferencedTable)
	assert.Equal(t, "id", fks[0].ReferencedColumn)
}

func TestDuckDBGetViews(t *testing.T) {
	c := memoryDuckDB(t)

	views, err := c.GetViews(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "v_order_names", views[0].Name)
	assert.Contains(t, views[0].Body, "customers")
	assert.Contains(t, views[0].Body, "orders")
}

func TestDuckDBGetIndexes(t *testing.T) {
	c := memoryDuckDB(t)

	indexes, err := c.GetIndexes(context.Background())
	require.NoError(t, err)
	require.Len(t, indexes, 1)

	assert.Equal(t, "idx_orders_customer", indexes[0].Name)
	assert.Equal(t, "orders", indexes[0].Table)
	assert.Equal(t, "customer_id", indexes[0].Columns)
	assert.False(t, indexes[0].IsUnique)
}

func TestDuckDBGetFunctions(t *testing.T) {
	c := memoryDuckDB(t)

	fns, err := c.GetFunctions(context.Background())
	require.NoError(t, err)
	require.Len(t, fns, 1)

	assert.Equal(t, "with_tax", fns[0].Name)
	assert.NotEmpty(t, fns[0].Body)
}

func TestDuckDBGetTableSizes(t *testing.T) {
	c := memoryDuckDB(t)

	sizes, err := c.GetTableSizes(context.Background())
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	// Ordered by estimated size descending
	assert.Equal(t, "customers", sizes[0].Table)
	assert.EqualValues(t, 2, sizes[0].RowCount)
}

func TestDuckDBEmptyCapabilities(t *testing.T) {
	c := memoryDuckDB(t)
	ctx := context.Background()

	procs, err := c.GetStoredProcedures(ctx)
	require.NoError(t, err)
	assert.Empty(t, procs, "duckdb has no stored procedures")

	missing, err := c.GetMissingIndexes(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing, "duckdb keeps no scan statistics")

	perms, err := c.GetPermissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, perms, "duckdb has no privilege system")
}

func TestDuckDBQueryBeforeConnect(t *testing.T) {
	c := newDuckDB(Config{Provider: "duckdb", Path: ":memory:"}, slog.New(slog.DiscardHandler))

	_, err := c.GetTables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestParseForeignKeyTextDuckDB(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ForeignKey
	}{
		{
			name: "column pair",
			text: "FOREIGN KEY (customer_id) REFERENCES customers(id)",
			want: ForeignKey{
				ParentSchema: "main", ParentTable: "orders", ParentColumn: "customer_id",
				ReferencedSchema: "main", ReferencedTable: "customers", ReferencedColumn: "id",
			},
		},
		{
			name: "no referenced column list",
			text: "FOREIGN KEY (customer_id) REFERENCES customers",
			want: ForeignKey{
				ParentSchema: "main", ParentTable: "orders", ParentColumn: "customer_id",
				ReferencedSchema: "main", ReferencedTable: "customers",
			},
		},
		{
			name: "unparseable",
			text: "CHECK (total > 0)",
			want: ForeignKey{ParentSchema: "main", ParentTable: "orders", ReferencedSchema: "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseForeignKeyText("main", "orders", tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}
