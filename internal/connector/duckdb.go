package connector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb database/sql driver
)

// duckdbConnector reads metadata from a DuckDB database file (or an
// in-memory database) through the duckdb_* catalog functions. DuckDB has
// no stored procedures, usage statistics, or grants, so those methods
// return empty results rather than errors.
type duckdbConnector struct {
	cfg    Config
	logger *slog.Logger
	db     *sql.DB
}

func newDuckDB(cfg Config, logger *slog.Logger) *duckdbConnector {
	return &duckdbConnector{cfg: cfg, logger: logger}
}

func (c *duckdbConnector) Provider() string { return "duckdb" }

func (c *duckdbConnector) Connect(ctx context.Context) error {
	path := c.cfg.Path
	if path == ":memory:" {
		path = ""
	}
	c.logger.Info("connecting to duckdb", slog.String("target", c.cfg.MaskedDSN()))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("open duckdb database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping duckdb: %w", err)
	}
	c.db = db
	return nil
}

func (c *duckdbConnector) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *duckdbConnector) GetTables(ctx context.Context) ([]Table, error) {
	const query = `
		SELECT schema_name, table_name, estimated_size
		FROM duckdb_tables()
		WHERE NOT internal
		ORDER BY schema_name, table_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (c *duckdbConnector) GetColumns(ctx context.Context, schema, table string) ([]Column, error) {
	const query = `
		SELECT column_name,
		       data_type,
		       COALESCE(character_maximum_length, 0),
		       is_nullable,
		       COALESCE(column_default, ''),
		       column_index
		FROM duckdb_columns()
		WHERE schema_name = ? AND table_name = ?
		ORDER BY column_index`

	rows, err := c.query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.MaxLength,
			&col.Nullable, &col.Default, &col.Ordinal); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pk, err := c.primaryKeyColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		if _, ok := pk[columns[i].Name]; ok {
			columns[i].IsPrimaryKey = true
		}
	}
	return columns, nil
}

func (c *duckdbConnector) primaryKeyColumns(ctx context.Context, schema, table string) (map[string]struct{}, error) {
	const query = `
		SELECT unnest(constraint_column_names)
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'`

	rows, err := c.query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pk := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key row: %w", err)
		}
		pk[name] = struct{}{}
	}
	return pk, rows.Err()
}

// GetForeignKeys parses FK constraint text from duckdb_constraints().
// DuckDB exposes the constraint as SQL rather than in relational form.
func (c *duckdbConnector) GetForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	const query = `
		SELECT schema_name, table_name, constraint_text
		FROM duckdb_constraints()
		WHERE constraint_type = 'FOREIGN KEY'
		ORDER BY schema_name, table_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var schema, table, text string
		if err := rows.Scan(&schema, &table, &text); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fk := parseForeignKeyText(schema, table, text)
		if fk.ReferencedTable == "" {
			c.logger.Warn("skipping unparseable foreign key",
				slog.String("table", table), slog.String("constraint", text))
			continue
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// parseForeignKeyText extracts columns from a constraint of the shape
// FOREIGN KEY (col) REFERENCES target(col).
func parseForeignKeyText(schema, table, text string) ForeignKey {
	fk := ForeignKey{ParentSchema: schema, ParentTable: table, ReferencedSchema: schema}

	upper := strings.ToUpper(text)
	refAt := strings.Index(upper, "REFERENCES")
	if refAt < 0 {
		return fk
	}

	fk.ParentColumn = indexColumns(text[:refAt])

	rest := strings.TrimSpace(text[refAt+len("REFERENCES"):])
	open := strings.Index(rest, "(")
	if open < 0 {
		fk.ReferencedTable = strings.TrimSpace(rest)
		return fk
	}
	fk.ReferencedTable = strings.TrimSpace(rest[:open])
	fk.ReferencedColumn = indexColumns(rest)
	return fk
}

func (c *duckdbConnector) GetStoredProcedures(ctx context.Context) ([]Routine, error) {
	// DuckDB has no stored procedures.
	return nil, nil
}

func (c *duckdbConnector) GetFunctions(ctx context.Context) ([]Routine, error) {
	const query = `
		SELECT schema_name, function_name, COALESCE(macro_definition, '')
		FROM duckdb_functions()
		WHERE NOT internal AND macro_definition IS NOT NULL
		ORDER BY schema_name, function_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fns []Routine
	for rows.Next() {
		var f Routine
		if err := rows.Scan(&f.Schema, &f.Name, &f.Body); err != nil {
			return nil, fmt.Errorf("scan function row: %w", err)
		}
		fns = append(fns, f)
	}
	return fns, rows.Err()
}

func (c *duckdbConnector) GetViews(ctx context.Context) ([]Routine, error) {
	const query = `
		SELECT schema_name, view_name, COALESCE(sql, '')
		FROM duckdb_views()
		WHERE NOT internal
		ORDER BY schema_name, view_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []Routine
	for rows.Next() {
		var v Routine
		if err := rows.Scan(&v.Schema, &v.Name, &v.Body); err != nil {
			return nil, fmt.Errorf("scan view row: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (c *duckdbConnector) GetIndexes(ctx context.Context) ([]Index, error) {
	const query = `
		SELECT schema_name, table_name, index_name, is_unique, COALESCE(sql, '')
		FROM duckdb_indexes()
		ORDER BY table_name, index_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Schema, &idx.Table, &idx.Name,
			&idx.IsUnique, &idx.Definition); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		idx.Type = "art"
		idx.Columns = indexColumns(idx.Definition)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (c *duckdbConnector) GetMissingIndexes(ctx context.Context) ([]MissingIndex, error) {
	// DuckDB keeps no scan statistics to base recommendations on.
	return nil, nil
}

// GetTableSizes reports estimated row counts only. DuckDB tracks storage
// per database file, not per table, so the KB figures stay zero.
func (c *duckdbConnector) GetTableSizes(ctx context.Context) ([]TableSize, error) {
	const query = `
		SELECT schema_name, table_name, estimated_size
		FROM duckdb_tables()
		WHERE NOT internal
		ORDER BY estimated_size DESC`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []TableSize
	for rows.Next() {
		var s TableSize
		if err := rows.Scan(&s.Schema, &s.Table, &s.RowCount); err != nil {
			return nil, fmt.Errorf("scan table size row: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

func (c *duckdbConnector) GetPermissions(ctx context.Context) ([]Permission, error) {
	// DuckDB has no privilege system.
	return nil, nil
}

func (c *duckdbConnector) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query duckdb metadata: %w", err)
	}
	return rows, nil
}
