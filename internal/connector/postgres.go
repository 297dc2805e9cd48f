package connector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// postgresConnector reads PostgreSQL metadata through information_schema
// and the pg_catalog statistics views.
type postgresConnector struct {
	cfg    Config
	logger *slog.Logger
	db     *sql.DB
}

func newPostgres(cfg Config, logger *slog.Logger) *postgresConnector {
	return &postgresConnector{cfg: cfg, logger: logger}
}

func (c *postgresConnector) Provider() string { return "postgres" }

func (c *postgresConnector) Connect(ctx context.Context) error {
	c.logger.Info("connecting to postgres", slog.String("target", c.cfg.MaskedDSN()))

	db, err := sql.Open("pgx", c.dsn())
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	c.db = db
	return nil
}

func (c *postgresConnector) dsn() string {
	host := c.cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := c.cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := c.cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, c.cfg.Database, sslmode)
	if c.cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", c.cfg.Username)
	}
	if c.cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.cfg.Password)
	}
	return dsn
}

func (c *postgresConnector) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *postgresConnector) GetTables(ctx context.Context) ([]Table, error) {
	const query = `
		SELECT t.table_schema, t.table_name, COALESCE(s.n_live_tup, 0)
		FROM information_schema.tables t
		LEFT JOIN pg_stat_user_tables s
			ON t.table_schema = s.schemaname AND t.table_name = s.relname
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_schema, t.table_name`

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

func (c *postgresConnector) GetColumns(ctx context.Context, schema, table string) ([]Column, error) {
	const query = `
		SELECT c.column_name,
		       c.data_type,
		       COALESCE(c.character_maximum_length, 0),
		       c.is_nullable = 'YES',
		       COALESCE(c.column_default, ''),
		       c.ordinal_position,
		       pk.column_name IS NOT NULL
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.table_schema, kcu.table_name, kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
		) pk ON c.table_schema = pk.table_schema
		     AND c.table_name = pk.table_name
		     AND c.column_name = pk.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := c.query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.MaxLength, &col.Nullable,
			&col.Default, &col.Ordinal, &col.IsPrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c *postgresConnector) GetForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	const query = `
		SELECT tc.constraint_name,
		       tc.table_schema, tc.table_name, kcu.column_name,
		       ccu.table_schema, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.table_name, tc.constraint_name`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.ParentSchema, &fk.ParentTable,
			&fk.ParentColumn, &fk.ReferencedSchema, &fk.ReferencedTable,
			&fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// GetStoredProcedures returns procedures (prokind 'p'). PostgreSQL functions
// are reported separately by GetFunctions.
func (c *postgresConnector) GetStoredProcedures(ctx context.Context) ([]Routine, error) {
	return c.routines(ctx, "p")
}

func (c *postgresConnector) GetFunctions(ctx context.Context) ([]Routine, error) {
	return c.routines(ctx, "f")
}

func (c *postgresConnector) routines(ctx context.Context, kind string) ([]Routine, error) {
	const query = `
		SELECT n.nspname, p.proname, COALESCE(pg_get_functiondef(p.oid), '')
		FROM pg_proc p
		JOIN pg_namespace n ON p.pronamespace = n.oid
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND p.prokind = $1
		ORDER BY n.nspname, p.proname`

	rows, err := c.query(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []Routine
	for rows.Next() {
		var r Routine
		if err := rows.Scan(&r.Schema, &r.Name, &r.Body); err != nil {
			return nil, fmt.Errorf("scan routine row: %w", err)
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func (c *postgresConnector) GetViews(ctx context.Context) ([]Routine, error) {
	const query = `
		SELECT table_schema, table_name, COALESCE(view_definition, '')
		FROM information_schema.views
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY table_schema, table_name`

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

func (c *postgresConnector) GetIndexes(ctx context.Context) ([]Index, error) {
	const query = `
		SELECT i.schemaname, i.tablename, i.indexname,
		       i.indexdef LIKE '%UNIQUE%',
		       i.indexdef,
		       COALESCE(psi.idx_scan, 0),
		       COALESCE(psi.idx_tup_read, 0)
		FROM pg_indexes i
		LEFT JOIN pg_stat_user_indexes psi
			ON i.indexname = psi.indexrelname AND i.schemaname = psi.schemaname
		WHERE i.schemaname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY i.tablename, i.indexname`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Schema, &idx.Table, &idx.Name, &idx.IsUnique,
			&idx.Definition, &idx.UserSeeks, &idx.UserScans); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		idx.Type = "btree"
		idx.Columns = indexColumns(idx.Definition)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// GetMissingIndexes approximates SQL Server's missing-index DMV with
// sequential-scan statistics: big tables read mostly by seq scan likely
// want an index.
func (c *postgresConnector) GetMissingIndexes(ctx context.Context) ([]MissingIndex, error) {
	const query = `
		SELECT schemaname || '.' || relname,
		       COALESCE(seq_tup_read::float / NULLIF(seq_scan, 0), 0),
		       seq_scan,
		       COALESCE(idx_scan, 0)
		FROM pg_stat_user_tables
		WHERE seq_scan > 0
		  AND n_live_tup > 1000
		  AND (idx_scan IS NULL OR seq_scan > idx_scan * 2)
		ORDER BY seq_tup_read DESC
		LIMIT 50`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []MissingIndex
	for rows.Next() {
		var m MissingIndex
		if err := rows.Scan(&m.Table, &m.ImprovementMeasure, &m.UserScans, &m.UserSeeks); err != nil {
			return nil, fmt.Errorf("scan missing index row: %w", err)
		}
		missing = append(missing, m)
	}
	return missing, rows.Err()
}

func (c *postgresConnector) GetTableSizes(ctx context.Context) ([]TableSize, error) {
	const query = `
		SELECT n.nspname, cl.relname,
		       cl.reltuples::bigint,
		       pg_total_relation_size(cl.oid) / 1024,
		       pg_relation_size(cl.oid) / 1024
		FROM pg_class cl
		JOIN pg_namespace n ON cl.relnamespace = n.oid
		WHERE cl.relkind = 'r'
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY pg_total_relation_size(cl.oid) DESC`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []TableSize
	for rows.Next() {
		var s TableSize
		if err := rows.Scan(&s.Schema, &s.Table, &s.RowCount, &s.TotalKB, &s.UsedKB); err != nil {
			return nil, fmt.Errorf("scan table size row: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

func (c *postgresConnector) GetPermissions(ctx context.Context) ([]Permission, error) {
	const query = `
		SELECT grantee, privilege_type, is_grantable,
		       table_schema || '.' || table_name
		FROM information_schema.role_table_grants
		WHERE grantee NOT IN ('postgres', 'PUBLIC')
		  AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY grantee, privilege_type`

	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Principal, &p.Permission, &p.State, &p.Object); err != nil {
			return nil, fmt.Errorf("scan permission row: %w", err)
		}
		p.PrincipalType = "ROLE"
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (c *postgresConnector) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query postgres metadata: %w", err)
	}
	return rows, nil
}
