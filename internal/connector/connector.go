// Package connector provides read-only metadata access to the databases
// sqlforensic can inspect. Connectors never execute DDL or DML against the
// target; they only read catalog and statistics views.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Config holds connection settings for a target database.
type Config struct {
	// Provider selects the connector implementation ("postgres" or "duckdb").
	Provider string

	// Path is the database file for file-based providers (DuckDB).
	// Use ":memory:" for an in-memory database.
	Path string

	Host     string
	Port     int
	Database string
	Username string
	Password string

	// SSLMode is passed through to network providers ("disable", "require", ...).
	SSLMode string
}

// MaskedDSN renders the connection target with the password hidden, safe
// for logs.
func (c Config) MaskedDSN() string {
	if c.Path != "" {
		return fmt.Sprintf("%s:%s", c.Provider, c.Path)
	}
	user := c.Username
	if user != "" {
		user += ":***@"
	}
	return fmt.Sprintf("%s://%s%s:%d/%s", c.Provider, user, c.Host, c.Port, c.Database)
}

// Validate returns every configuration problem found.
func (c Config) Validate() []error {
	var errs []error
	switch strings.ToLower(c.Provider) {
	case "postgres", "postgresql", "duckdb":
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %q", c.Provider))
	}
	if strings.HasPrefix(strings.ToLower(c.Provider), "postgres") {
		if c.Database == "" {
			errs = append(errs, fmt.Errorf("database name is required"))
		}
		if c.Port != 0 && (c.Port < 1 || c.Port > 65535) {
			errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
		}
	}
	return errs
}

// Column describes one table column.
type Column struct {
	Name         string
	DataType     string
	MaxLength    int64 // 0 when not applicable
	Nullable     bool
	Default      string
	Ordinal      int
	IsPrimaryKey bool
}

// Table describes one base table. Columns are populated by the schema
// analyzer, not by GetTables itself.
type Table struct {
	Schema   string
	Name     string
	RowCount int64
	Columns  []Column
}

// HasPrimaryKey reports whether any loaded column is part of the PK.
func (t Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			return true
		}
	}
	return false
}

// Routine is a stored procedure, view, or function with its SQL text.
// Body may be empty when the engine withholds the definition.
type Routine struct {
	Schema string
	Name   string
	Body   string
}

// ForeignKey is one FK constraint.
type ForeignKey struct {
	ConstraintName   string
	ParentSchema     string
	ParentTable      string
	ParentColumn     string
	ReferencedSchema string
	ReferencedTable  string
	ReferencedColumn string
}

// Index describes one index with usage statistics where the engine
// provides them.
type Index struct {
	Schema       string
	Table        string
	Name         string
	Type         string
	IsUnique     bool
	IsPrimaryKey bool
	Columns      string // comma-separated key columns
	Definition   string
	UserSeeks    int64
	UserScans    int64
	UserLookups  int64
	UserUpdates  int64
}

// MissingIndex is an engine recommendation (or heuristic) for an index
// that does not exist yet.
type MissingIndex struct {
	Table              string
	EqualityColumns    string
	InequalityColumns  string
	IncludedColumns    string
	ImprovementMeasure float64
	UserSeeks          int64
	UserScans          int64
}

// TableSize holds storage statistics for one table.
type TableSize struct {
	Schema      string
	Table       string
	RowCount    int64
	TotalKB     int64
	UsedKB      int64
}

// Permission is one granted privilege, used by the security analyzer.
type Permission struct {
	Principal     string
	PrincipalType string
	Permission    string
	State         string
	Object        string
}

// Connector is the read-only metadata interface every analyzer consumes.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error

	// Provider returns the connector's provider name.
	Provider() string

	GetTables(ctx context.Context) ([]Table, error)
	GetColumns(ctx context.Context, schema, table string) ([]Column, error)
	GetForeignKeys(ctx context.Context) ([]ForeignKey, error)
	GetStoredProcedures(ctx context.Context) ([]Routine, error)
	GetViews(ctx context.Context) ([]Routine, error)
	GetFunctions(ctx context.Context) ([]Routine, error)
	GetIndexes(ctx context.Context) ([]Index, error)
	GetMissingIndexes(ctx context.Context) ([]MissingIndex, error)
	GetTableSizes(ctx context.Context) ([]TableSize, error)
	GetPermissions(ctx context.Context) ([]Permission, error)
}

// indexColumns extracts the key column list from a CREATE INDEX statement.
// Returns "" when the definition does not carry a parenthesized list.
func indexColumns(definition string) string {
	open := strings.Index(definition, "(")
	end := strings.LastIndex(definition, ")")
	if open < 0 || end <= open {
		return ""
	}
	return strings.TrimSpace(definition[open+1 : end])
}

// New returns the connector for the configured provider. A nil logger
// discards log output.
func New(cfg Config, logger *slog.Logger) (Connector, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch strings.ToLower(cfg.Provider) {
	case "postgres", "postgresql":
		return newPostgres(cfg, logger), nil
	case "duckdb":
		return newDuckDB(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q (available: postgres, duckdb)", cfg.Provider)
	}
}
