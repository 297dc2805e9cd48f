// Package analyzer implements the individual database analyses: schema,
// relationships, dead code, indexes, stored procedures, sizes, and
// security. Each analyzer works from connector metadata and returns a
// typed result.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// columnFetchLimit caps concurrent GetColumns calls per analysis.
const columnFetchLimit = 8

// SchemaOverview summarizes object counts across the whole database.
type SchemaOverview struct {
	Tables           int   `json:"tables"`
	Views            int   `json:"views"`
	StoredProcedures int   `json:"stored_procedures"`
	Functions        int   `json:"functions"`
	Indexes          int   `json:"indexes"`
	ForeignKeys      int   `json:"foreign_keys"`
	TotalColumns     int   `json:"total_columns"`
	TotalRows        int64 `json:"total_rows"`
}

// SchemaResult holds every object the schema analysis collected.
type SchemaResult struct {
	Tables           []connector.Table      `json:"tables"`
	Views            []connector.Routine    `json:"views"`
	StoredProcedures []connector.Routine    `json:"stored_procedures"`
	Functions        []connector.Routine    `json:"functions"`
	Indexes          []connector.Index      `json:"indexes"`
	ForeignKeys      []connector.ForeignKey `json:"foreign_keys"`
	Overview         SchemaOverview         `json:"overview"`
}

// AnalyzeSchema loads tables with their columns plus views, routines,
// indexes, and foreign keys. Column loading runs concurrently.
func AnalyzeSchema(ctx context.Context, conn connector.Connector, logger *slog.Logger) (*SchemaResult, error) {
	logger.Info("starting schema analysis")

	tables, err := conn.GetTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(columnFetchLimit)
	for i := range tables {
		g.Go(func() error {
			cols, err := conn.GetColumns(gctx, tables[i].Schema, tables[i].Name)
			if err != nil {
				return fmt.Errorf("load columns for %s.%s: %w", tables[i].Schema, tables[i].Name, err)
			}
			tables[i].Columns = cols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views, err := conn.GetViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	procs, err := conn.GetStoredProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored procedures: %w", err)
	}
	functions, err := conn.GetFunctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load functions: %w", err)
	}
	indexes, err := conn.GetIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load indexes: %w", err)
	}
	fks, err := conn.GetForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load foreign keys: %w", err)
	}

	result := &SchemaResult{
		Tables:           tables,
		Views:            views,
		StoredProcedures: procs,
		Functions:        functions,
		Indexes:          indexes,
		ForeignKeys:      fks,
	}
	result.Overview = SchemaOverview{
		Tables:           len(tables),
		Views:            len(views),
		StoredProcedures: len(procs),
		Functions:        len(functions),
		Indexes:          len(indexes),
		ForeignKeys:      len(fks),
	}
	for _, t := range tables {
		result.Overview.TotalColumns += len(t.Columns)
		result.Overview.TotalRows += t.RowCount
	}

	logger.Info("schema analysis complete",
		slog.Int("tables", len(tables)),
		slog.Int("stored_procedures", len(procs)),
		slog.Int("indexes", len(indexes)))
	return result, nil
}
