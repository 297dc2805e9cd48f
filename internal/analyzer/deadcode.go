package analyzer

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
)

// DeadTable is a table no FK, stored procedure, or view references.
type DeadTable struct {
	Schema      string `json:"table_schema"`
	Name        string `json:"table_name"`
	RowCount    int64  `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

// DeadProcedure is a stored procedure no other procedure calls.
type DeadProcedure struct {
	Schema string `json:"routine_schema"`
	Name   string `json:"routine_name"`
}

// OrphanColumn is a non-PK column never mentioned in any routine or view.
type OrphanColumn struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
	DataType   string `json:"data_type"`
}

// EmptyTable is a table with zero rows.
type EmptyTable struct {
	Schema      string `json:"table_schema"`
	Name        string `json:"table_name"`
	ColumnCount int    `json:"column_count"`
}

// DeadCodeResult collects every category of unused database object.
type DeadCodeResult struct {
	DeadTables     []DeadTable     `json:"dead_tables"`
	DeadProcedures []DeadProcedure `json:"dead_procedures"`
	OrphanColumns  []OrphanColumn  `json:"orphan_columns"`
	EmptyTables    []EmptyTable    `json:"empty_tables"`
}

// FindDeadCode cross-references tables, stored procedures, relationships,
// and views to find objects nothing points at.
func FindDeadCode(tables []connector.Table, procs []connector.Routine,
	relationships []Relationship, views []connector.Routine, logger *slog.Logger) DeadCodeResult {

	logger.Info("starting dead code analysis")

	referencedTables := referencedTableNames(tables, procs, relationships, views)
	referencedProcs := referencedProcNames(procs)
	referencedColumns := referencedColumnNames(tables, procs, views)

	var result DeadCodeResult

	for _, t := range tables {
		if _, ok := referencedTables[t.Name]; !ok && t.Name != "" {
			result.DeadTables = append(result.DeadTables, DeadTable{
				Schema:      t.Schema,
				Name:        t.Name,
				RowCount:    t.RowCount,
				ColumnCount: len(t.Columns),
			})
		}
		if t.RowCount == 0 {
			result.EmptyTables = append(result.EmptyTables, EmptyTable{
				Schema:      t.Schema,
				Name:        t.Name,
				ColumnCount: len(t.Columns),
			})
		}
	}

	for _, sp := range procs {
		if _, ok := referencedProcs[sp.Name]; !ok && sp.Name != "" {
			result.DeadProcedures = append(result.DeadProcedures, DeadProcedure{
				Schema: sp.Schema,
				Name:   sp.Name,
			})
		}
	}

	for _, t := range tables {
		used := referencedColumns[t.Name]
		for _, col := range t.Columns {
			if col.IsPrimaryKey {
				continue
			}
			if _, ok := used[col.Name]; !ok && col.Name != "" {
				result.OrphanColumns = append(result.OrphanColumns, OrphanColumn{
					TableName:  t.Name,
					ColumnName: col.Name,
					DataType:   col.DataType,
				})
			}
		}
	}

	logger.Info("dead code analysis complete",
		slog.Int("dead_tables", len(result.DeadTables)),
		slog.Int("dead_procedures", len(result.DeadProcedures)),
		slog.Int("orphan_columns", len(result.OrphanColumns)),
		slog.Int("empty_tables", len(result.EmptyTables)))
	return result
}

func referencedTableNames(tables []connector.Table, procs []connector.Routine,
	relationships []Relationship, views []connector.Routine) map[string]struct{} {

	referenced := make(map[string]struct{})

	for _, rel := range relationships {
		referenced[rel.ParentTable] = struct{}{}
		referenced[rel.ReferencedTable] = struct{}{}
	}

	bodies := make([]string, 0, len(procs)+len(views))
	for _, sp := range procs {
		bodies = append(bodies, sp.Body)
	}
	for _, v := range views {
		bodies = append(bodies, v.Body)
	}

	for _, t := range tables {
		if t.Name == "" {
			continue
		}
		if _, ok := referenced[t.Name]; ok {
			continue
		}
		for _, body := range bodies {
			if depgraph.References(t.Name, body) {
				referenced[t.Name] = struct{}{}
				break
			}
		}
	}
	return referenced
}

func referencedProcNames(procs []connector.Routine) map[string]struct{} {
	referenced := make(map[string]struct{})
	for _, caller := range procs {
		for _, callee := range procs {
			if callee.Name == caller.Name || callee.Name == "" {
				continue
			}
			if depgraph.References(callee.Name, caller.Body) {
				referenced[callee.Name] = struct{}{}
			}
		}
	}
	return referenced
}

func referencedColumnNames(tables []connector.Table, procs []connector.Routine,
	views []connector.Routine) map[string]map[string]struct{} {

	var sb strings.Builder
	for _, sp := range procs {
		sb.WriteString(sp.Body)
		sb.WriteByte('\n')
	}
	for _, v := range views {
		sb.WriteString(v.Body)
		sb.WriteByte('\n')
	}
	allCode := sb.String()

	referenced := make(map[string]map[string]struct{}, len(tables))
	for _, t := range tables {
		cols := make(map[string]struct{})
		for _, col := range t.Columns {
			if col.Name != "" && depgraph.References(col.Name, allCode) {
				cols[col.Name] = struct{}{}
			}
		}
		referenced[t.Name] = cols
	}
	return referenced
}
