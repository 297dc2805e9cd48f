// Package diff compares the schemas of two databases and assesses the
// risk of migrating the target to match the source. The source is the
// desired state, the target is the current state.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ColumnChange kinds recorded in ColumnModification.ChangeType.
const (
	ChangeDataType    = "type_change"
	ChangeLength      = "length_change"
	ChangeNullability = "nullability_change"
	ChangeDefault     = "default_change"
)

// ColumnInfo is column metadata carried in table diffs.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	MaxLength    int64  `json:"max_length"`
	Nullable     bool   `json:"is_nullable"`
	Default      string `json:"default"`
	Ordinal      int    `json:"ordinal"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// ColumnModification is a single column change between source and target.
// OldValue holds the target's (current) value, NewValue the source's.
type ColumnModification struct {
	ColumnName string `json:"column_name"`
	ChangeType string `json:"change_type"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	IsBreaking bool   `json:"is_breaking"`
}

// ConstraintInfo is PK/unique/check constraint metadata.
type ConstraintInfo struct {
	Name           string   `json:"name"`
	ConstraintType string   `json:"constraint_type"`
	Columns        []string `json:"columns"`
}

// ForeignKeyInfo is foreign key metadata carried in diffs.
type ForeignKeyInfo struct {
	ConstraintName   string `json:"constraint_name"`
	ParentSchema     string `json:"parent_schema"`
	ParentTable      string `json:"parent_table"`
	ParentColumn     string `json:"parent_column"`
	ReferencedSchema string `json:"referenced_schema"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// TableInfo describes an added or removed table with its columns.
type TableInfo struct {
	Schema   string       `json:"schema"`
	Name     string       `json:"name"`
	Columns  []ColumnInfo `json:"columns"`
	RowCount int64        `json:"row_count"`
}

// TableModification bundles every change to one table that exists on both
// sides.
type TableModification struct {
	TableName          string               `json:"table_name"`
	TableSchema        string               `json:"table_schema"`
	AddedColumns       []ColumnInfo         `json:"added_columns"`
	RemovedColumns     []ColumnInfo         `json:"removed_columns"`
	ModifiedColumns    []ColumnModification `json:"modified_columns"`
	AddedConstraints   []ConstraintInfo     `json:"added_constraints"`
	RemovedConstraints []ConstraintInfo     `json:"removed_constraints"`
	RiskScore          float64              `json:"risk_score"`
	RiskDetails        []string             `json:"risk_details"`
}

// TableDiff is the table-level diff between source and target.
type TableDiff struct {
	Added    []TableInfo         `json:"added_tables"`
	Removed  []TableInfo         `json:"removed_tables"`
	Modified []TableModification `json:"modified_tables"`
}

// IndexInfo is index metadata carried in diffs.
type IndexInfo struct {
	TableSchema  string `json:"table_schema"`
	TableName    string `json:"table_name"`
	IndexName    string `json:"index_name"`
	IndexType    string `json:"index_type"`
	IsUnique     bool   `json:"is_unique"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	Columns      string `json:"columns"`
}

// IndexModification records an index whose name matches on both sides but
// whose key columns differ.
type IndexModification struct {
	TableName  string `json:"table_name"`
	IndexName  string `json:"index_name"`
	OldColumns string `json:"old_columns"`
	NewColumns string `json:"new_columns"`
}

// IndexDiff is the index-level diff between source and target.
type IndexDiff struct {
	Added    []IndexInfo         `json:"added_indexes"`
	Removed  []IndexInfo         `json:"removed_indexes"`
	Modified []IndexModification `json:"modified_indexes"`
}

// ObjectRef names a procedure, view, or function without its body.
type ObjectRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// ObjectModification records a procedure/view/function whose normalized
// body hash differs between source and target.
type ObjectModification struct {
	Name       string `json:"name"`
	Schema     string `json:"schema"`
	ObjectType string `json:"object_type"`
	SourceHash string `json:"source_hash"`
	TargetHash string `json:"target_hash"`
}

// ObjectDiff is the diff for one class of programmable objects.
type ObjectDiff struct {
	Added    []ObjectRef          `json:"added"`
	Removed  []ObjectRef          `json:"removed"`
	Modified []ObjectModification `json:"modified"`
}

// RiskAssessment grades a single schema change.
type RiskAssessment struct {
	ChangeDescription string   `json:"change_description"`
	Table             string   `json:"table"`
	RiskScore         float64  `json:"risk_score"`
	RiskLevel         string   `json:"risk_level"`
	AffectedObjects   []string `json:"affected_objects"`
	BreakingChanges   []string `json:"breaking_changes"`
	Recommendations   []string `json:"recommendations"`
}

// RowCountChange records a row count difference for a table present in
// both databases.
type RowCountChange struct {
	Table      string `json:"table"`
	SourceRows int64  `json:"source_rows"`
	TargetRows int64  `json:"target_rows"`
	Delta      int64  `json:"delta"`
}

// CategorySummary counts changes of one kind within a category.
type CategorySummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// Result is the complete schema diff between two databases.
type Result struct {
	SourceDatabase string `json:"source_database"`
	TargetDatabase string `json:"target_database"`
	SourceServer   string `json:"source_server"`
	TargetServer   string `json:"target_server"`
	Provider       string `json:"provider"`

	Tables     TableDiff  `json:"tables"`
	Indexes    IndexDiff  `json:"indexes"`
	Procedures ObjectDiff `json:"procedures"`
	Views      ObjectDiff `json:"views"`
	Functions  ObjectDiff `json:"functions"`

	ForeignKeysAdded   []ForeignKeyInfo `json:"foreign_keys_added"`
	ForeignKeysRemoved []ForeignKeyInfo `json:"foreign_keys_removed"`

	Risks     []RiskAssessment `json:"risks"`
	RiskLevel string           `json:"risk_level"`

	IncludeData     bool             `json:"include_data"`
	RowCountChanges []RowCountChange `json:"row_count_changes,omitempty"`
}

// TotalChanges counts every change across all categories.
func (r *Result) TotalChanges() int {
	return len(r.Tables.Added) + len(r.Tables.Removed) + len(r.Tables.Modified) +
		len(r.Indexes.Added) + len(r.Indexes.Removed) + len(r.Indexes.Modified) +
		len(r.Procedures.Added) + len(r.Procedures.Removed) + len(r.Procedures.Modified) +
		len(r.Views.Added) + len(r.Views.Removed) + len(r.Views.Modified) +
		len(r.Functions.Added) + len(r.Functions.Removed) + len(r.Functions.Modified) +
		len(r.ForeignKeysAdded) + len(r.ForeignKeysRemoved)
}

// HasChanges reports whether any differences were found.
func (r *Result) HasChanges() bool { return r.TotalChanges() > 0 }

// SummaryRow pairs a change category with its counts.
type SummaryRow struct {
	Category string          `json:"category"`
	Counts   CategorySummary `json:"counts"`
}

// Summary returns per-category change counts in display order.
func (r *Result) Summary() []SummaryRow {
	addedCols, removedCols, modifiedCols := 0, 0, 0
	for _, t := range r.Tables.Modified {
		addedCols += len(t.AddedColumns)
		removedCols += len(t.RemovedColumns)
		modifiedCols += len(t.ModifiedColumns)
	}
	return []SummaryRow{
		{"Tables", CategorySummary{len(r.Tables.Added), len(r.Tables.Removed), len(r.Tables.Modified)}},
		{"Columns", CategorySummary{addedCols, removedCols, modifiedCols}},
		{"Indexes", CategorySummary{len(r.Indexes.Added), len(r.Indexes.Removed), len(r.Indexes.Modified)}},
		{"Foreign Keys", CategorySummary{len(r.ForeignKeysAdded), len(r.ForeignKeysRemoved), 0}},
		{"Stored Procedures", CategorySummary{len(r.Procedures.Added), len(r.Procedures.Removed), len(r.Procedures.Modified)}},
		{"Views", CategorySummary{len(r.Views.Added), len(r.Views.Removed), len(r.Views.Modified)}},
		{"Functions", CategorySummary{len(r.Functions.Added), len(r.Functions.Removed), len(r.Functions.Modified)}},
	}
}

// HashBody hashes a SQL body for comparison: whitespace is collapsed and
// case folded before hashing, so formatting-only edits compare equal.
func HashBody(body string) string {
	if body == "" {
		return ""
	}
	normalized := strings.ToLower(strings.Join(strings.Fields(body), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}
