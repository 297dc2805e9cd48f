package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

func tableKey(t connector.Table) string {
	return t.Schema + "." + t.Name
}

func fkKey(fk connector.ForeignKey) string {
	return fmt.Sprintf("%s.%s→%s.%s",
		fk.ParentTable, fk.ParentColumn, fk.ReferencedTable, fk.ReferencedColumn)
}

func toColumnInfo(c connector.Column) ColumnInfo {
	return ColumnInfo{
		Name:         c.Name,
		DataType:     c.DataType,
		MaxLength:    c.MaxLength,
		Nullable:     c.Nullable,
		Default:      c.Default,
		Ordinal:      c.Ordinal,
		IsPrimaryKey: c.IsPrimaryKey,
	}
}

func toTableInfo(t connector.Table) TableInfo {
	cols := make([]ColumnInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, toColumnInfo(c))
	}
	return TableInfo{Schema: t.Schema, Name: t.Name, Columns: cols, RowCount: t.RowCount}
}

func toForeignKeyInfo(fk connector.ForeignKey) ForeignKeyInfo {
	return ForeignKeyInfo{
		ConstraintName:   fk.ConstraintName,
		ParentSchema:     fk.ParentSchema,
		ParentTable:      fk.ParentTable,
		ParentColumn:     fk.ParentColumn,
		ReferencedSchema: fk.ReferencedSchema,
		ReferencedTable:  fk.ReferencedTable,
		ReferencedColumn: fk.ReferencedColumn,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DiffTables compares source (desired state) against target (current
// state) tables, including column-level changes for tables on both sides.
func DiffTables(source, target []connector.Table) TableDiff {
	sourceMap := make(map[string]connector.Table, len(source))
	for _, t := range source {
		sourceMap[tableKey(t)] = t
	}
	targetMap := make(map[string]connector.Table, len(target))
	for _, t := range target {
		targetMap[tableKey(t)] = t
	}

	var d TableDiff
	for _, k := range sortedKeys(sourceMap) {
		if _, ok := targetMap[k]; !ok {
			d.Added = append(d.Added, toTableInfo(sourceMap[k]))
		}
	}
	for _, k := range sortedKeys(targetMap) {
		if _, ok := sourceMap[k]; !ok {
			d.Removed = append(d.Removed, toTableInfo(targetMap[k]))
		}
	}
	for _, k := range sortedKeys(sourceMap) {
		tgt, ok := targetMap[k]
		if !ok {
			continue
		}
		if mod, changed := diffSingleTable(sourceMap[k], tgt); changed {
			d.Modified = append(d.Modified, mod)
		}
	}
	return d
}

func diffSingleTable(source, target connector.Table) (TableModification, bool) {
	sourceCols := make(map[string]connector.Column, len(source.Columns))
	for _, c := range source.Columns {
		sourceCols[c.Name] = c
	}
	targetCols := make(map[string]connector.Column, len(target.Columns))
	for _, c := range target.Columns {
		targetCols[c.Name] = c
	}

	mod := TableModification{TableName: source.Name, TableSchema: source.Schema}
	for _, name := range sortedKeys(sourceCols) {
		if _, ok := targetCols[name]; !ok {
			mod.AddedColumns = append(mod.AddedColumns, toColumnInfo(sourceCols[name]))
		}
	}
	for _, name := range sortedKeys(targetCols) {
		if _, ok := sourceCols[name]; !ok {
			mod.RemovedColumns = append(mod.RemovedColumns, toColumnInfo(targetCols[name]))
		}
	}
	for _, name := range sortedKeys(sourceCols) {
		tgt, ok := targetCols[name]
		if !ok {
			continue
		}
		mod.ModifiedColumns = append(mod.ModifiedColumns, diffColumn(sourceCols[name], tgt)...)
	}

	changed := len(mod.AddedColumns) > 0 || len(mod.RemovedColumns) > 0 || len(mod.ModifiedColumns) > 0
	return mod, changed
}

func nullability(nullable bool) string {
	if nullable {
		return "YES"
	}
	return "NO"
}

// diffColumn reports every change between the source and target versions
// of one column. OldValue always carries the target's current value.
func diffColumn(source, target connector.Column) []ColumnModification {
	var mods []ColumnModification

	srcType := strings.ToLower(source.DataType)
	tgtType := strings.ToLower(target.DataType)
	if srcType != tgtType {
		mods = append(mods, ColumnModification{
			ColumnName: source.Name,
			ChangeType: ChangeDataType,
			OldValue:   tgtType,
			NewValue:   srcType,
			IsBreaking: true,
		})
	}

	if source.MaxLength != target.MaxLength && (source.MaxLength != 0 || target.MaxLength != 0) {
		// Shrinking a column can truncate existing data.
		mods = append(mods, ColumnModification{
			ColumnName: source.Name,
			ChangeType: ChangeLength,
			OldValue:   strconv.FormatInt(target.MaxLength, 10),
			NewValue:   strconv.FormatInt(source.MaxLength, 10),
			IsBreaking: source.MaxLength < target.MaxLength,
		})
	}

	if source.Nullable != target.Nullable {
		// Tightening to NOT NULL fails if NULLs already exist.
		mods = append(mods, ColumnModification{
			ColumnName: source.Name,
			ChangeType: ChangeNullability,
			OldValue:   nullability(target.Nullable),
			NewValue:   nullability(source.Nullable),
			IsBreaking: !source.Nullable && target.Nullable,
		})
	}

	if source.Default != target.Default {
		mods = append(mods, ColumnModification{
			ColumnName: source.Name,
			ChangeType: ChangeDefault,
			OldValue:   target.Default,
			NewValue:   source.Default,
			IsBreaking: false,
		})
	}

	return mods
}

// DiffForeignKeys compares foreign keys by their column-to-column edge,
// not by constraint name, so renamed constraints do not register as
// changes. Returns added and removed keys.
func DiffForeignKeys(source, target []connector.ForeignKey) (added, removed []ForeignKeyInfo) {
	sourceMap := make(map[string]connector.ForeignKey, len(source))
	for _, fk := range source {
		sourceMap[fkKey(fk)] = fk
	}
	targetMap := make(map[string]connector.ForeignKey, len(target))
	for _, fk := range target {
		targetMap[fkKey(fk)] = fk
	}

	for _, k := range sortedKeys(sourceMap) {
		if _, ok := targetMap[k]; !ok {
			added = append(added, toForeignKeyInfo(sourceMap[k]))
		}
	}
	for _, k := range sortedKeys(targetMap) {
		if _, ok := sourceMap[k]; !ok {
			removed = append(removed, toForeignKeyInfo(targetMap[k]))
		}
	}
	return added, removed
}
