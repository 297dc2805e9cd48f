package diff

import (
	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

func indexKey(idx connector.Index) string {
	return idx.Schema + "." + idx.Table + "." + idx.Name
}

func toIndexInfo(idx connector.Index) IndexInfo {
	return IndexInfo{
		TableSchema:  idx.Schema,
		TableName:    idx.Table,
		IndexName:    idx.Name,
		IndexType:    idx.Type,
		IsUnique:     idx.IsUnique,
		IsPrimaryKey: idx.IsPrimaryKey,
		Columns:      idx.Columns,
	}
}

// DiffIndexes compares indexes by schema.table.name. An index present on
// both sides with a different column list is reported as modified.
func DiffIndexes(source, target []connector.Index) IndexDiff {
	sourceMap := make(map[string]connector.Index, len(source))
	for _, idx := range source {
		sourceMap[indexKey(idx)] = idx
	}
	targetMap := make(map[string]connector.Index, len(target))
	for _, idx := range target {
		targetMap[indexKey(idx)] = idx
	}

	var d IndexDiff
	for _, k := range sortedKeys(sourceMap) {
		if _, ok := targetMap[k]; !ok {
			d.Added = append(d.Added, toIndexInfo(sourceMap[k]))
		}
	}
	for _, k := range sortedKeys(targetMap) {
		if _, ok := sourceMap[k]; !ok {
			d.Removed = append(d.Removed, toIndexInfo(targetMap[k]))
		}
	}
	for _, k := range sortedKeys(sourceMap) {
		tgt, ok := targetMap[k]
		if !ok {
			continue
		}
		src := sourceMap[k]
		if src.Columns != tgt.Columns {
			d.Modified = append(d.Modified, IndexModification{
				TableName:  src.Table,
				IndexName:  src.Name,
				OldColumns: tgt.Columns,
				NewColumns: src.Columns,
			})
		}
	}
	return d
}
