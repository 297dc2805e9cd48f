package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// MissingIndexFinding is an index the engine statistics suggest creating.
type MissingIndexFinding struct {
	TableName          string  `json:"table_name"`
	EqualityColumns    string  `json:"equality_columns"`
	InequalityColumns  string  `json:"inequality_columns"`
	IncludedColumns    string  `json:"included_columns"`
	ImprovementMeasure float64 `json:"improvement_measure"`
	UserSeeks          int64   `json:"user_seeks"`
	UserScans          int64   `json:"user_scans"`
	CreateSQL          string  `json:"create_sql"`
}

// UnusedIndex is an index with zero recorded reads.
type UnusedIndex struct {
	TableName   string `json:"table_name"`
	IndexName   string `json:"index_name"`
	IndexType   string `json:"index_type"`
	Columns     string `json:"columns"`
	UserUpdates int64  `json:"user_updates"`
	DropSQL     string `json:"drop_sql"`
}

// DuplicateIndex covers exactly the same columns as another index.
type DuplicateIndex struct {
	TableName   string `json:"table_name"`
	IndexName   string `json:"index_name"`
	DuplicateOf string `json:"duplicate_of"`
	Columns     string `json:"columns"`
	DropSQL     string `json:"drop_sql"`
}

// OverlappingIndexes is a pair where the shorter index's columns are a
// prefix of the longer one's.
type OverlappingIndexes struct {
	TableName      string `json:"table_name"`
	ShorterIndex   string `json:"shorter_index"`
	LongerIndex    string `json:"longer_index"`
	ShorterColumns string `json:"shorter_columns"`
	LongerColumns  string `json:"longer_columns"`
}

// IndexRecommendation is one prioritized, ready-to-run action.
type IndexRecommendation struct {
	Action      string  `json:"action"` // CREATE or DROP
	Priority    string  `json:"priority"`
	Description string  `json:"description"`
	SQL         string  `json:"sql"`
	Impact      float64 `json:"impact"`
}

// IndexResult aggregates all index findings and recommendations.
type IndexResult struct {
	All             []connector.Index     `json:"all"`
	Missing         []MissingIndexFinding `json:"missing"`
	Unused          []UnusedIndex         `json:"unused"`
	Duplicates      []DuplicateIndex      `json:"duplicates"`
	Overlapping     []OverlappingIndexes  `json:"overlapping"`
	Recommendations []IndexRecommendation `json:"recommendations"`
}

// maxCreateRecommendations caps how many missing-index findings become
// CREATE recommendations.
const maxCreateRecommendations = 20

// AnalyzeIndexes finds missing, unused, duplicate, and overlapping
// indexes and turns them into prioritized recommendations.
func AnalyzeIndexes(ctx context.Context, conn connector.Connector, logger *slog.Logger) (*IndexResult, error) {
	logger.Info("starting index analysis")

	all, err := conn.GetIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load indexes: %w", err)
	}
	rawMissing, err := conn.GetMissingIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load missing indexes: %w", err)
	}

	result := &IndexResult{
		All:         all,
		Missing:     missingFindings(rawMissing),
		Unused:      unusedIndexes(all),
		Duplicates:  duplicateIndexes(all),
		Overlapping: overlappingIndexes(all),
	}
	result.Recommendations = indexRecommendations(result.Missing, result.Unused, result.Duplicates)

	logger.Info("index analysis complete",
		slog.Int("missing", len(result.Missing)),
		slog.Int("unused", len(result.Unused)),
		slog.Int("duplicates", len(result.Duplicates)))
	return result, nil
}

func missingFindings(raw []connector.MissingIndex) []MissingIndexFinding {
	var missing []MissingIndexFinding

	for _, row := range raw {
		tableName := row.Table
		if i := strings.LastIndex(tableName, "."); i >= 0 {
			tableName = strings.Trim(tableName[i+1:], "[]")
		}

		columns := splitColumnList(row.EqualityColumns)
		columns = append(columns, splitColumnList(row.InequalityColumns)...)
		include := splitColumnList(row.IncludedColumns)
		if len(columns) == 0 {
			continue
		}

		missing = append(missing, MissingIndexFinding{
			TableName:          tableName,
			EqualityColumns:    row.EqualityColumns,
			InequalityColumns:  row.InequalityColumns,
			IncludedColumns:    row.IncludedColumns,
			ImprovementMeasure: row.ImprovementMeasure,
			UserSeeks:          row.UserSeeks,
			UserScans:          row.UserScans,
			CreateSQL:          buildCreateIndexSQL(tableName, columns, include),
		})
	}

	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].ImprovementMeasure > missing[j].ImprovementMeasure
	})
	return missing
}

func unusedIndexes(indexes []connector.Index) []UnusedIndex {
	var unused []UnusedIndex
	for _, idx := range indexes {
		if idx.IsPrimaryKey || idx.IsUnique {
			continue
		}
		if idx.UserSeeks != 0 || idx.UserScans != 0 || idx.UserLookups != 0 {
			continue
		}
		unused = append(unused, UnusedIndex{
			TableName:   idx.Table,
			IndexName:   idx.Name,
			IndexType:   idx.Type,
			Columns:     idx.Columns,
			UserUpdates: idx.UserUpdates,
			DropSQL:     buildDropIndexSQL(idx.Table, idx.Name),
		})
	}
	return unused
}

func duplicateIndexes(indexes []connector.Index) []DuplicateIndex {
	var duplicates []DuplicateIndex

	for _, tableIndexes := range groupByTable(indexes) {
		seen := make(map[string]string)
		for _, idx := range tableIndexes {
			if idx.Columns == "" {
				continue
			}
			normalized := normalizeColumnList(idx.Columns)
			if first, dup := seen[normalized]; dup {
				duplicates = append(duplicates, DuplicateIndex{
					TableName:   idx.Table,
					IndexName:   idx.Name,
					DuplicateOf: first,
					Columns:     idx.Columns,
					DropSQL:     buildDropIndexSQL(idx.Table, idx.Name),
				})
			} else {
				seen[normalized] = idx.Name
			}
		}
	}
	return duplicates
}

func overlappingIndexes(indexes []connector.Index) []OverlappingIndexes {
	var overlapping []OverlappingIndexes

	for _, tableIndexes := range groupByTable(indexes) {
		type parsedIndex struct {
			name string
			cols []string
		}
		var parsed []parsedIndex
		for _, idx := range tableIndexes {
			if idx.Columns == "" {
				continue
			}
			cols := splitColumnList(strings.ToLower(idx.Columns))
			parsed = append(parsed, parsedIndex{name: idx.Name, cols: cols})
		}

		for i := 0; i < len(parsed); i++ {
			for j := i + 1; j < len(parsed); j++ {
				a, b := parsed[i], parsed[j]
				switch {
				case isColumnPrefix(a.cols, b.cols):
					overlapping = append(overlapping, OverlappingIndexes{
						TableName:      tableIndexes[0].Table,
						ShorterIndex:   a.name,
						LongerIndex:    b.name,
						ShorterColumns: strings.Join(a.cols, ", "),
						LongerColumns:  strings.Join(b.cols, ", "),
					})
				case isColumnPrefix(b.cols, a.cols):
					overlapping = append(overlapping, OverlappingIndexes{
						TableName:      tableIndexes[0].Table,
						ShorterIndex:   b.name,
						LongerIndex:    a.name,
						ShorterColumns: strings.Join(b.cols, ", "),
						LongerColumns:  strings.Join(a.cols, ", "),
					})
				}
			}
		}
	}
	return overlapping
}

func indexRecommendations(missing []MissingIndexFinding, unused []UnusedIndex,
	duplicates []DuplicateIndex) []IndexRecommendation {

	var recs []IndexRecommendation

	create := missing
	if len(create) > maxCreateRecommendations {
		create = create[:maxCreateRecommendations]
	}
	for _, m := range create {
		recs = append(recs, IndexRecommendation{
			Action:      "CREATE",
			Priority:    "HIGH",
			Description: fmt.Sprintf("Create missing index on %s", m.TableName),
			SQL:         m.CreateSQL,
			Impact:      m.ImprovementMeasure,
		})
	}

	for _, d := range duplicates {
		recs = append(recs, IndexRecommendation{
			Action:      "DROP",
			Priority:    "MEDIUM",
			Description: fmt.Sprintf("Drop duplicate index %s (duplicate of %s)", d.IndexName, d.DuplicateOf),
			SQL:         d.DropSQL,
		})
	}

	for _, u := range unused {
		if u.UserUpdates <= 100 {
			continue
		}
		recs = append(recs, IndexRecommendation{
			Action:   "DROP",
			Priority: "LOW",
			Description: fmt.Sprintf("Consider dropping unused index %s on %s (%d writes, 0 reads)",
				u.IndexName, u.TableName, u.UserUpdates),
			SQL: u.DropSQL,
		})
	}
	return recs
}

// groupByTable preserves input order within each table's slice and
// returns tables in deterministic order.
func groupByTable(indexes []connector.Index) [][]connector.Index {
	byTable := make(map[string][]connector.Index)
	var order []string
	for _, idx := range indexes {
		if _, ok := byTable[idx.Table]; !ok {
			order = append(order, idx.Table)
		}
		byTable[idx.Table] = append(byTable[idx.Table], idx)
	}

	grouped := make([][]connector.Index, 0, len(order))
	for _, table := range order {
		grouped = append(grouped, byTable[table])
	}
	return grouped
}

func splitColumnList(raw string) []string {
	var cols []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.Trim(strings.TrimSpace(c), "[]")
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func normalizeColumnList(raw string) string {
	return strings.Join(splitColumnList(strings.ToLower(raw)), ",")
}

func isColumnPrefix(shorter, longer []string) bool {
	if len(shorter) >= len(longer) {
		return false
	}
	for i, c := range shorter {
		if longer[i] != c {
			return false
		}
	}
	return true
}

func buildCreateIndexSQL(table string, columns, include []string) string {
	suffix := strings.Join(columns, "_")
	if len(suffix) > 40 {
		suffix = suffix[:40]
	}
	sql := fmt.Sprintf("CREATE INDEX [IX_%s_%s] ON [%s] (%s)",
		table, suffix, table, strings.Join(columns, ", "))
	if len(include) > 0 {
		sql += fmt.Sprintf(" INCLUDE (%s)", strings.Join(include, ", "))
	}
	return sql + ";"
}

func buildDropIndexSQL(table, index string) string {
	return fmt.Sprintf("DROP INDEX [%s] ON [%s];", index, table)
}
