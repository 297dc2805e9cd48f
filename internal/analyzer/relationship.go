package analyzer

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/sqltext"
)

// Relationship confidence levels by discovery source.
const (
	ConfidenceForeignKey       = 100
	ConfidenceStoredProcedure  = 80
	ConfidenceNamingConvention = 60
)

// Relationship is one discovered table-to-table relationship, explicit
// (FK constraint) or implicit (JOIN usage, column naming).
type Relationship struct {
	ParentTable      string `json:"parent_table"`
	ParentColumn     string `json:"parent_column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	Confidence       int    `json:"confidence"`
	Source           string `json:"source"`
	SourceName       string `json:"source_name"`
}

// RelationshipResult splits discoveries into explicit FK constraints and
// implicit relationships inferred from code and naming.
type RelationshipResult struct {
	Explicit []Relationship `json:"explicit"`
	Implicit []Relationship `json:"implicit"`
}

// joinOnPattern matches "a JOIN b ON x = y" and captures both tables and
// both join columns.
var joinOnPattern = regexp.MustCompile(
	`(?i)(\w+)\s+(?:\w+\s+)?JOIN\s+(\w+)\s+(?:\w+\s+)?ON\s+(?:\w+\.)?(\w+)\s*=\s*(?:\w+\.)?(\w+)`)

// DiscoverRelationships finds explicit and implicit relationships.
// Implicit relationships that duplicate an explicit FK pair (in either
// direction) are dropped.
func DiscoverRelationships(tables []connector.Table, procs []connector.Routine,
	fks []connector.ForeignKey, logger *slog.Logger) RelationshipResult {

	logger.Info("starting relationship analysis")

	explicit := make([]Relationship, 0, len(fks))
	for _, fk := range fks {
		explicit = append(explicit, Relationship{
			ParentTable:      fk.ParentTable,
			ParentColumn:     fk.ParentColumn,
			ReferencedTable:  fk.ReferencedTable,
			ReferencedColumn: fk.ReferencedColumn,
			Confidence:       ConfidenceForeignKey,
			Source:           "foreign_key",
			SourceName:       fk.ConstraintName,
		})
	}

	tableNames := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		tableNames[t.Name] = struct{}{}
	}

	var implicit []Relationship
	implicit = append(implicit, joinRelationships(procs, tableNames)...)
	implicit = append(implicit, namingRelationships(tables, tableNames)...)
	implicit = dropExplicitPairs(implicit, explicit)

	logger.Info("relationship analysis complete",
		slog.Int("explicit", len(explicit)),
		slog.Int("implicit", len(implicit)))
	return RelationshipResult{Explicit: explicit, Implicit: implicit}
}

func joinRelationships(procs []connector.Routine, tableNames map[string]struct{}) []Relationship {
	var rels []Relationship
	seen := make(map[[2]string]struct{})

	for _, sp := range procs {
		if sp.Body == "" {
			continue
		}
		for _, m := range joinOnPattern.FindAllStringSubmatch(sp.Body, -1) {
			tableA := strings.Trim(m[1], `[]"`)
			tableB := strings.Trim(m[2], `[]"`)

			if _, ok := tableNames[tableA]; !ok {
				continue
			}
			if _, ok := tableNames[tableB]; !ok {
				continue
			}

			key := [2]string{tableA, tableB}
			if tableB < tableA {
				key = [2]string{tableB, tableA}
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			rels = append(rels, Relationship{
				ParentTable:      tableA,
				ParentColumn:     m[3],
				ReferencedTable:  tableB,
				ReferencedColumn: m[4],
				Confidence:       ConfidenceStoredProcedure,
				Source:           "stored_procedure",
				SourceName:       sp.Name,
			})
		}
	}
	return rels
}

func namingRelationships(tables []connector.Table, tableNames map[string]struct{}) []Relationship {
	// Lookup from lowercase singular/plural name to the actual table name.
	lookup := make(map[string]string, len(tableNames)*2)
	for name := range tableNames {
		lower := strings.ToLower(name)
		lookup[lower] = name
		if !strings.HasSuffix(lower, "s") {
			lookup[lower+"s"] = name
		}
	}

	var rels []Relationship
	seen := make(map[[3]string]struct{})

	for _, table := range tables {
		for _, col := range table.Columns {
			base := sqltext.FKTargetColumn(col.Name)
			if base == "" {
				continue
			}
			lower := strings.ToLower(base)

			for _, candidate := range []string{lower, lower + "s", lower + "es"} {
				refTable, ok := lookup[candidate]
				if !ok || refTable == table.Name {
					continue
				}

				key := [3]string{table.Name, col.Name, refTable}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				rels = append(rels, Relationship{
					ParentTable:      table.Name,
					ParentColumn:     col.Name,
					ReferencedTable:  refTable,
					ReferencedColumn: "Id",
					Confidence:       ConfidenceNamingConvention,
					Source:           "naming_convention",
					SourceName:       col.Name + " -> " + refTable,
				})
				break
			}
		}
	}
	return rels
}

func dropExplicitPairs(implicit, explicit []Relationship) []Relationship {
	pairs := make(map[[2]string]struct{}, len(explicit)*2)
	for _, fk := range explicit {
		pairs[[2]string{fk.ParentTable, fk.ReferencedTable}] = struct{}{}
		pairs[[2]string{fk.ReferencedTable, fk.ParentTable}] = struct{}{}
	}

	kept := implicit[:0]
	for _, rel := range implicit {
		if _, dup := pairs[[2]string{rel.ParentTable, rel.ReferencedTable}]; dup {
			continue
		}
		kept = append(kept, rel)
	}
	return kept
}
