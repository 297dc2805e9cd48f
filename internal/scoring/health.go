// Package scoring turns analysis results into a database health score
// and per-object migration risk scores.
package scoring

import (
	"sort"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/sqltext"
)

// HealthIssue is one penalty applied to the health score.
type HealthIssue struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Count       int    `json:"count"`
	Penalty     int    `json:"penalty"`
	Category    string `json:"category"`
}

// HealthInput carries everything the health score considers.
type HealthInput struct {
	Tables               []connector.Table
	Indexes              []connector.Index
	MissingIndexes       []analyzer.MissingIndexFinding
	DuplicateIndexes     []analyzer.DuplicateIndex
	DeadCode             analyzer.DeadCodeResult
	CircularDependencies [][]string
	ProcAnalysis         []sqltext.ParseResult
	SecurityIssues       []analyzer.SecurityIssue
}

// complexityPenaltyThreshold marks a stored procedure as high-complexity.
const complexityPenaltyThreshold = 50

// Health computes the 0-100 health score. It starts at 100 and deducts
// per issue category, most penalties capped. Issues come back sorted by
// penalty, largest first.
func Health(in HealthInput) (int, []HealthIssue) {
	score := 100
	var issues []HealthIssue

	penalize := func(count, penalty int, severity, description, category string) {
		if count == 0 {
			return
		}
		score -= penalty
		issues = append(issues, HealthIssue{
			Description: description,
			Severity:    severity,
			Count:       count,
			Penalty:     penalty,
			Category:    category,
		})
	}

	noPK := tablesWithoutPK(in.Tables)
	penalize(noPK, noPK*5, "HIGH", "Tables with no primary key", "schema")

	missing := len(in.MissingIndexes)
	penalize(missing, min(missing*2, 20), "HIGH", "Missing foreign key indexes", "indexes")

	deadSPs := len(in.DeadCode.DeadProcedures)
	penalize(deadSPs, min(deadSPs, 15), "MEDIUM", "Unused stored procedures", "dead_code")

	noIdx := tablesWithoutIndexes(in.Tables, in.Indexes)
	penalize(noIdx, noIdx*5, "HIGH", "Tables with no indexes", "indexes")

	cycles := len(in.CircularDependencies)
	penalize(cycles, cycles*10, "HIGH", "Circular dependencies detected", "dependencies")

	complexSPs := 0
	for _, sp := range in.ProcAnalysis {
		if sp.ComplexityScore > complexityPenaltyThreshold {
			complexSPs++
		}
	}
	penalize(complexSPs, min(complexSPs*2, 15), "MEDIUM", "SPs with complexity score > 50", "complexity")

	dups := len(in.DuplicateIndexes)
	penalize(dups, min(dups*2, 10), "MEDIUM", "Duplicate indexes", "indexes")

	deadTables := len(in.DeadCode.DeadTables)
	penalize(deadTables, min(deadTables*2, 10), "MEDIUM", "Tables with no relationships", "dead_code")

	empty := len(in.DeadCode.EmptyTables)
	penalize(empty, min(empty, 5), "LOW", "Empty tables (0 rows)", "dead_code")

	sec := len(in.SecurityIssues)
	penalize(sec, min(sec*3, 15), "HIGH", "Security concerns found", "security")

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Penalty > issues[j].Penalty
	})

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, issues
}

// tablesWithoutPK counts tables that have columns loaded but no PK.
func tablesWithoutPK(tables []connector.Table) int {
	count := 0
	for _, t := range tables {
		if len(t.Columns) > 0 && !t.HasPrimaryKey() {
			count++
		}
	}
	return count
}

func tablesWithoutIndexes(tables []connector.Table, indexes []connector.Index) int {
	indexed := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		indexed[idx.Table] = struct{}{}
	}

	count := 0
	for _, t := range tables {
		if t.Name == "" {
			continue
		}
		if _, ok := indexed[t.Name]; !ok {
			count++
		}
	}
	return count
}
