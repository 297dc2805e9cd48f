package scoring

import (
	"sort"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/sqltext"
)

// Risk level labels for 0-100 scores.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
	RiskMinimal  = "MINIMAL"
)

// TableRisk scores the danger of modifying one table.
type TableRisk struct {
	Name              string   `json:"name"`
	Schema            string   `json:"schema"`
	RiskScore         int      `json:"risk_score"`
	RiskLevel         string   `json:"risk_level"`
	DependentSPCount  int      `json:"dependent_sp_count"`
	DependentSPs      []string `json:"dependent_sps"`
	FKDependencyCount int      `json:"fk_dependency_count"`
	RowCount          int64    `json:"row_count"`
}

// ProcRisk scores the danger of modifying one stored procedure.
type ProcRisk struct {
	Name                 string `json:"name"`
	Schema               string `json:"schema"`
	RiskScore            int    `json:"risk_score"`
	RiskLevel            string `json:"risk_level"`
	ComplexityScore      int    `json:"complexity_score"`
	ReferencedTableCount int    `json:"referenced_table_count"`
	CallerCount          int    `json:"caller_count"`
}

// RiskScores covers both object families.
type RiskScores struct {
	Tables     []TableRisk `json:"tables"`
	Procedures []ProcRisk  `json:"procedures"`
}

// Risk computes migration risk for every table and stored procedure,
// each list sorted by score descending.
func Risk(tables []connector.Table, relationships []analyzer.Relationship,
	procs []sqltext.ParseResult) RiskScores {

	return RiskScores{
		Tables:     tableRisks(tables, relationships, procs),
		Procedures: procRisks(procs),
	}
}

func tableRisks(tables []connector.Table, relationships []analyzer.Relationship,
	procs []sqltext.ParseResult) []TableRisk {

	// Table name -> SPs referencing it.
	dependents := make(map[string][]string)
	for _, sp := range procs {
		for _, table := range sp.ReferencedTables {
			dependents[table] = append(dependents[table], sp.Name)
		}
	}

	complexityByName := make(map[string]int, len(procs))
	for _, sp := range procs {
		complexityByName[sp.Name] = sp.ComplexityScore
	}

	fkDeps := make(map[string]int)
	for _, rel := range relationships {
		fkDeps[rel.ReferencedTable]++
	}

	risks := make([]TableRisk, 0, len(tables))
	for _, t := range tables {
		deps := dependents[t.Name]

		depScore := min(len(deps)*5, 40)
		fkScore := min(fkDeps[t.Name]*5, 20)
		sizeScore := sizeRisk(t.RowCount)

		complexity := 0
		for _, name := range deps {
			complexity += complexityByName[name]
		}
		complexityScore := min(complexity/5, 20)

		total := min(depScore+fkScore+sizeScore+complexityScore, 100)

		risks = append(risks, TableRisk{
			Name:              t.Name,
			Schema:            t.Schema,
			RiskScore:         total,
			RiskLevel:         RiskLevel(total),
			DependentSPCount:  len(deps),
			DependentSPs:      deps,
			FKDependencyCount: fkDeps[t.Name],
			RowCount:          t.RowCount,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].RiskScore > risks[j].RiskScore
	})
	return risks
}

func procRisks(procs []sqltext.ParseResult) []ProcRisk {
	risks := make([]ProcRisk, 0, len(procs))
	for _, sp := range procs {
		complexityScore := min(sp.ComplexityScore, 40)
		depScore := min(len(sp.ReferencedTables)*5, 30)
		total := min(complexityScore+depScore, 100)

		risks = append(risks, ProcRisk{
			Name:                 sp.Name,
			Schema:               sp.Schema,
			RiskScore:            total,
			RiskLevel:            RiskLevel(total),
			ComplexityScore:      sp.ComplexityScore,
			ReferencedTableCount: len(sp.ReferencedTables),
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].RiskScore > risks[j].RiskScore
	})
	return risks
}

func sizeRisk(rowCount int64) int {
	switch {
	case rowCount >= 10_000_000:
		return 20
	case rowCount >= 1_000_000:
		return 15
	case rowCount >= 100_000:
		return 10
	case rowCount >= 10_000:
		return 5
	default:
		return 0
	}
}

// RiskLevel converts a 0-100 score to its label.
func RiskLevel(score int) string {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskMinimal
	}
}
