package diff

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
)

// Risk levels ordered from most to least severe.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
	RiskNone     = "NONE"
)

// Assessor grades schema changes using the target database's stored
// procedures and views to estimate blast radius. The target side is used
// because that is where dependent objects currently run.
type Assessor struct {
	procedures []connector.Routine
	views      []connector.Routine
}

// NewAssessor builds an Assessor over the target database's routines.
func NewAssessor(procedures, views []connector.Routine) *Assessor {
	return &Assessor{procedures: procedures, views: views}
}

// Assess grades every change in the diff and returns assessments sorted
// by risk score descending.
func (a *Assessor) Assess(result *Result) []RiskAssessment {
	var risks []RiskAssessment

	for _, t := range result.Tables.Added {
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("ADD TABLE %s.%s", t.Schema, t.Name),
			Table:             t.Name,
			RiskScore:         0.0,
			RiskLevel:         RiskNone,
		})
	}

	for _, t := range result.Tables.Removed {
		affected := a.findDependents(t.Name)
		score := 0.5 + 0.15*float64(len(affected))
		r := RiskAssessment{
			ChangeDescription: fmt.Sprintf("DROP TABLE %s.%s", t.Schema, t.Name),
			Table:             t.Name,
			RiskScore:         min(score, 1.0),
			RiskLevel:         ScoreToLevel(score),
			AffectedObjects:   affected,
			BreakingChanges:   []string{fmt.Sprintf("Table %s will be permanently removed", t.Name)},
		}
		if len(affected) > 0 {
			r.Recommendations = []string{fmt.Sprintf(
				"Update %d dependent objects BEFORE dropping %s", len(affected), t.Name)}
		}
		risks = append(risks, r)
	}

	for _, mod := range result.Tables.Modified {
		risks = append(risks, a.assessTableModification(mod)...)
	}

	for _, fk := range result.ForeignKeysRemoved {
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("DROP FK %s (%s.%s → %s.%s)",
				fk.ConstraintName, fk.ParentTable, fk.ParentColumn,
				fk.ReferencedTable, fk.ReferencedColumn),
			Table:           fk.ParentTable,
			RiskScore:       0.15,
			RiskLevel:       RiskLow,
			BreakingChanges: []string{"Foreign key constraint removed — data integrity risk"},
		})
	}

	for _, fk := range result.ForeignKeysAdded {
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("ADD FK %s.%s → %s.%s",
				fk.ParentTable, fk.ParentColumn, fk.ReferencedTable, fk.ReferencedColumn),
			Table:     fk.ParentTable,
			RiskScore: 0.1,
			RiskLevel: RiskNone,
			Recommendations: []string{
				"Ensure existing data satisfies the FK constraint before adding"},
		})
	}

	for _, idx := range result.Indexes.Removed {
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("DROP INDEX %s ON %s", idx.IndexName, idx.TableName),
			Table:             idx.TableName,
			RiskScore:         0.1,
			RiskLevel:         RiskLow,
			BreakingChanges:   []string{"Index removed — may impact query performance"},
		})
	}

	for _, sp := range result.Procedures.Removed {
		callers := a.findProcedureCallers(sp.Name)
		score := 0.1 + 0.1*float64(len(callers))
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("DROP PROCEDURE %s.%s", sp.Schema, sp.Name),
			RiskScore:         min(score, 1.0),
			RiskLevel:         ScoreToLevel(score),
			AffectedObjects:   callers,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].RiskScore > risks[j].RiskScore
	})
	return risks
}

func (a *Assessor) assessTableModification(mod TableModification) []RiskAssessment {
	var risks []RiskAssessment
	dependents := a.findDependents(mod.TableName)

	for _, col := range mod.AddedColumns {
		score := 0.15
		var recs []string
		if col.Nullable {
			score = 0.05
		} else {
			recs = []string{fmt.Sprintf(
				"Adding NOT NULL column %s requires a default or data update for existing rows",
				col.Name)}
		}
		risks = append(risks, RiskAssessment{
			ChangeDescription: fmt.Sprintf("ADD COLUMN %s.%s", mod.TableName, col.Name),
			Table:             mod.TableName,
			RiskScore:         score,
			RiskLevel:         ScoreToLevel(score),
			Recommendations:   recs,
		})
	}

	for _, col := range mod.RemovedColumns {
		colDependents := a.findColumnDependents(mod.TableName, col.Name)
		score := 0.3 + 0.1*float64(len(colDependents))
		r := RiskAssessment{
			ChangeDescription: fmt.Sprintf("DROP COLUMN %s.%s", mod.TableName, col.Name),
			Table:             mod.TableName,
			RiskScore:         min(score, 1.0),
			RiskLevel:         ScoreToLevel(score),
			AffectedObjects:   colDependents,
			BreakingChanges:   []string{fmt.Sprintf("Column %s will be permanently removed", col.Name)},
		}
		if len(colDependents) > 0 {
			r.Recommendations = []string{fmt.Sprintf(
				"Update %d dependent objects BEFORE dropping %s.%s",
				len(colDependents), mod.TableName, col.Name)}
		}
		risks = append(risks, r)
	}

	for _, colMod := range mod.ModifiedColumns {
		score := scoreColumnChange(colMod.ChangeType, colMod.IsBreaking, len(dependents))
		detail := fmt.Sprintf("%s → %s", colMod.OldValue, colMod.NewValue)
		r := RiskAssessment{
			ChangeDescription: fmt.Sprintf("ALTER %s.%s (%s: %s)",
				mod.TableName, colMod.ColumnName, colMod.ChangeType, detail),
			Table:     mod.TableName,
			RiskScore: min(score, 1.0),
			RiskLevel: ScoreToLevel(score),
		}
		if colMod.IsBreaking {
			r.AffectedObjects = dependents
			r.BreakingChanges = []string{fmt.Sprintf(
				"%s: %s may break existing data or queries", colMod.ChangeType, detail)}
		}
		risks = append(risks, r)
	}

	return risks
}

// findDependents lists stored procedures and views whose body references
// the table by whole word.
func (a *Assessor) findDependents(tableName string) []string {
	if tableName == "" {
		return nil
	}
	var dependents []string
	for _, sp := range a.procedures {
		if depgraph.References(tableName, sp.Body) {
			dependents = append(dependents, "SP:"+sp.Name)
		}
	}
	for _, v := range a.views {
		if depgraph.References(tableName, v.Body) {
			dependents = append(dependents, "View:"+v.Name)
		}
	}
	return dependents
}

func (a *Assessor) findColumnDependents(tableName, columnName string) []string {
	if tableName == "" {
		return nil
	}
	var dependents []string
	for _, sp := range a.procedures {
		if depgraph.References(tableName, sp.Body) && depgraph.References(columnName, sp.Body) {
			dependents = append(dependents, "SP:"+sp.Name)
		}
	}
	for _, v := range a.views {
		if depgraph.References(tableName, v.Body) && depgraph.References(columnName, v.Body) {
			dependents = append(dependents, "View:"+v.Name)
		}
	}
	return dependents
}

func (a *Assessor) findProcedureCallers(name string) []string {
	var callers []string
	for _, sp := range a.procedures {
		if sp.Name != name && depgraph.References(name, sp.Body) {
			callers = append(callers, "SP:"+sp.Name)
		}
	}
	return callers
}

func scoreColumnChange(changeType string, isBreaking bool, dependents int) float64 {
	var base float64
	switch changeType {
	case ChangeDataType:
		base = 0.2
	case ChangeLength:
		base = 0.15
	case ChangeNullability:
		base = 0.2
	case ChangeDefault:
		base = 0.05
	default:
		base = 0.1
	}
	if isBreaking {
		base += 0.05 * float64(dependents)
	}
	return base
}

// ScoreToLevel converts a numeric risk score to its label.
func ScoreToLevel(score float64) string {
	switch {
	case score >= 0.7:
		return RiskCritical
	case score >= 0.4:
		return RiskHigh
	case score >= 0.2:
		return RiskMedium
	case score >= 0.05:
		return RiskLow
	default:
		return RiskNone
	}
}

// OverallRisk returns the level of the highest-scoring assessment.
func OverallRisk(risks []RiskAssessment) string {
	if len(risks) == 0 {
		return RiskNone
	}
	maxScore := risks[0].RiskScore
	for _, r := range risks[1:] {
		if r.RiskScore > maxScore {
			maxScore = r.RiskScore
		}
	}
	return ScoreToLevel(maxScore)
}
