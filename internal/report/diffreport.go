package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlforensic/internal/diff"
)

// maxAffectedShown caps the affected-objects cell in the risk table.
const maxAffectedShown = 5

// RenderDiff writes the schema diff report in the renderer's effective
// mode.
func RenderDiff(r *Renderer, result *diff.Result) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(diffDocument(result))
	case ModeMarkdown:
		renderDiffMarkdown(r, result)
		return nil
	default:
		renderDiffText(r, result)
		return nil
	}
}

func renderDiffText(r *Renderer, result *diff.Result) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("sqlforensic — Schema Diff Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("Source:   %s (%s)\n", result.SourceDatabase, result.SourceServer)
	r.Printf("Target:   %s (%s)\n", result.TargetDatabase, result.TargetServer)
	r.Printf("Provider: %s\n", result.Provider)
	r.Printf("Overall Risk: %s   Total Changes: %d\n",
		styles.Severity(result.RiskLevel).Render(result.RiskLevel), result.TotalChanges())
	r.Println("")

	if !result.HasChanges() {
		r.Println(styles.Muted.Render("No schema differences detected."))
		return
	}

	renderDiffSummaryTable(r, result)
	renderDiffRiskTable(r, result)
	renderDiffBreaking(r, result)
	renderDiffMigrationInfo(r, result)
	renderDiffRecommendations(r, result)
}

func renderDiffSummaryTable(r *Renderer, result *diff.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Change Summary")
	t.AppendHeader(table.Row{"Object Type", "Added", "Removed", "Modified"})
	for _, row := range result.Summary() {
		t.AppendRow(table.Row{
			row.Category,
			dashIfZero(row.Counts.Added),
			dashIfZero(row.Counts.Removed),
			dashIfZero(row.Counts.Modified),
		})
	}
	t.Render()
	r.Println("")
}

func renderDiffRiskTable(r *Renderer, result *diff.Result) {
	if len(result.Risks) == 0 {
		return
	}
	styles := r.Styles()

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Risk Assessment")
	t.AppendHeader(table.Row{"Change", "Risk Level", "Score", "Affected Objects"})
	for _, risk := range result.Risks {
		t.AppendRow(table.Row{
			Truncate(risk.ChangeDescription, 50),
			styles.Severity(risk.RiskLevel).Render(risk.RiskLevel),
			fmt.Sprintf("%.2f", risk.RiskScore),
			affectedCell(risk.AffectedObjects),
		})
	}
	t.Render()
	r.Println("")
}

func renderDiffBreaking(r *Renderer, result *diff.Result) {
	breaking := collectBreaking(result)
	if len(breaking) == 0 {
		return
	}
	styles := r.Styles()
	r.Println(styles.Critical.Render("Breaking Changes Detected"))
	for _, bc := range breaking {
		r.Printf("  %s %s\n", styles.Error.Render("•"), bc)
	}
	r.Println("")
}

func renderDiffMigrationInfo(r *Renderer, result *diff.Result) {
	styles := r.Styles()
	r.Println(styles.Header2.Render("Migration Summary"))
	r.Printf("  Estimated statements: %s\n", migrationDetail(result))
	r.Printf("  Total changes: %d\n", result.TotalChanges())
	r.Println("")
}

func renderDiffRecommendations(r *Renderer, result *diff.Result) {
	recs := collectRecommendations(result)
	if len(recs) == 0 {
		return
	}
	styles := r.Styles()
	r.Println(styles.Header2.Render("Recommendations"))
	for _, rec := range recs {
		r.Printf("  %s %s\n", styles.Warning.Render("•"), rec)
	}
	r.Println("")
}

func renderDiffMarkdown(r *Renderer, result *diff.Result) {
	r.Println("# sqlforensic — Schema Diff Report")
	r.Println("")
	r.Printf("- **Source**: %s (%s)\n", result.SourceDatabase, result.SourceServer)
	r.Printf("- **Target**: %s (%s)\n", result.TargetDatabase, result.TargetServer)
	r.Printf("- **Provider**: %s\n", result.Provider)
	r.Printf("- **Overall Risk**: %s\n", result.RiskLevel)
	r.Printf("- **Total Changes**: %d\n", result.TotalChanges())
	r.Println("")

	if !result.HasChanges() {
		r.Println("No schema differences detected.")
		return
	}

	r.Println("## Change Summary")
	r.Println("")
	r.Println("| Object Type | Added | Removed | Modified |")
	r.Println("| --- | ---: | ---: | ---: |")
	for _, row := range result.Summary() {
		r.Printf("| %s | %d | %d | %d |\n",
			row.Category, row.Counts.Added, row.Counts.Removed, row.Counts.Modified)
	}
	r.Println("")

	if len(result.Risks) > 0 {
		r.Println("## Risk Assessment")
		r.Println("")
		r.Println("| Change | Risk Level | Score | Affected Objects |")
		r.Println("| --- | --- | ---: | --- |")
		for _, risk := range result.Risks {
			r.Printf("| %s | %s | %.2f | %s |\n",
				risk.ChangeDescription, risk.RiskLevel, risk.RiskScore,
				affectedCell(risk.AffectedObjects))
		}
		r.Println("")
	}

	if breaking := collectBreaking(result); len(breaking) > 0 {
		r.Println("## Breaking Changes")
		r.Println("")
		for _, bc := range breaking {
			r.Printf("- %s\n", bc)
		}
		r.Println("")
	}

	r.Println("## Migration Summary")
	r.Println("")
	r.Printf("Estimated statements: %s\n", migrationDetail(result))
	r.Println("")

	if recs := collectRecommendations(result); len(recs) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for _, rec := range recs {
			r.Printf("- %s\n", rec)
		}
		r.Println("")
	}
}

func dashIfZero(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func affectedCell(objects []string) string {
	if len(objects) == 0 {
		return "-"
	}
	shown := objects
	if len(shown) > maxAffectedShown {
		shown = shown[:maxAffectedShown]
	}
	cell := strings.Join(shown, ", ")
	if extra := len(objects) - maxAffectedShown; extra > 0 {
		cell += fmt.Sprintf(" (+%d more)", extra)
	}
	return cell
}

// migrationDetail summarizes the statement mix a migration would contain.
func migrationDetail(result *diff.Result) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(len(result.Tables.Added), "CREATE TABLE")
	add(len(result.Tables.Removed), "DROP TABLE")
	add(len(result.Tables.Modified), "ALTER TABLE")
	add(len(result.Indexes.Added), "CREATE INDEX")
	add(len(result.Indexes.Removed), "DROP INDEX")
	add(len(result.Procedures.Added)+len(result.Procedures.Removed)+len(result.Procedures.Modified),
		"procedure changes")
	add(len(result.ForeignKeysAdded)+len(result.ForeignKeysRemoved), "FK changes")
	if len(parts) == 0 {
		return "No migration statements"
	}
	return strings.Join(parts, ", ")
}

// collectBreaking gathers breaking-change notes from every assessment.
func collectBreaking(result *diff.Result) []string {
	var breaking []string
	for _, risk := range result.Risks {
		breaking = append(breaking, risk.BreakingChanges...)
	}
	return breaking
}

// collectRecommendations gathers deduplicated recommendations in order.
func collectRecommendations(result *diff.Result) []string {
	var recs []string
	seen := make(map[string]struct{})
	for _, risk := range result.Risks {
		for _, rec := range risk.Recommendations {
			if _, ok := seen[rec]; ok {
				continue
			}
			seen[rec] = struct{}{}
			recs = append(recs, rec)
		}
	}
	return recs
}
