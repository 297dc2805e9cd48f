package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlforensic/internal/forensic"
)

// maxHotspotRows caps the hotspot table in terminal output.
const maxHotspotRows = 10

// RenderAnalysis writes the analysis report in the renderer's effective
// mode.
func RenderAnalysis(r *Renderer, rep *forensic.Report) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(analysisDocument(rep))
	case ModeMarkdown:
		renderAnalysisMarkdown(r, rep)
		return nil
	default:
		renderAnalysisText(r, rep)
		return nil
	}
}

func renderAnalysisText(r *Renderer, rep *forensic.Report) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("sqlforensic Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("Database: %s\n", rep.Database)
	r.Printf("Provider: %s\n", rep.Provider)
	r.Printf("Scanned:  %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	r.Println("")

	scoreStyle := styles.Success
	if rep.HealthScore < 60 {
		scoreStyle = styles.Warning
	}
	if rep.HealthScore < 40 {
		scoreStyle = styles.Error
	}
	r.Println(styles.Header2.Render("Database Health"))
	r.Printf("  Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", rep.HealthScore)))
	r.Printf("  %s\n", HealthBar(rep.HealthScore))
	r.Println("")

	renderOverviewTable(r, rep)
	renderIssuesTable(r, rep)
	renderHotspotsTable(r, rep)
}

func renderOverviewTable(r *Renderer, rep *forensic.Report) {
	if rep.Schema == nil {
		return
	}
	o := rep.Schema.Overview

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Schema Overview")
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Tables", o.Tables},
		{"Views", o.Views},
		{"Stored Procedures", o.StoredProcedures},
		{"Functions", o.Functions},
		{"Indexes", o.Indexes},
		{"Foreign Keys", o.ForeignKeys},
		{"Total Columns", o.TotalColumns},
		{"Total Rows", FormatRowCount(o.TotalRows)},
	})
	t.Render()
	r.Println("")
}

func renderIssuesTable(r *Renderer, rep *forensic.Report) {
	if len(rep.Issues) == 0 {
		return
	}
	styles := r.Styles()

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Issues Found")
	t.AppendHeader(table.Row{"Issue", "Severity", "Count"})
	for _, issue := range rep.Issues {
		t.AppendRow(table.Row{
			issue.Description,
			styles.Severity(issue.Severity).Render(issue.Severity),
			issue.Count,
		})
	}
	t.Render()
	r.Println("")
}

func renderHotspotsTable(r *Renderer, rep *forensic.Report) {
	if rep.Dependencies == nil || len(rep.Dependencies.Hotspots) == 0 {
		return
	}
	styles := r.Styles()

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Top Dependency Hotspots")
	t.AppendHeader(table.Row{"Table", "Dependent SPs", "Risk Level"})
	for i, hs := range rep.Dependencies.Hotspots {
		if i >= maxHotspotRows {
			break
		}
		t.AppendRow(table.Row{
			hs.Table,
			hs.DependentSPCount,
			styles.Severity(hs.RiskLevel).Render(hs.RiskLevel),
		})
	}
	t.Render()
	r.Println("")
}

func renderAnalysisMarkdown(r *Renderer, rep *forensic.Report) {
	r.Println("# sqlforensic Report")
	r.Println("")
	r.Printf("- **Database**: %s\n", rep.Database)
	r.Printf("- **Provider**: %s\n", rep.Provider)
	r.Printf("- **Scanned**: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100** (%s)\n", rep.HealthScore, HealthLabel(rep.HealthScore))
	r.Println("")

	if rep.Schema != nil {
		o := rep.Schema.Overview
		r.Println("## Schema Overview")
		r.Println("")
		r.Println("| Metric | Count |")
		r.Println("| --- | ---: |")
		r.Printf("| Tables | %d |\n", o.Tables)
		r.Printf("| Views | %d |\n", o.Views)
		r.Printf("| Stored Procedures | %d |\n", o.StoredProcedures)
		r.Printf("| Functions | %d |\n", o.Functions)
		r.Printf("| Indexes | %d |\n", o.Indexes)
		r.Printf("| Foreign Keys | %d |\n", o.ForeignKeys)
		r.Printf("| Total Columns | %d |\n", o.TotalColumns)
		r.Printf("| Total Rows | %s |\n", FormatRowCount(o.TotalRows))
		r.Println("")
	}

	if len(rep.Issues) > 0 {
		r.Println("## Issues Found")
		r.Println("")
		r.Println("| Issue | Severity | Count |")
		r.Println("| --- | --- | ---: |")
		for _, issue := range rep.Issues {
			r.Printf("| %s | %s | %d |\n", issue.Description, issue.Severity, issue.Count)
		}
		r.Println("")
	}

	if rep.Dependencies != nil && len(rep.Dependencies.Hotspots) > 0 {
		r.Println("## Top Dependency Hotspots")
		r.Println("")
		r.Println("| Table | Dependent SPs | Risk Level |")
		r.Println("| --- | ---: | --- |")
		for i, hs := range rep.Dependencies.Hotspots {
			if i >= maxHotspotRows {
				break
			}
			r.Printf("| %s | %d | %s |\n", hs.Table, hs.DependentSPCount, hs.RiskLevel)
		}
		r.Println("")
	}
}
