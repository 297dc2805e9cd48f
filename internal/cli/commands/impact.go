package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

// NewImpactCommand creates the impact command.
func NewImpactCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "impact <table>",
		Short: "Analyze the impact of modifying a table",
		Long: `List every stored procedure, view, and table directly affected by a
change to the given table, with an overall risk tier.`,
		Example: `  # What breaks if orders changes?
  sqlforensic impact orders -p postgres -d shop -u app

  # JSON for scripting
  sqlforensic impact orders -p duckdb --path shop.db -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpact(cmd, args[0])
		},
	}
}

func runImpact(cmd *cobra.Command, tableName string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	result, err := cmdCtx.Forensic.Impact(cmd.Context(), tableName)
	if err != nil {
		return fmt.Errorf("impact analysis failed: %w", err)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case report.ModeJSON:
		return r.JSON(result)
	case report.ModeMarkdown:
		impactMarkdown(r, result)
	default:
		impactText(r, result)
	}
	return nil
}

func impactText(r *report.Renderer, result *depgraph.ImpactResult) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Impact Analysis: %s", result.TableName)))
	r.Printf("Risk Level: %s\n", styles.Severity(result.RiskLevel).Render(result.RiskLevel))
	r.Printf("Total affected objects: %d\n", result.TotalAffected)
	r.Println("")

	if len(result.AffectedProcedures) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle("Affected Stored Procedures")
		t.AppendHeader(table.Row{"SP Name", "Risk"})
		for _, sp := range result.AffectedProcedures {
			t.AppendRow(table.Row{sp.Name, sp.RiskLevel})
		}
		t.Render()
		r.Println("")
	}

	if len(result.AffectedViews) > 0 {
		r.Printf("%s %s\n", styles.Bold.Render("Affected Views:"),
			strings.Join(result.AffectedViews, ", "))
	}
	if len(result.AffectedTables) > 0 {
		r.Printf("%s %s\n", styles.Bold.Render("Affected Tables:"),
			strings.Join(result.AffectedTables, ", "))
	}
}

func impactMarkdown(r *report.Renderer, result *depgraph.ImpactResult) {
	r.Printf("# Impact Analysis: %s\n", result.TableName)
	r.Println("")
	r.Printf("- **Risk Level**: %s\n", result.RiskLevel)
	r.Printf("- **Total Affected**: %d\n", result.TotalAffected)
	r.Println("")

	if len(result.AffectedProcedures) > 0 {
		r.Println("## Affected Stored Procedures")
		r.Println("")
		r.Println("| SP Name | Risk |")
		r.Println("| --- | --- |")
		for _, sp := range result.AffectedProcedures {
			r.Printf("| %s | %s |\n", sp.Name, sp.RiskLevel)
		}
		r.Println("")
	}
	if len(result.AffectedViews) > 0 {
		r.Printf("**Affected Views**: %s\n", strings.Join(result.AffectedViews, ", "))
	}
	if len(result.AffectedTables) > 0 {
		r.Printf("**Affected Tables**: %s\n", strings.Join(result.AffectedTables, ", "))
	}
}
