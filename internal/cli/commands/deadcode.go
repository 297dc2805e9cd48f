package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

// NewDeadCodeCommand creates the deadcode command.
func NewDeadCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deadcode",
		Short: "Detect unused tables, procedures, and orphan columns",
		Long: `Cross-reference every table, stored procedure, view, and relationship
to find objects nothing points at: unreferenced tables, procedures no
other procedure calls, orphan columns, and empty tables.`,
		Example: `  sqlforensic deadcode -p postgres -d shop -u app
  sqlforensic deadcode -p duckdb --path shop.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeadCode(cmd)
		},
	}
}

func runDeadCode(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	result, err := cmdCtx.Forensic.DeadCode(cmd.Context())
	if err != nil {
		return fmt.Errorf("dead code analysis failed: %w", err)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case report.ModeJSON:
		return r.JSON(result)
	case report.ModeMarkdown:
		deadCodeMarkdown(r, result)
	default:
		deadCodeText(r, result)
	}
	return nil
}

func deadCodeText(r *report.Renderer, result *analyzer.DeadCodeResult) {
	styles := r.Styles()
	r.Println("")

	if len(result.DeadTables) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("Unreferenced Tables (%d)", len(result.DeadTables)))
		t.AppendHeader(table.Row{"Schema", "Table", "Rows"})
		for _, dt := range result.DeadTables {
			t.AppendRow(table.Row{dt.Schema, dt.Name, report.FormatRowCount(dt.RowCount)})
		}
		t.Render()
		r.Println("")
	}

	if len(result.DeadProcedures) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("Unused Stored Procedures (%d)", len(result.DeadProcedures)))
		t.AppendHeader(table.Row{"Schema", "Procedure"})
		for _, sp := range result.DeadProcedures {
			t.AppendRow(table.Row{sp.Schema, sp.Name})
		}
		t.Render()
		r.Println("")
	}

	if n := len(result.OrphanColumns); n > 0 {
		r.Printf("%s %d columns not referenced in any procedure or view\n",
			styles.Bold.Render("Orphan Columns:"), n)
	}

	if len(result.EmptyTables) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("Empty Tables (%d)", len(result.EmptyTables)))
		t.AppendHeader(table.Row{"Schema", "Table"})
		for _, et := range result.EmptyTables {
			t.AppendRow(table.Row{et.Schema, et.Name})
		}
		t.Render()
		r.Println("")
	}

	if len(result.DeadTables)+len(result.DeadProcedures)+
		len(result.OrphanColumns)+len(result.EmptyTables) == 0 {
		r.Println(styles.Success.Render("No dead code detected."))
	}
}

func deadCodeMarkdown(r *report.Renderer, result *analyzer.DeadCodeResult) {
	r.Println("# Dead Code Report")
	r.Println("")

	if len(result.DeadTables) > 0 {
		r.Printf("## Unreferenced Tables (%d)\n", len(result.DeadTables))
		r.Println("")
		r.Println("| Schema | Table | Rows |")
		r.Println("| --- | --- | ---: |")
		for _, dt := range result.DeadTables {
			r.Printf("| %s | %s | %s |\n", dt.Schema, dt.Name, report.FormatRowCount(dt.RowCount))
		}
		r.Println("")
	}

	if len(result.DeadProcedures) > 0 {
		r.Printf("## Unused Stored Procedures (%d)\n", len(result.DeadProcedures))
		r.Println("")
		for _, sp := range result.DeadProcedures {
			r.Printf("- %s.%s\n", sp.Schema, sp.Name)
		}
		r.Println("")
	}

	if len(result.OrphanColumns) > 0 {
		r.Printf("**Orphan Columns**: %d columns not referenced in any procedure or view\n",
			len(result.OrphanColumns))
		r.Println("")
	}

	if len(result.EmptyTables) > 0 {
		r.Printf("## Empty Tables (%d)\n", len(result.EmptyTables))
		r.Println("")
		for _, et := range result.EmptyTables {
			r.Printf("- %s.%s\n", et.Schema, et.Name)
		}
		r.Println("")
	}

	if len(result.DeadTables)+len(result.DeadProcedures)+
		len(result.OrphanColumns)+len(result.EmptyTables) == 0 {
		r.Println("No dead code detected.")
	}
}
