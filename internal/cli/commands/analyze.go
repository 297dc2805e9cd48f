package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/report"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var (
		htmlPath string
		jsonPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a full database scan and analysis",
		Long: `Run every analyzer against the configured database: schema, hidden
relationships, stored procedure complexity, indexes, dead code, the
dependency graph, sizes, security findings, and the overall health score.

Output adapts to environment:
  - Terminal: styled text with tables
  - Piped/Scripted: markdown (agent-friendly)`,
		Example: `  # Analyze a PostgreSQL database
  sqlforensic analyze -p postgres -d shop -u app -P secret

  # Analyze a DuckDB file and save an interactive HTML report
  sqlforensic analyze -p duckdb --path shop.db --html report.html

  # Machine-readable output
  sqlforensic analyze -p duckdb --path shop.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, htmlPath, jsonPath)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an interactive HTML report to this file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the full JSON report to this file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, htmlPath, jsonPath string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	rep, err := cmdCtx.Forensic.Analyze(cmd.Context())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := report.RenderAnalysis(cmdCtx.Renderer, rep); err != nil {
		return err
	}

	if htmlPath != "" {
		if err := report.ExportHTML(htmlPath, func(w io.Writer) error {
			return report.WriteAnalysisHTML(w, rep)
		}); err != nil {
			return err
		}
		cmdCtx.Renderer.Errorf("HTML report saved to: %s\n", htmlPath)
	}

	if jsonPath != "" {
		if err := report.ExportAnalysisJSON(jsonPath, rep); err != nil {
			return err
		}
		cmdCtx.Renderer.Errorf("JSON report saved to: %s\n", jsonPath)
	}

	return nil
}
