package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/diff"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	var (
		schemaOnly    bool
		includeData   bool
		migrationPath string
		unsafe        bool
		htmlPath      string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two database schemas",
		Long: `Diff the source database (connection flags / config "connection"
section) against the target database (--target-* flags / config "target"
section), assess the risk of each change, and optionally generate a
migration script that would bring the target in line with the source.

Destructive statements in the migration are commented out unless
--unsafe is given.`,
		Example: `  # Diff staging against production
  sqlforensic diff -p postgres -d shop_v2 -u app \
      --target-provider postgres --target-database shop --target-username app

  # Diff two DuckDB files and write a migration script
  sqlforensic diff -p duckdb --path new.db \
      --target-provider duckdb --target-path current.db \
      --migration upgrade.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd, diff.Options{SchemaOnly: schemaOnly, IncludeData: includeData},
				migrationPath, unsafe, htmlPath)
		},
	}

	flags := cmd.Flags()
	flags.String("target-provider", "", "Target database provider (postgres|duckdb)")
	flags.String("target-host", "", "Target server hostname")
	flags.Int("target-port", 0, "Target server port")
	flags.String("target-database", "", "Target database name")
	flags.String("target-username", "", "Target login username")
	flags.String("target-password", "", "Target login password")
	flags.String("target-path", "", "Target database file path (DuckDB)")
	flags.String("target-sslmode", "", "Target SSL mode")

	flags.BoolVar(&schemaOnly, "schema-only", false, "Skip procedure/view/function body comparison")
	flags.BoolVar(&includeData, "include-data", false, "Compare row counts for tables on both sides")
	flags.StringVar(&migrationPath, "migration", "", "Write a migration script to this file")
	flags.BoolVar(&unsafe, "unsafe", false, "Emit destructive migration statements uncommented")
	flags.StringVar(&htmlPath, "html", "", "Write an HTML diff report to this file")

	return cmd
}

func runDiff(cmd *cobra.Command, opts diff.Options, migrationPath string, unsafe bool, htmlPath string) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())
	r := GetRenderer(cmd.Context())

	if cfg.Target == nil {
		return errors.New("diff needs a target database (--target-* flags or a \"target\" config section)")
	}
	if err := cfg.Connection.Validate(); err != nil {
		return fmt.Errorf("source connection: %w", err)
	}
	if err := cfg.Target.Validate(); err != nil {
		return fmt.Errorf("target connection: %w", err)
	}

	analyzer := diff.NewAnalyzer(cfg.Connection.Connector(), cfg.Target.Connector(), opts, logger)
	result, err := analyzer.Analyze(cmd.Context())
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	if err := report.RenderDiff(r, result); err != nil {
		return err
	}

	if migrationPath != "" {
		script := diff.NewGenerator(result, !unsafe, logger).Generate()
		if err := os.WriteFile(migrationPath, []byte(script), 0o644); err != nil {
			return fmt.Errorf("write migration script: %w", err)
		}
		r.Errorf("Migration script saved to: %s\n", migrationPath)
	}

	if htmlPath != "" {
		if err := report.ExportHTML(htmlPath, func(w io.Writer) error {
			return report.WriteDiffHTML(w, result)
		}); err != nil {
			return err
		}
		r.Errorf("HTML diff report saved to: %s\n", htmlPath)
	}

	return nil
}
