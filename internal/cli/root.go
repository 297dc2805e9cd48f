// Package cli provides the command-line interface for sqlforensic.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/cli/commands"
	"github.com/leapstack-labs/sqlforensic/internal/config"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

var cfgFile string

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlforensic",
		Short: "sqlforensic - Database forensics and analysis toolkit",
		Long: `sqlforensic reverse-engineers undocumented databases in minutes.

It analyzes schema, discovers hidden relationships, detects dead code,
finds missing indexes, diffs schemas across environments, and generates
reports in text, markdown, JSON, and HTML.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// cmd.Flags() includes the invoked command's local flags, so
			// per-command flags like --target-path feed the loader too.
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, commands.NewLogger(cmd.ErrOrStderr(), cfg.Verbose))

			renderer := report.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Mode(cfg.Output))
			ctx = commands.WithRenderer(ctx, renderer)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if file := config.FileUsed(); file != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", file)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Database forensics toolkit built with Go
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlforensic.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Connection flags shared by every analysis command
	rootCmd.PersistentFlags().StringP("provider", "p", "", "Database provider (postgres|duckdb)")
	rootCmd.PersistentFlags().String("host", "", "Server hostname")
	rootCmd.PersistentFlags().Int("port", 0, "Server port")
	rootCmd.PersistentFlags().StringP("database", "d", "", "Database name")
	rootCmd.PersistentFlags().StringP("username", "u", "", "Login username")
	rootCmd.PersistentFlags().StringP("password", "P", "", "Login password")
	rootCmd.PersistentFlags().String("path", "", "Database file path (DuckDB; :memory: for in-memory)")
	rootCmd.PersistentFlags().String("sslmode", "", "SSL mode (disable|require|verify-full)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("provider", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewImpactCommand())
	rootCmd.AddCommand(commands.NewDeadCodeCommand())
	rootCmd.AddCommand(commands.NewDepsCommand())
	rootCmd.AddCommand(commands.NewDiffCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
