package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
	"github.com/leapstack-labs/sqlforensic/internal/forensic"
	"github.com/leapstack-labs/sqlforensic/internal/report"
)

const maxCriticalityRows = 15

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the object dependency graph",
		Long: `Build the dependency graph over tables, stored procedures, and views,
then report circular dependencies, criticality ranking, clusters, and
table hotspots.`,
		Example: `  # Summarize the dependency graph
  sqlforensic deps -p postgres -d shop -u app

  # Save the interactive graph viewer
  sqlforensic deps -p duckdb --path shop.db --html graph.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeps(cmd, htmlPath)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an interactive dependency graph to this file")

	return cmd
}

func runDeps(cmd *cobra.Command, htmlPath string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	deps, err := cmdCtx.Forensic.Dependencies(cmd.Context())
	if err != nil {
		return fmt.Errorf("dependency analysis failed: %w", err)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case report.ModeJSON:
		if err := r.JSON(deps); err != nil {
			return err
		}
	case report.ModeMarkdown:
		depsMarkdown(r, deps)
	default:
		depsText(r, deps)
	}

	if htmlPath != "" {
		rep := &forensic.Report{
			Database:     cmdCtx.Cfg.Connection.Database,
			Provider:     cmdCtx.Cfg.Connection.Provider,
			Dependencies: deps,
		}
		if err := report.ExportHTML(htmlPath, func(w io.Writer) error {
			return report.WriteGraphHTML(w, rep)
		}); err != nil {
			return err
		}
		r.Errorf("Dependency graph saved to: %s\n", htmlPath)
	}

	return nil
}

func depsText(r *report.Renderer, deps *depgraph.Result) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Dependency Graph"))
	r.Printf("Nodes: %d   Edges: %d   Clusters: %d\n",
		len(deps.Nodes), len(deps.Edges), len(deps.Clusters))
	r.Println("")

	if len(deps.Cycles) > 0 {
		r.Println(styles.Error.Render(fmt.Sprintf("Circular Dependencies (%d)", len(deps.Cycles))))
		for _, cycle := range deps.Cycles {
			r.Printf("  %s\n", joinCycle(cycle))
		}
		r.Println("")
	}

	if len(deps.Criticality) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle("Most Critical Objects")
		t.AppendHeader(table.Row{"Object", "Score", "In", "Out"})
		for i, entry := range deps.Criticality {
			if i >= maxCriticalityRows {
				break
			}
			t.AppendRow(table.Row{entry.Name, entry.Score, entry.InDegree, entry.OutDegree})
		}
		t.Render()
		r.Println("")
	}

	if len(deps.Hotspots) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.SetTitle("Table Hotspots")
		t.AppendHeader(table.Row{"Table", "Dependent SPs", "Risk"})
		for _, hs := range deps.Hotspots {
			t.AppendRow(table.Row{hs.Table, hs.DependentSPCount, hs.RiskLevel})
		}
		t.Render()
		r.Println("")
	}
}

func depsMarkdown(r *report.Renderer, deps *depgraph.Result) {
	r.Println("# Dependency Graph")
	r.Println("")
	r.Printf("- **Nodes**: %d\n", len(deps.Nodes))
	r.Printf("- **Edges**: %d\n", len(deps.Edges))
	r.Printf("- **Clusters**: %d\n", len(deps.Clusters))
	r.Println("")

	if len(deps.Cycles) > 0 {
		r.Printf("## Circular Dependencies (%d)\n", len(deps.Cycles))
		r.Println("")
		for _, cycle := range deps.Cycles {
			r.Printf("- %s\n", joinCycle(cycle))
		}
		r.Println("")
	}

	if len(deps.Criticality) > 0 {
		r.Println("## Most Critical Objects")
		r.Println("")
		r.Println("| Object | Score | In | Out |")
		r.Println("| --- | ---: | ---: | ---: |")
		for i, entry := range deps.Criticality {
			if i >= maxCriticalityRows {
				break
			}
			r.Printf("| %s | %d | %d | %d |\n", entry.Name, entry.Score, entry.InDegree, entry.OutDegree)
		}
		r.Println("")
	}

	if len(deps.Hotspots) > 0 {
		r.Println("## Table Hotspots")
		r.Println("")
		r.Println("| Table | Dependent SPs | Risk |")
		r.Println("| --- | ---: | --- |")
		for _, hs := range deps.Hotspots {
			r.Printf("| %s | %d | %s |\n", hs.Table, hs.DependentSPCount, hs.RiskLevel)
		}
		r.Println("")
	}
}

// joinCycle renders a cycle as a -> b -> a.
func joinCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	out := cycle[0]
	for _, name := range cycle[1:] {
		out += " -> " + name
	}
	return out + " -> " + cycle[0]
}
