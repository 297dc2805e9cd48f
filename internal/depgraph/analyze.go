package depgraph

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// NodeInfo is the per-node slice of an analysis result.
type NodeInfo struct {
	ID        string   `json:"id"`
	Kind      NodeKind `json:"type"`
	InDegree  int      `json:"in_degree"`
	OutDegree int      `json:"out_degree"`
}

// Result holds everything one analysis pass derives from the graph. It is
// recomputed in full on every call and never cached.
type Result struct {
	Nodes       []NodeInfo         `json:"nodes"`
	Edges       []Edge             `json:"edges"`
	Cycles      [][]string         `json:"cycles"`
	Criticality []CriticalityEntry `json:"criticality"`
	Clusters    [][]string         `json:"clusters"`
	Hotspots    []Hotspot          `json:"hotspots"`
}

// Analyzer runs the full dependency analysis pipeline.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil logger discards log output.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{logger: logger}
}

// Analyze builds the dependency graph and derives cycles, criticality,
// clusters, and hotspots from it. The four derivations only read the built
// graph, so they run concurrently. The returned graph is the snapshot later
// Impact calls should be made against.
func (a *Analyzer) Analyze(
	ctx context.Context,
	tables []TableRecord,
	procs, views []RoutineRecord,
	fks []ForeignKeyRecord,
) (*Graph, *Result, error) {
	a.logger.Info("starting dependency analysis",
		slog.Int("tables", len(tables)),
		slog.Int("procedures", len(procs)),
		slog.Int("views", len(views)),
		slog.Int("foreign_keys", len(fks)))

	g := Build(tables, procs, views, fks)

	result := &Result{
		Nodes: make([]NodeInfo, 0, g.NodeCount()),
		Edges: g.Edges(),
	}
	for _, name := range g.Nodes() {
		result.Nodes = append(result.Nodes, NodeInfo{
			ID:        name,
			Kind:      g.Kind(name),
			InDegree:  g.InDegree(name),
			OutDegree: g.OutDegree(name),
		})
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		result.Cycles = FindCycles(g)
		return nil
	})
	eg.Go(func() error {
		result.Criticality = Rank(g)
		return nil
	})
	eg.Go(func() error {
		result.Clusters = Clusters(g)
		return nil
	})
	eg.Go(func() error {
		result.Hotspots = Hotspots(g, tables)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	a.logger.Info("dependency analysis complete",
		slog.Int("nodes", len(result.Nodes)),
		slog.Int("edges", len(result.Edges)),
		slog.Int("cycles", len(result.Cycles)))

	return g, result, nil
}
