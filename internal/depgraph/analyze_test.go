package depgraph

import (
	"context"
	"testing"

	"github.com/leapstack-labs/sqlforensic/internal/testutil"
)

func TestAnalyzer_Analyze(t *testing.T) {
	tables, procs, views, fks := studentsFixture()

	a := NewAnalyzer(testutil.NewTestLogger(t))
	g, result, err := a.Analyze(context.Background(), tables, procs, views, fks)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(result.Nodes) != g.NodeCount() {
		t.Errorf("result has %d nodes, graph has %d", len(result.Nodes), g.NodeCount())
	}
	if len(result.Edges) != g.EdgeCount() {
		t.Errorf("result has %d edges, graph has %d", len(result.Edges), g.EdgeCount())
	}
	if len(result.Cycles) != 0 {
		t.Errorf("unexpected cycles: %v", result.Cycles)
	}
	if len(result.Criticality) != g.NodeCount() {
		t.Errorf("criticality entries = %d, want %d", len(result.Criticality), g.NodeCount())
	}
	if len(result.Hotspots) != 1 {
		t.Errorf("hotspots = %v", result.Hotspots)
	}

	// The returned graph is the snapshot for later impact queries.
	impact := Impact(g, "Students")
	if impact.TotalAffected != 2 {
		t.Errorf("impact total = %d, want 2", impact.TotalAffected)
	}
}

func TestAnalyzer_NilLogger(t *testing.T) {
	a := NewAnalyzer(nil)
	if _, _, err := a.Analyze(context.Background(), nil, nil, nil, nil); err != nil {
		t.Fatalf("Analyze on empty input: %v", err)
	}
}

func TestAnalyzer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(nil)
	if _, _, err := a.Analyze(ctx, nil, nil, nil, nil); err == nil {
		t.Error("expected error from canceled context")
	}
}
