package depgraph

import (
	"reflect"
	"sort"
	"testing"
)

func tableGraph(names ...string) *Graph {
	g := NewGraph()
	for _, n := range names {
		g.AddNode(n, KindTable, "")
	}
	return g
}

func TestFindCycles_EmptyGraph(t *testing.T) {
	if cycles := FindCycles(NewGraph()); len(cycles) != 0 {
		t.Errorf("empty graph must have no cycles, got %v", cycles)
	}
}

func TestFindCycles_Acyclic(t *testing.T) {
	g := tableGraph("a", "b", "c")
	g.AddEdge("a", "b", EdgeForeignKey)
	g.AddEdge("b", "c", EdgeForeignKey)
	g.AddEdge("a", "c", EdgeForeignKey)

	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("acyclic graph must have no cycles, got %v", cycles)
	}
}

func TestFindCycles_SelfLoopFiltered(t *testing.T) {
	// Employees.ManagerId -> Employees.Id is a length-1 cycle and is dropped.
	g := tableGraph("Employees")
	g.AddEdge("Employees", "Employees", EdgeForeignKey)

	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("self-loop must be filtered, got %v", cycles)
	}
}

func TestFindCycles_TwoNodeCycle(t *testing.T) {
	g := tableGraph("a", "b")
	g.AddEdge("a", "b", EdgeForeignKey)
	g.AddEdge("b", "a", EdgeForeignKey)

	cycles := FindCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %v", cycles)
	}
	if !reflect.DeepEqual(cycles[0], []string{"a", "b"}) {
		t.Errorf("cycle = %v, want [a b]", cycles[0])
	}
}

func TestFindCycles_EachCycleOnce(t *testing.T) {
	// Two overlapping cycles: a->b->a and a->b->c->a.
	g := tableGraph("a", "b", "c")
	g.AddEdge("a", "b", EdgeForeignKey)
	g.AddEdge("b", "a", EdgeForeignKey)
	g.AddEdge("b", "c", EdgeForeignKey)
	g.AddEdge("c", "a", EdgeForeignKey)

	cycles := FindCycles(g)
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %v", cycles)
	}
	var lengths []int
	for _, c := range cycles {
		lengths = append(lengths, len(c))
	}
	sort.Ints(lengths)
	if !reflect.DeepEqual(lengths, []int{2, 3}) {
		t.Errorf("cycle lengths = %v, want [2 3]", lengths)
	}
}

func TestFindCycles_MinLengthTwo(t *testing.T) {
	g := tableGraph("a", "b", "c")
	g.AddEdge("a", "a", EdgeForeignKey)
	g.AddEdge("b", "c", EdgeForeignKey)
	g.AddEdge("c", "b", EdgeForeignKey)

	for _, c := range FindCycles(g) {
		if len(c) < 2 {
			t.Errorf("cycle shorter than 2 returned: %v", c)
		}
	}
}

func TestFindCycles_MixedEdgeKinds(t *testing.T) {
	// Cycle through different edge kinds still counts.
	g := NewGraph()
	g.AddNode("sp_A", KindProcedure, "")
	g.AddNode("T", KindTable, "")
	g.AddEdge("sp_A", "T", EdgeReferences)
	g.AddEdge("T", "sp_A", EdgeForeignKey)

	if cycles := FindCycles(g); len(cycles) != 1 {
		t.Errorf("expected one cycle across edge kinds, got %v", cycles)
	}
}
