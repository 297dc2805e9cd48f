package depgraph

import (
	"reflect"
	"testing"
)

func studentsFixture() ([]TableRecord, []RoutineRecord, []RoutineRecord, []ForeignKeyRecord) {
	tables := []TableRecord{
		{Schema: "public", Name: "Students"},
		{Schema: "public", Name: "Enrollments"},
	}
	procs := []RoutineRecord{
		{Schema: "public", Name: "sp_X", Body: "SELECT * FROM Students WHERE Id = 1"},
	}
	fks := []ForeignKeyRecord{
		{ParentTable: "Enrollments", ReferencedTable: "Students"},
	}
	return tables, procs, nil, fks
}

func hasEdge(g *Graph, source, target string, kind EdgeKind) bool {
	for _, e := range g.Edges() {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuild_RoundTrip(t *testing.T) {
	tables, procs, views, fks := studentsFixture()
	g := Build(tables, procs, views, fks)

	if !hasEdge(g, "Enrollments", "Students", EdgeForeignKey) {
		t.Error("missing foreign_key edge Enrollments -> Students")
	}
	if !hasEdge(g, "sp_X", "Students", EdgeReferences) {
		t.Error("missing references edge sp_X -> Students")
	}

	hotspots := Hotspots(g, tables)
	if len(hotspots) != 1 {
		t.Fatalf("expected one hotspot, got %d", len(hotspots))
	}
	if hotspots[0].Table != "Students" || hotspots[0].DependentSPCount != 1 || hotspots[0].RiskLevel != RiskLow {
		t.Errorf("unexpected hotspot: %+v", hotspots[0])
	}

	impact := Impact(g, "Students")
	if len(impact.AffectedProcedures) != 1 || impact.AffectedProcedures[0].Name != "sp_X" {
		t.Errorf("expected sp_X in affected procedures, got %+v", impact.AffectedProcedures)
	}
	if !reflect.DeepEqual(impact.AffectedTables, []string{"Enrollments"}) {
		t.Errorf("expected Enrollments in affected tables, got %v", impact.AffectedTables)
	}
	if impact.TotalAffected != 2 || impact.RiskLevel != RiskLow {
		t.Errorf("expected total=2 risk=LOW, got total=%d risk=%s", impact.TotalAffected, impact.RiskLevel)
	}
}

func TestBuild_ViewReferences(t *testing.T) {
	tables := []TableRecord{{Schema: "public", Name: "Orders"}}
	views := []RoutineRecord{
		{Schema: "public", Name: "vw_OpenOrders", Body: "SELECT * FROM Orders WHERE Status = 'open'"},
	}
	g := Build(tables, nil, views, nil)

	if g.Kind("vw_OpenOrders") != KindView {
		t.Errorf("expected view kind, got %s", g.Kind("vw_OpenOrders"))
	}
	if !hasEdge(g, "vw_OpenOrders", "Orders", EdgeReferences) {
		t.Error("missing references edge vw_OpenOrders -> Orders")
	}
}

func TestBuild_ProcedureCalls(t *testing.T) {
	procs := []RoutineRecord{
		{Name: "sp_Outer", Body: "EXEC sp_Inner @id = 1"},
		{Name: "sp_Inner", Body: "SELECT 1"},
	}
	g := Build(nil, procs, nil, nil)

	if !hasEdge(g, "sp_Outer", "sp_Inner", EdgeCalls) {
		t.Error("missing calls edge sp_Outer -> sp_Inner")
	}
	if hasEdge(g, "sp_Inner", "sp_Outer", EdgeCalls) {
		t.Error("unexpected reverse calls edge")
	}
}

func TestBuild_EmptyBodiesNeverPanic(t *testing.T) {
	tables := []TableRecord{{Name: "T"}}
	procs := []RoutineRecord{{Name: "sp_Empty"}}
	views := []RoutineRecord{{Name: "vw_Empty"}}

	g := Build(tables, procs, views, nil)
	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected no edges from empty bodies, got %d", g.EdgeCount())
	}
}

func TestBuild_DanglingForeignKey(t *testing.T) {
	tables := []TableRecord{{Name: "Orders"}}
	fks := []ForeignKeyRecord{{ParentTable: "Orders", ReferencedTable: "LegacyCustomers"}}

	g := Build(tables, nil, nil, fks)
	if !g.HasNode("LegacyCustomers") {
		t.Fatal("FK to unregistered table must create a node")
	}
	if g.Kind("LegacyCustomers") != KindUnknown {
		t.Errorf("dangling FK target kind = %s, want unknown", g.Kind("LegacyCustomers"))
	}
	if !hasEdge(g, "Orders", "LegacyCustomers", EdgeForeignKey) {
		t.Error("missing FK edge to dangling target")
	}
}

func TestBuild_SkipsEmptyFKNames(t *testing.T) {
	fks := []ForeignKeyRecord{{ParentTable: "", ReferencedTable: "Students"}}
	g := Build(nil, nil, nil, fks)
	if g.EdgeCount() != 0 {
		t.Errorf("FK with empty endpoint must be skipped, got %d edges", g.EdgeCount())
	}
}
