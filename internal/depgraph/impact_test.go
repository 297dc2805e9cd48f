package depgraph

import (
	"reflect"
	"testing"
)

func TestImpact_UnknownTable(t *testing.T) {
	g := tableGraph("Known")

	result := Impact(g, "NoSuchTable")
	if result.TableName != "NoSuchTable" {
		t.Errorf("table name = %q", result.TableName)
	}
	if result.TotalAffected != 0 {
		t.Errorf("total affected = %d, want 0", result.TotalAffected)
	}
	if result.RiskLevel != RiskLow {
		t.Errorf("risk = %s, want LOW floor", result.RiskLevel)
	}
	if len(result.AffectedProcedures)+len(result.AffectedViews)+len(result.AffectedTables) != 0 {
		t.Errorf("expected empty lists, got %+v", result)
	}
}

func TestImpact_ClassifiesPredecessors(t *testing.T) {
	tables := []TableRecord{{Name: "Core"}, {Name: "Child"}}
	procs := []RoutineRecord{{Name: "sp_Read", Body: "SELECT * FROM Core"}}
	views := []RoutineRecord{{Name: "vw_Core", Body: "SELECT Id FROM Core"}}
	fks := []ForeignKeyRecord{{ParentTable: "Child", ReferencedTable: "Core"}}
	g := Build(tables, procs, views, fks)

	result := Impact(g, "Core")
	if len(result.AffectedProcedures) != 1 || result.AffectedProcedures[0].Name != "sp_Read" {
		t.Errorf("affected procedures = %+v", result.AffectedProcedures)
	}
	if result.AffectedProcedures[0].RiskLevel != RiskHigh {
		t.Errorf("procedure tag = %s, want flat HIGH", result.AffectedProcedures[0].RiskLevel)
	}
	if !reflect.DeepEqual(result.AffectedViews, []string{"vw_Core"}) {
		t.Errorf("affected views = %v", result.AffectedViews)
	}
	if !reflect.DeepEqual(result.AffectedTables, []string{"Child"}) {
		t.Errorf("affected tables = %v", result.AffectedTables)
	}
	if result.TotalAffected != 3 {
		t.Errorf("total = %d, want 3", result.TotalAffected)
	}
}

func TestImpact_MergesOutgoingFKTables(t *testing.T) {
	// Orders depends on Customers via FK; Customers must appear in
	// Orders' affected tables even though nothing depends on Orders.
	tables := []TableRecord{{Name: "Orders"}, {Name: "Customers"}}
	fks := []ForeignKeyRecord{{ParentTable: "Orders", ReferencedTable: "Customers"}}
	g := Build(tables, nil, nil, fks)

	result := Impact(g, "Orders")
	if !reflect.DeepEqual(result.AffectedTables, []string{"Customers"}) {
		t.Errorf("affected tables = %v, want [Customers]", result.AffectedTables)
	}
}

func TestImpact_NoDuplicateTables(t *testing.T) {
	// Mutual FKs: the successor is already a predecessor, so it is not
	// appended twice.
	tables := []TableRecord{{Name: "A"}, {Name: "B"}}
	fks := []ForeignKeyRecord{
		{ParentTable: "A", ReferencedTable: "B"},
		{ParentTable: "B", ReferencedTable: "A"},
	}
	g := Build(tables, nil, nil, fks)

	result := Impact(g, "A")
	if !reflect.DeepEqual(result.AffectedTables, []string{"B"}) {
		t.Errorf("affected tables = %v, want [B] once", result.AffectedTables)
	}
}

func TestImpact_UnknownKindPredecessorIgnored(t *testing.T) {
	g := NewGraph()
	g.AddNode("Core", KindTable, "")
	g.AddEdge("Mystery", "Core", EdgeForeignKey) // Mystery gets unknown kind

	result := Impact(g, "Core")
	if result.TotalAffected != 0 {
		t.Errorf("unknown-kind predecessor must not be classified, got %+v", result)
	}
}

func TestImpact_RiskTiers(t *testing.T) {
	tables := []TableRecord{{Name: "Hub"}}
	var procs []RoutineRecord
	for i := 0; i < 12; i++ {
		procs = append(procs, RoutineRecord{
			Name: "sp_" + string(rune('a'+i)),
			Body: "SELECT * FROM Hub",
		})
	}
	g := Build(tables, procs, nil, nil)

	result := Impact(g, "Hub")
	if result.TotalAffected != 12 {
		t.Fatalf("total = %d, want 12", result.TotalAffected)
	}
	if result.RiskLevel != RiskHigh {
		t.Errorf("risk = %s, want HIGH at 12 affected", result.RiskLevel)
	}
}
