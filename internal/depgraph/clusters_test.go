package depgraph

import (
	"reflect"
	"sort"
	"testing"
)

func TestClusters_SingletonsDropped(t *testing.T) {
	g := tableGraph("lonely", "a", "b")
	g.AddEdge("a", "b", EdgeForeignKey)

	clusters := Clusters(g)
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %v", clusters)
	}
	if !reflect.DeepEqual(clusters[0], []string{"a", "b"}) {
		t.Errorf("cluster = %v, want [a b]", clusters[0])
	}
}

func TestClusters_DirectionIgnored(t *testing.T) {
	// x <- y -> z is one weak component despite no directed path x..z.
	g := tableGraph("x", "y", "z")
	g.AddEdge("y", "x", EdgeForeignKey)
	g.AddEdge("y", "z", EdgeForeignKey)

	clusters := Clusters(g)
	if len(clusters) != 1 || len(clusters[0]) != 3 {
		t.Errorf("expected one 3-node component, got %v", clusters)
	}
}

func TestClusters_SortedMembers(t *testing.T) {
	g := tableGraph("zeta", "alpha", "mid")
	g.AddEdge("zeta", "alpha", EdgeForeignKey)
	g.AddEdge("alpha", "mid", EdgeForeignKey)

	for _, cluster := range Clusters(g) {
		if !sort.StringsAreSorted(cluster) {
			t.Errorf("cluster not sorted: %v", cluster)
		}
		if len(cluster) < 2 {
			t.Errorf("singleton cluster returned: %v", cluster)
		}
	}
}

func TestClusters_MultipleComponents(t *testing.T) {
	g := tableGraph("a", "b", "c", "d")
	g.AddEdge("a", "b", EdgeForeignKey)
	g.AddEdge("c", "d", EdgeReferences)

	clusters := Clusters(g)
	if len(clusters) != 2 {
		t.Fatalf("expected two clusters, got %v", clusters)
	}
	// Deterministic order by first member.
	if clusters[0][0] != "a" || clusters[1][0] != "c" {
		t.Errorf("clusters out of order: %v", clusters)
	}
}
