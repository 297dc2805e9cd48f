package depgraph

import "sort"

// CriticalityEntry scores how central a node is to the schema. Nodes many
// other objects depend on, directly or transitively, score higher.
type CriticalityEntry struct {
	Name           string   `json:"name"`
	Kind           NodeKind `json:"type"`
	Score          int      `json:"score"`
	InDegree       int      `json:"in_degree"`
	OutDegree      int      `json:"out_degree"`
	DependentCount int      `json:"dependent_count"`
}

// Rank computes a criticality entry per node, scored as
// in_degree*3 + ancestor_count*2 + out_degree, sorted by descending score.
// Ties break on ascending name so output is deterministic.
func Rank(g *Graph) []CriticalityEntry {
	entries := make([]CriticalityEntry, 0, g.NodeCount())

	for _, name := range g.Nodes() {
		in := g.InDegree(name)
		out := g.OutDegree(name)
		dependents := len(g.Ancestors(name))

		entries = append(entries, CriticalityEntry{
			Name:           name,
			Kind:           g.Kind(name),
			Score:          in*3 + dependents*2 + out,
			InDegree:       in,
			OutDegree:      out,
			DependentCount: dependents,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
