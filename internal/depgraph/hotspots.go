package depgraph

import "sort"

// Risk tier labels shared by hotspot and impact classification.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
)

// Hotspot is a table whose modification would break dependent procedures.
type Hotspot struct {
	Table            string   `json:"table"`
	DependentSPCount int      `json:"dependent_sp_count"`
	DependentSPs     []string `json:"dependent_sps"`
	RiskLevel        string   `json:"risk_level"`
}

// Hotspots finds, for each table in the input list, the stored procedures
// that directly depend on it. Tables absent from the graph or with zero
// dependent procedures produce no entry. The result is sorted by descending
// dependent count, then name.
func Hotspots(g *Graph, tables []TableRecord) []Hotspot {
	var hotspots []Hotspot

	for _, t := range tables {
		if !g.HasNode(t.Name) {
			continue
		}

		var dependents []string
		for _, p := range g.Predecessors(t.Name) {
			if g.Kind(p) == KindProcedure {
				dependents = append(dependents, p)
			}
		}
		if len(dependents) == 0 {
			continue
		}

		hotspots = append(hotspots, Hotspot{
			Table:            t.Name,
			DependentSPCount: len(dependents),
			DependentSPs:     dependents,
			RiskLevel:        riskTier(len(dependents)),
		})
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].DependentSPCount != hotspots[j].DependentSPCount {
			return hotspots[i].DependentSPCount > hotspots[j].DependentSPCount
		}
		return hotspots[i].Table < hotspots[j].Table
	})
	return hotspots
}

// riskTier maps a dependent-object count to a risk label.
func riskTier(count int) string {
	switch {
	case count >= 20:
		return RiskCritical
	case count >= 10:
		return RiskHigh
	case count >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}
