package depgraph

// AffectedProcedure is a stored procedure touched by a table change. Every
// dependent procedure is tagged HIGH; the tag is a flat marker, not derived
// from the criticality score.
type AffectedProcedure struct {
	Name      string `json:"name"`
	RiskLevel string `json:"risk_level"`
}

// ImpactResult lists the objects directly affected by modifying a table.
//
// AffectedTables deliberately merges two directions: tables that depend on
// the target (predecessors) and tables the target depends on through
// outgoing FK edges (successors). Consumers rely on the combined count for
// the risk tier, so the two are not split.
type ImpactResult struct {
	TableName          string              `json:"table_name"`
	AffectedProcedures []AffectedProcedure `json:"affected_sps"`
	AffectedViews      []string            `json:"affected_views"`
	AffectedTables     []string            `json:"affected_tables"`
	RiskLevel          string              `json:"risk_level"`
	TotalAffected      int                 `json:"total_affected"`
}

// Impact computes the one-hop blast radius of changing tableName. A name
// that is not a node in the graph is not an error: it yields an empty
// result with the LOW floor tier.
func Impact(g *Graph, tableName string) ImpactResult {
	result := ImpactResult{
		TableName:          tableName,
		AffectedProcedures: []AffectedProcedure{},
		AffectedViews:      []string{},
		AffectedTables:     []string{},
		RiskLevel:          RiskLow,
	}
	if !g.HasNode(tableName) {
		return result
	}

	for _, pred := range g.Predecessors(tableName) {
		switch g.Kind(pred) {
		case KindProcedure:
			result.AffectedProcedures = append(result.AffectedProcedures, AffectedProcedure{
				Name:      pred,
				RiskLevel: RiskHigh,
			})
		case KindView:
			result.AffectedViews = append(result.AffectedViews, pred)
		case KindTable:
			result.AffectedTables = append(result.AffectedTables, pred)
		}
	}

	seen := make(map[string]struct{}, len(result.AffectedTables))
	for _, t := range result.AffectedTables {
		seen[t] = struct{}{}
	}
	for _, succ := range g.Successors(tableName) {
		if g.Kind(succ) != KindTable {
			continue
		}
		if _, ok := seen[succ]; ok {
			continue
		}
		result.AffectedTables = append(result.AffectedTables, succ)
	}

	result.TotalAffected = len(result.AffectedProcedures) +
		len(result.AffectedViews) + len(result.AffectedTables)
	result.RiskLevel = riskTier(result.TotalAffected)
	return result
}
