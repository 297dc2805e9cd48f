package analyzer

import (
	"log/slog"
	"sort"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/sqltext"
)

// AnalyzeProcedures parses every stored procedure body and returns the
// results sorted by complexity score, highest first.
func AnalyzeProcedures(procs []connector.Routine, logger *slog.Logger) []sqltext.ParseResult {
	logger.Info("starting stored procedure analysis", slog.Int("count", len(procs)))

	results := make([]sqltext.ParseResult, 0, len(procs))
	for _, sp := range procs {
		results = append(results, sqltext.Parse(sp.Schema, sp.Name, sp.Body))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ComplexityScore > results[j].ComplexityScore
	})

	logger.Info("stored procedure analysis complete")
	return results
}
