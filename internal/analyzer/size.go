package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// TableSizeInfo is one table's storage profile.
type TableSizeInfo struct {
	Schema          string  `json:"table_schema"`
	Name            string  `json:"table_name"`
	RowCount        int64   `json:"row_count"`
	TotalKB         int64   `json:"total_space_kb"`
	UsedKB          int64   `json:"used_space_kb"`
	UnusedKB        int64   `json:"unused_space_kb"`
	AvgRowSizeBytes float64 `json:"avg_row_size_bytes"`
}

// AnalyzeSizes computes per-table space usage, sorted by total space.
func AnalyzeSizes(ctx context.Context, conn connector.Connector, logger *slog.Logger) ([]TableSizeInfo, error) {
	logger.Info("starting size analysis")

	raw, err := conn.GetTableSizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load table sizes: %w", err)
	}

	results := make([]TableSizeInfo, 0, len(raw))
	for _, row := range raw {
		var avgRow float64
		if row.RowCount > 0 {
			avgRow = math.Round(float64(row.UsedKB)*1024/float64(row.RowCount)*10) / 10
		}
		results = append(results, TableSizeInfo{
			Schema:          row.Schema,
			Name:            row.Table,
			RowCount:        row.RowCount,
			TotalKB:         row.TotalKB,
			UsedKB:          row.UsedKB,
			UnusedKB:        row.TotalKB - row.UsedKB,
			AvgRowSizeBytes: avgRow,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalKB > results[j].TotalKB
	})

	logger.Info("size analysis complete", slog.Int("tables", len(results)))
	return results, nil
}
