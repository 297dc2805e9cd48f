package diff

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// Options tune what the diff analyzer compares.
type Options struct {
	// IncludeData compares row counts for tables present on both sides.
	IncludeData bool

	// SchemaOnly skips stored procedure, view, and function diffs.
	SchemaOnly bool
}

// Analyzer runs a full schema diff between a source (desired state) and a
// target (current state) database.
type Analyzer struct {
	sourceCfg connector.Config
	targetCfg connector.Config
	opts      Options
	logger    *slog.Logger
}

// NewAnalyzer builds a diff analyzer for the two connection configs. A nil
// logger discards log output.
func NewAnalyzer(sourceCfg, targetCfg connector.Config, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{sourceCfg: sourceCfg, targetCfg: targetCfg, opts: opts, logger: logger}
}

// Analyze connects to both databases, extracts their schemas, and returns
// the complete diff with risk assessments.
func (a *Analyzer) Analyze(ctx context.Context) (*Result, error) {
	source, err := a.connect(ctx, a.sourceCfg, "source")
	if err != nil {
		return nil, err
	}
	defer a.close(source, "source")

	target, err := a.connect(ctx, a.targetCfg, "target")
	if err != nil {
		return nil, err
	}
	defer a.close(target, "target")

	return a.analyze(ctx, source, target)
}

func (a *Analyzer) connect(ctx context.Context, cfg connector.Config, role string) (connector.Connector, error) {
	conn, err := connector.New(cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("%s connector: %w", role, err)
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s %s: %w", role, cfg.MaskedDSN(), err)
	}
	return conn, nil
}

func (a *Analyzer) close(conn connector.Connector, role string) {
	if err := conn.Close(); err != nil {
		a.logger.Warn("closing connection",
			slog.String("role", role), slog.String("error", err.Error()))
	}
}

func (a *Analyzer) analyze(ctx context.Context, source, target connector.Connector) (*Result, error) {
	a.logger.Info("starting diff analysis",
		slog.Bool("include_data", a.opts.IncludeData),
		slog.Bool("schema_only", a.opts.SchemaOnly))

	var sourceSchema, targetSchema *analyzer.SchemaResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := analyzer.AnalyzeSchema(gctx, source, a.logger)
		if err != nil {
			return fmt.Errorf("source schema: %w", err)
		}
		sourceSchema = s
		return nil
	})
	g.Go(func() error {
		s, err := analyzer.AnalyzeSchema(gctx, target, a.logger)
		if err != nil {
			return fmt.Errorf("target schema: %w", err)
		}
		targetSchema = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		SourceDatabase: a.sourceCfg.Database,
		TargetDatabase: a.targetCfg.Database,
		SourceServer:   serverLabel(a.sourceCfg),
		TargetServer:   serverLabel(a.targetCfg),
		Provider:       source.Provider(),
		IncludeData:    a.opts.IncludeData,
	}

	result.Tables = DiffTables(sourceSchema.Tables, targetSchema.Tables)

	if a.opts.SchemaOnly {
		a.logger.Info("skipping programmable object diffs")
	} else {
		result.Procedures = DiffProcedures(sourceSchema.StoredProcedures, targetSchema.StoredProcedures)
		result.Views = DiffViews(sourceSchema.Views, targetSchema.Views)
		result.Functions = DiffFunctions(sourceSchema.Functions, targetSchema.Functions)
	}

	result.Indexes = DiffIndexes(sourceSchema.Indexes, targetSchema.Indexes)
	result.ForeignKeysAdded, result.ForeignKeysRemoved = DiffForeignKeys(
		sourceSchema.ForeignKeys, targetSchema.ForeignKeys)

	assessor := NewAssessor(targetSchema.StoredProcedures, targetSchema.Views)
	result.Risks = assessor.Assess(result)
	result.RiskLevel = OverallRisk(result.Risks)
	applyTableRiskScores(result)

	if a.opts.IncludeData {
		result.RowCountChanges = compareRowCounts(sourceSchema.Tables, targetSchema.Tables)
	}

	a.logger.Info("diff analysis complete",
		slog.Int("total_changes", result.TotalChanges()),
		slog.String("risk_level", result.RiskLevel))
	return result, nil
}

// serverLabel names the server side of a config for display: host for
// network providers, file path for file-based ones.
func serverLabel(cfg connector.Config) string {
	if cfg.Host != "" {
		return cfg.Host
	}
	return cfg.Path
}

// compareRowCounts reports row count deltas for tables on both sides.
func compareRowCounts(source, target []connector.Table) []RowCountChange {
	targetMap := make(map[string]connector.Table, len(target))
	for _, t := range target {
		targetMap[tableKey(t)] = t
	}
	sourceMap := make(map[string]connector.Table, len(source))
	for _, t := range source {
		sourceMap[tableKey(t)] = t
	}

	var changes []RowCountChange
	for _, key := range sortedKeys(sourceMap) {
		tgt, ok := targetMap[key]
		if !ok {
			continue
		}
		src := sourceMap[key]
		if src.RowCount != tgt.RowCount {
			changes = append(changes, RowCountChange{
				Table:      key,
				SourceRows: src.RowCount,
				TargetRows: tgt.RowCount,
				Delta:      src.RowCount - tgt.RowCount,
			})
		}
	}
	return changes
}

// applyTableRiskScores copies the highest matching assessment score onto
// each modified table, with details for everything above NONE.
func applyTableRiskScores(result *Result) {
	byTable := make(map[string][]RiskAssessment)
	for _, r := range result.Risks {
		byTable[r.Table] = append(byTable[r.Table], r)
	}
	for i := range result.Tables.Modified {
		mod := &result.Tables.Modified[i]
		matched := byTable[mod.TableName]
		if len(matched) == 0 {
			continue
		}
		// Risks arrive sorted by score descending.
		mod.RiskScore = matched[0].RiskScore
		for _, r := range matched {
			if r.RiskLevel == RiskNone {
				continue
			}
			mod.RiskDetails = append(mod.RiskDetails,
				fmt.Sprintf("[%s] %s", r.RiskLevel, r.ChangeDescription))
		}
	}
}
