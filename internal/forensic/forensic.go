// Package forensic is the library entry point: it connects to a database,
// runs every analyzer, and assembles the full report.
package forensic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
	"github.com/leapstack-labs/sqlforensic/internal/scoring"
	"github.com/leapstack-labs/sqlforensic/internal/sqltext"
)

// Report is the complete result of one analysis run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Database    string    `json:"database"`
	Provider    string    `json:"provider"`
	HealthScore int       `json:"health_score"`

	Schema                *analyzer.SchemaResult   `json:"schema"`
	Relationships         []analyzer.Relationship  `json:"relationships"`
	ImplicitRelationships []analyzer.Relationship  `json:"implicit_relationships"`
	ProcAnalysis          []sqltext.ParseResult    `json:"sp_analysis"`
	IndexFindings         *analyzer.IndexResult    `json:"index_findings"`
	DeadCode              analyzer.DeadCodeResult  `json:"dead_code"`
	Dependencies          *depgraph.Result         `json:"dependencies"`
	SizeInfo              []analyzer.TableSizeInfo `json:"size_info"`
	SecurityIssues        []analyzer.SecurityIssue `json:"security_issues"`
	Issues                []scoring.HealthIssue    `json:"issues"`
	RiskScores            scoring.RiskScores       `json:"risk_scores"`

	graph *depgraph.Graph
}

// Graph exposes the dependency graph built during analysis, for impact
// queries against an existing report.
func (r *Report) Graph() *depgraph.Graph { return r.graph }

// Forensic runs analyses against one configured database.
type Forensic struct {
	cfg    connector.Config
	logger *slog.Logger
}

// New builds a Forensic for the given connection config. A nil logger
// discards log output.
func New(cfg connector.Config, logger *slog.Logger) *Forensic {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Forensic{cfg: cfg, logger: logger}
}

func (f *Forensic) connect(ctx context.Context) (connector.Connector, error) {
	conn, err := connector.New(f.cfg, f.logger)
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// Analyze runs the full pipeline and returns the assembled report.
// Schema, relationship, dependency, and index analyses are fatal on
// error; size and security failures are logged and skipped.
func (f *Forensic) Analyze(ctx context.Context) (*Report, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			f.logger.Warn("closing connection", slog.String("error", cerr.Error()))
		}
	}()

	return f.analyze(ctx, conn)
}

func (f *Forensic) analyze(ctx context.Context, conn connector.Connector) (*Report, error) {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Database:    f.cfg.Database,
		Provider:    conn.Provider(),
	}

	schema, err := analyzer.AnalyzeSchema(ctx, conn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("schema analysis: %w", err)
	}
	report.Schema = schema

	rels := analyzer.DiscoverRelationships(schema.Tables, schema.StoredProcedures, schema.ForeignKeys, f.logger)
	report.Relationships = rels.Explicit
	report.ImplicitRelationships = rels.Implicit

	report.ProcAnalysis = analyzer.AnalyzeProcedures(schema.StoredProcedures, f.logger)

	indexes, err := analyzer.AnalyzeIndexes(ctx, conn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("index analysis: %w", err)
	}
	report.IndexFindings = indexes

	report.DeadCode = analyzer.FindDeadCode(schema.Tables, schema.StoredProcedures,
		rels.Explicit, schema.Views, f.logger)

	graph, deps, err := f.buildDependencies(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("dependency analysis: %w", err)
	}
	report.graph = graph
	report.Dependencies = deps

	if sizes, err := analyzer.AnalyzeSizes(ctx, conn, f.logger); err != nil {
		f.logger.Warn("size analysis failed, skipping", slog.String("error", err.Error()))
	} else {
		report.SizeInfo = sizes
	}

	if issues, err := analyzer.AnalyzeSecurity(ctx, conn, f.logger); err != nil {
		f.logger.Warn("security analysis failed, skipping", slog.String("error", err.Error()))
	} else {
		report.SecurityIssues = issues
	}

	report.HealthScore, report.Issues = scoring.Health(scoring.HealthInput{
		Tables:               schema.Tables,
		Indexes:              schema.Indexes,
		MissingIndexes:       indexes.Missing,
		DuplicateIndexes:     indexes.Duplicates,
		DeadCode:             report.DeadCode,
		CircularDependencies: deps.Cycles,
		ProcAnalysis:         report.ProcAnalysis,
		SecurityIssues:       report.SecurityIssues,
	})

	report.RiskScores = scoring.Risk(schema.Tables, report.Relationships, report.ProcAnalysis)

	f.logger.Info("analysis complete",
		slog.String("run_id", report.RunID),
		slog.Int("health_score", report.HealthScore))
	return report, nil
}

func (f *Forensic) buildDependencies(ctx context.Context, schema *analyzer.SchemaResult) (*depgraph.Graph, *depgraph.Result, error) {
	tables := make([]depgraph.TableRecord, 0, len(schema.Tables))
	for _, t := range schema.Tables {
		tables = append(tables, depgraph.TableRecord{Schema: t.Schema, Name: t.Name})
	}
	procs := make([]depgraph.RoutineRecord, 0, len(schema.StoredProcedures))
	for _, sp := range schema.StoredProcedures {
		procs = append(procs, depgraph.RoutineRecord{Schema: sp.Schema, Name: sp.Name, Body: sp.Body})
	}
	views := make([]depgraph.RoutineRecord, 0, len(schema.Views))
	for _, v := range schema.Views {
		views = append(views, depgraph.RoutineRecord{Schema: v.Schema, Name: v.Name, Body: v.Body})
	}
	fks := make([]depgraph.ForeignKeyRecord, 0, len(schema.ForeignKeys))
	for _, fk := range schema.ForeignKeys {
		fks = append(fks, depgraph.ForeignKeyRecord{
			ParentTable:     fk.ParentTable,
			ReferencedTable: fk.ReferencedTable,
		})
	}

	return depgraph.NewAnalyzer(f.logger).Analyze(ctx, tables, procs, views, fks)
}

// Impact runs the pipeline far enough to answer "what breaks if this
// table changes".
func (f *Forensic) Impact(ctx context.Context, tableName string) (*depgraph.ImpactResult, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	schema, err := analyzer.AnalyzeSchema(ctx, conn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("schema analysis: %w", err)
	}
	graph, _, err := f.buildDependencies(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("dependency analysis: %w", err)
	}

	impact := depgraph.Impact(graph, tableName)
	return &impact, nil
}

// DeadCode runs only the analyses needed for dead code detection.
func (f *Forensic) DeadCode(ctx context.Context) (*analyzer.DeadCodeResult, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	schema, err := analyzer.AnalyzeSchema(ctx, conn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("schema analysis: %w", err)
	}
	rels := analyzer.DiscoverRelationships(schema.Tables, schema.StoredProcedures, schema.ForeignKeys, f.logger)
	result := analyzer.FindDeadCode(schema.Tables, schema.StoredProcedures, rels.Explicit, schema.Views, f.logger)
	return &result, nil
}

// Dependencies runs only the dependency graph analysis.
func (f *Forensic) Dependencies(ctx context.Context) (*depgraph.Result, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	schema, err := analyzer.AnalyzeSchema(ctx, conn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("schema analysis: %w", err)
	}
	_, deps, err := f.buildDependencies(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("dependency analysis: %w", err)
	}
	return deps, nil
}
