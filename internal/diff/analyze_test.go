package diff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
	"github.com/leapstack-labs/sqlforensic/internal/testutil"
)

// stubConnector returns canned metadata for diff analyzer tests.
type stubConnector struct {
	tables  []connector.Table
	columns map[string][]connector.Column
	fks     []connector.ForeignKey
	procs   []connector.Routine
	views   []connector.Routine
	funcs   []connector.Routine
	indexes []connector.Index
}

func (s *stubConnector) Connect(context.Context) error { return nil }
func (s *stubConnector) Close() error                  { return nil }
func (s *stubConnector) Provider() string              { return "stub" }

func (s *stubConnector) GetTables(context.Context) ([]connector.Table, error) {
	return s.tables, nil
}

func (s *stubConnector) GetColumns(_ context.Context, _, table string) ([]connector.Column, error) {
	return s.columns[table], nil
}

func (s *stubConnector) GetForeignKeys(context.Context) ([]connector.ForeignKey, error) {
	return s.fks, nil
}

func (s *stubConnector) GetStoredProcedures(context.Context) ([]connector.Routine, error) {
	return s.procs, nil
}

func (s *stubConnector) GetViews(context.Context) ([]connector.Routine, error) {
	return s.views, nil
}

func (s *stubConnector) GetFunctions(context.Context) ([]connector.Routine, error) {
	return s.funcs, nil
}

func (s *stubConnector) GetIndexes(context.Context) ([]connector.Index, error) {
	return s.indexes, nil
}

func (s *stubConnector) GetMissingIndexes(context.Context) ([]connector.MissingIndex, error) {
	return nil, nil
}

func (s *stubConnector) GetTableSizes(context.Context) ([]connector.TableSize, error) {
	return nil, nil
}

func (s *stubConnector) GetPermissions(context.Context) ([]connector.Permission, error) {
	return nil, nil
}

func desiredState() *stubConnector {
	return &stubConnector{
		tables: []connector.Table{
			{Schema: "public", Name: "users", RowCount: 100},
			{Schema: "public", Name: "orders", RowCount: 0},
		},
		columns: map[string][]connector.Column{
			"users": {
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "email", DataType: "varchar", MaxLength: 255},
			},
			"orders": {
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "user_id", DataType: "integer"},
			},
		},
		fks: []connector.ForeignKey{
			{ConstraintName: "fk_orders_user", ParentTable: "orders", ParentColumn: "user_id",
				ReferencedTable: "users", ReferencedColumn: "id"},
		},
		procs: []connector.Routine{
			{Schema: "public", Name: "sp_new", Body: "SELECT 1"},
			{Schema: "public", Name: "sp_keep", Body: "SELECT id, email FROM users"},
		},
		indexes: []connector.Index{
			{Schema: "public", Table: "users", Name: "ix_users_email", Columns: "email"},
		},
	}
}

func currentState() *stubConnector {
	return &stubConnector{
		tables: []connector.Table{
			{Schema: "public", Name: "users", RowCount: 80},
		},
		columns: map[string][]connector.Column{
			"users": {
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "email", DataType: "varchar", MaxLength: 255},
				{Name: "legacy", DataType: "text", Nullable: true},
			},
		},
		procs: []connector.Routine{
			{Schema: "public", Name: "sp_old", Body: "SELECT 2"},
			{Schema: "public", Name: "sp_keep", Body: "SELECT id FROM users"},
		},
	}
}

func testAnalyzer(opts Options) *Analyzer {
	return NewAnalyzer(
		connector.Config{Provider: "duckdb", Path: "desired.db", Database: "shop_v2"},
		connector.Config{Provider: "duckdb", Path: "current.db", Database: "shop"},
		opts, nil)
}

func TestAnalyzeFullDiff(t *testing.T) {
	a := testAnalyzer(Options{IncludeData: true})
	a.logger = testutil.NewTestLogger(t)

	result, err := a.analyze(context.Background(), desiredState(), currentState())
	require.NoError(t, err)

	assert.Equal(t, "shop_v2", result.SourceDatabase)
	assert.Equal(t, "shop", result.TargetDatabase)
	assert.Equal(t, "desired.db", result.SourceServer)
	assert.Equal(t, "current.db", result.TargetServer)
	assert.Equal(t, "stub", result.Provider)

	require.Len(t, result.Tables.Added, 1)
	assert.Equal(t, "orders", result.Tables.Added[0].Name)
	require.Len(t, result.Tables.Modified, 1)
	assert.Equal(t, "users", result.Tables.Modified[0].TableName)
	require.Len(t, result.Tables.Modified[0].RemovedColumns, 1)
	assert.Equal(t, "legacy", result.Tables.Modified[0].RemovedColumns[0].Name)

	require.Len(t, result.Procedures.Added, 1)
	assert.Equal(t, "sp_new", result.Procedures.Added[0].Name)
	require.Len(t, result.Procedures.Removed, 1)
	assert.Equal(t, "sp_old", result.Procedures.Removed[0].Name)
	require.Len(t, result.Procedures.Modified, 1)
	assert.Equal(t, "sp_keep", result.Procedures.Modified[0].Name)

	require.Len(t, result.Indexes.Added, 1)
	assert.Equal(t, "ix_users_email", result.Indexes.Added[0].IndexName)
	require.Len(t, result.ForeignKeysAdded, 1)
	assert.Empty(t, result.ForeignKeysRemoved)

	assert.NotEmpty(t, result.Risks)
	assert.NotEqual(t, RiskNone, result.RiskLevel)
	assert.True(t, result.HasChanges())

	// Row counts differ for the shared users table.
	require.Len(t, result.RowCountChanges, 1)
	rc := result.RowCountChanges[0]
	assert.Equal(t, "public.users", rc.Table)
	assert.Equal(t, int64(100), rc.SourceRows)
	assert.Equal(t, int64(80), rc.TargetRows)
	assert.Equal(t, int64(20), rc.Delta)
}

func TestAnalyzeSchemaOnlySkipsRoutines(t *testing.T) {
	a := testAnalyzer(Options{SchemaOnly: true})
	a.logger = testutil.NewTestLogger(t)

	result, err := a.analyze(context.Background(), desiredState(), currentState())
	require.NoError(t, err)

	assert.Empty(t, result.Procedures.Added)
	assert.Empty(t, result.Procedures.Removed)
	assert.Empty(t, result.Procedures.Modified)
	assert.Empty(t, result.Views.Added)
	assert.Empty(t, result.Functions.Added)

	// Table diffs still run.
	assert.Len(t, result.Tables.Added, 1)
	assert.Empty(t, result.RowCountChanges)
}

func TestAnalyzeModifiedTableCarriesRiskDetails(t *testing.T) {
	source := desiredState()
	target := currentState()
	// A procedure on the target still reads the column being dropped.
	target.procs = append(target.procs, connector.Routine{
		Schema: "public", Name: "sp_legacy", Body: "SELECT legacy FROM users",
	})

	a := testAnalyzer(Options{})
	a.logger = testutil.NewTestLogger(t)

	result, err := a.analyze(context.Background(), source, target)
	require.NoError(t, err)

	require.Len(t, result.Tables.Modified, 1)
	mod := result.Tables.Modified[0]
	assert.Greater(t, mod.RiskScore, 0.0)
	assert.NotEmpty(t, mod.RiskDetails)
}

func TestNewAnalyzerDefaultsLogger(t *testing.T) {
	a := testAnalyzer(Options{})
	require.NotNil(t, a)
	assert.NotNil(t, a.logger)
}
