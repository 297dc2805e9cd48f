package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlforensic/internal/analyzer"
	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
	"github.com/leapstack-labs/sqlforensic/internal/diff"
	"github.com/leapstack-labs/sqlforensic/internal/forensic"
	"github.com/leapstack-labs/sqlforensic/internal/scoring"
)

func analysisFixture() *forensic.Report {
	return &forensic.Report{
		RunID:       "run-20260314-001",
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Database:    "shop",
		Provider:    "postgres",
		HealthScore: 72,
		Schema: &analyzer.SchemaResult{
			Overview: analyzer.SchemaOverview{
				Tables:           3,
				Views:            1,
				StoredProcedures: 2,
				Indexes:          4,
				ForeignKeys:      2,
				TotalColumns:     18,
				TotalRows:        1500,
			},
		},
		Issues: []scoring.HealthIssue{
			{Description: "Tables without primary key", Severity: "HIGH", Count: 2, Penalty: 10, Category: "schema"},
		},
		Dependencies: &depgraph.Result{
			Nodes: []depgraph.NodeInfo{
				{ID: "users", Kind: depgraph.KindTable, InDegree: 2},
				{ID: "sp_report", Kind: depgraph.KindProcedure, OutDegree: 1},
			},
			Edges: []depgraph.Edge{
				{Source: "sp_report", Target: "users", Kind: depgraph.EdgeReferences},
				{Source: "sp_report", Target: "ghost", Kind: depgraph.EdgeReferences},
			},
			Hotspots: []depgraph.Hotspot{
				{Table: "users", DependentSPCount: 4, DependentSPs: []string{"sp_report"}, RiskLevel: "HIGH"},
			},
		},
	}
}

func diffFixture() *diff.Result {
	return &diff.Result{
		SourceDatabase: "shop_v2",
		TargetDatabase: "shop",
		SourceServer:   "staging-db",
		TargetServer:   "prod-db",
		Provider:       "postgres",
		Tables: diff.TableDiff{
			Added: []diff.TableInfo{
				{Schema: "public", Name: "shipments", Columns: []diff.ColumnInfo{{Name: "id", DataType: "bigint"}}},
			},
			Removed: []diff.TableInfo{{Schema: "public", Name: "audit_log"}},
			Modified: []diff.TableModification{{
				TableSchema:  "public",
				TableName:    "users",
				AddedColumns: []diff.ColumnInfo{{Name: "phone", DataType: "varchar", MaxLength: 20, Nullable: true}},
				ModifiedColumns: []diff.ColumnModification{{
					ColumnName: "email",
					ChangeType: diff.ChangeDataType,
					OldValue:   "varchar",
					NewValue:   "text",
					IsBreaking: true,
				}},
			}},
		},
		Risks: []diff.RiskAssessment{{
			ChangeDescription: "DROP TABLE audit_log",
			Table:             "public.audit_log",
			RiskScore:         0.65,
			RiskLevel:         "HIGH",
			AffectedObjects:   []string{"SP:sp_audit"},
			BreakingChanges:   []string{"Table audit_log will be dropped"},
			Recommendations:   []string{"Back up audit_log before applying"},
		}},
		RiskLevel: "HIGH",
	}
}

func TestRendererEffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, ModeMarkdown, NewRenderer(&buf, io.Discard, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeText, NewRenderer(&buf, io.Discard, ModeText).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRenderer(&buf, io.Discard, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRenderer(&buf, io.Discard, Mode("md")).EffectiveMode())
}

func TestRendererErrorfWritesToErrStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)
	r.Errorf("boom %d\n", 7)
	assert.Empty(t, out.String())
	assert.Equal(t, "boom 7\n", errOut.String())
}

func TestRenderAnalysisMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, io.Discard, ModeMarkdown)

	require.NoError(t, RenderAnalysis(r, analysisFixture()))
	got := buf.String()

	assert.Contains(t, got, "# sqlforensic Report")
	assert.Contains(t, got, "- **Database**: shop")
	assert.Contains(t, got, "**72/100** (GOOD)")
	assert.Contains(t, got, "| Tables | 3 |")
	assert.Contains(t, got, "| Total Rows | 1.5K |")
	assert.Contains(t, got, "| Tables without primary key | HIGH | 2 |")
	assert.Contains(t, got, "## Top Dependency Hotspots")
	assert.Contains(t, got, "| users | 4 | HIGH |")
}

func TestRenderAnalysisJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, io.Discard, ModeJSON)

	require.NoError(t, RenderAnalysis(r, analysisFixture()))

	var doc AnalysisDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "sqlforensic", doc.Metadata.Tool)
	assert.Equal(t, Version, doc.Metadata.Version)
	assert.Equal(t, "shop", doc.Metadata.Database)
	require.NotNil(t, doc.Report)
	assert.Equal(t, 72, doc.Report.HealthScore)
	assert.Len(t, doc.Report.Issues, 1)
}

func TestRenderDiffMarkdown(t *testing.T) {
	result := diffFixture()
	var buf bytes.Buffer
	r := NewRenderer(&buf, io.Discard, ModeMarkdown)

	require.NoError(t, RenderDiff(r, result))
	got := buf.String()

	assert.Contains(t, got, "# sqlforensic — Schema Diff Report")
	assert.Contains(t, got, "- **Source**: shop_v2 (staging-db)")
	assert.Contains(t, got, "- **Overall Risk**: HIGH")
	assert.Contains(t, got, "| Tables | 1 | 1 | 1 |")
	assert.Contains(t, got, "| DROP TABLE audit_log | HIGH | 0.65 | SP:sp_audit |")
	assert.Contains(t, got, "- Table audit_log will be dropped")
	assert.Contains(t, got, "- Back up audit_log before applying")
	assert.Contains(t, got, "1 CREATE TABLE, 1 DROP TABLE, 1 ALTER TABLE")
}

func TestRenderDiffMarkdownNoChanges(t *testing.T) {
	result := &diff.Result{
		SourceDatabase: "a", TargetDatabase: "b",
		Provider: "duckdb", RiskLevel: "NONE",
	}
	var buf bytes.Buffer
	r := NewRenderer(&buf, io.Discard, ModeMarkdown)

	require.NoError(t, RenderDiff(r, result))
	got := buf.String()

	assert.Contains(t, got, "No schema differences detected.")
	assert.NotContains(t, got, "## Change Summary")
}

func TestRenderDiffJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, io.Discard, ModeJSON)

	require.NoError(t, RenderDiff(r, diffFixture()))

	var doc DiffDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "shop", doc.Metadata.Database)
	assert.Len(t, doc.Summary, 7)
	require.NotNil(t, doc.Diff)
	assert.Equal(t, "HIGH", doc.Diff.RiskLevel)
}

func TestAffectedCell(t *testing.T) {
	assert.Equal(t, "-", affectedCell(nil))
	assert.Equal(t, "a, b", affectedCell([]string{"a", "b"}))
	assert.Equal(t, "a, b, c, d, e (+2 more)",
		affectedCell([]string{"a", "b", "c", "d", "e", "f", "g"}))
}

func TestBuildGraphJSON(t *testing.T) {
	data, err := buildGraphJSON(analysisFixture().Dependencies)
	require.NoError(t, err)

	var payload struct {
		Nodes []graphNode `json:"nodes"`
		Links []graphLink `json:"links"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &payload))

	require.Len(t, payload.Nodes, 2)
	assert.Equal(t, "users", payload.Nodes[0].ID)
	assert.Equal(t, "table", payload.Nodes[0].Type)
	assert.Equal(t, 2, payload.Nodes[0].Criticality)

	// The edge to the unknown node "ghost" is dropped.
	require.Len(t, payload.Links, 1)
	assert.Equal(t, "sp_report", payload.Links[0].Source)
	assert.Equal(t, "users", payload.Links[0].Target)
}

func TestBuildGraphJSONEmpty(t *testing.T) {
	data, err := buildGraphJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"links":[]}`, string(data))
}

func TestWriteAnalysisHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnalysisHTML(&buf, analysisFixture()))
	got := buf.String()

	assert.Contains(t, got, "<!DOCTYPE html>")
	assert.Contains(t, got, "Database Health")
	assert.Contains(t, got, "shop")
	assert.Contains(t, got, "const data =")
	assert.Contains(t, got, "sp_report")
	assert.Contains(t, got, "forceSimulation")
}

func TestWriteGraphHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGraphHTML(&buf, analysisFixture()))
	got := buf.String()

	assert.Contains(t, got, "Dependency Graph")
	assert.Contains(t, got, "const data =")
	assert.Contains(t, got, `"users"`)
}

func TestWriteDiffHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDiffHTML(&buf, diffFixture()))
	got := buf.String()

	assert.Contains(t, got, "Schema Diff Report")
	assert.Contains(t, got, "shipments")
	assert.Contains(t, got, "audit_log")
	assert.Contains(t, got, `sev-HIGH`)
	assert.Contains(t, got, "breaking")
}

func TestExportAnalysisJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, ExportAnalysisJSON(path, analysisFixture()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc AnalysisDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "shop", doc.Metadata.Database)
}

func TestExportHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, ExportHTML(path, func(w io.Writer) error {
		return WriteAnalysisHTML(w, analysisFixture())
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<!DOCTYPE html>")
}
