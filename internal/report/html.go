package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/leapstack-labs/sqlforensic/internal/depgraph"
	"github.com/leapstack-labs/sqlforensic/internal/diff"
	"github.com/leapstack-labs/sqlforensic/internal/forensic"
)

//go:embed templates/*.html
var templateFiles embed.FS

var htmlTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"rowcount":    FormatRowCount,
	"filesize":    FormatSize,
	"healthlabel": HealthLabel,
	"truncate":    Truncate,
}).ParseFS(templateFiles, "templates/*.html"))

// graphNode is one node in the D3 force graph payload.
type graphNode struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Criticality int    `json:"criticality"`
}

// graphLink is one edge in the D3 force graph payload.
type graphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// buildGraphJSON serializes the dependency graph for the embedded D3
// viewer. Edges pointing at unknown nodes are dropped.
func buildGraphJSON(deps *depgraph.Result) (template.JS, error) {
	payload := struct {
		Nodes []graphNode `json:"nodes"`
		Links []graphLink `json:"links"`
	}{Nodes: []graphNode{}, Links: []graphLink{}}

	if deps != nil {
		known := make(map[string]struct{}, len(deps.Nodes))
		for _, n := range deps.Nodes {
			known[n.ID] = struct{}{}
			payload.Nodes = append(payload.Nodes, graphNode{
				ID:          n.ID,
				Type:        string(n.Kind),
				Criticality: n.InDegree + n.OutDegree,
			})
		}
		for _, e := range deps.Edges {
			if _, ok := known[e.Source]; !ok {
				continue
			}
			if _, ok := known[e.Target]; !ok {
				continue
			}
			payload.Links = append(payload.Links, graphLink{
				Source: e.Source,
				Target: e.Target,
				Type:   string(e.Kind),
			})
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal graph data: %w", err)
	}
	return template.JS(b), nil
}

type analysisPage struct {
	Report      *forensic.Report
	GeneratedAt string
	GraphData   template.JS
}

type diffPage struct {
	Diff        *diff.Result
	Summary     []diff.SummaryRow
	Total       int
	GeneratedAt string
}

// WriteAnalysisHTML renders the full interactive analysis report.
func WriteAnalysisHTML(w io.Writer, rep *forensic.Report) error {
	graphData, err := buildGraphJSON(rep.Dependencies)
	if err != nil {
		return err
	}
	return htmlTemplates.ExecuteTemplate(w, "report.html", analysisPage{
		Report:      rep,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		GraphData:   graphData,
	})
}

// WriteGraphHTML renders only the interactive dependency graph.
func WriteGraphHTML(w io.Writer, rep *forensic.Report) error {
	graphData, err := buildGraphJSON(rep.Dependencies)
	if err != nil {
		return err
	}
	return htmlTemplates.ExecuteTemplate(w, "dependency_graph.html", analysisPage{
		Report:      rep,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		GraphData:   graphData,
	})
}

// WriteDiffHTML renders the schema diff report.
func WriteDiffHTML(w io.Writer, result *diff.Result) error {
	return htmlTemplates.ExecuteTemplate(w, "diff_report.html", diffPage{
		Diff:        result,
		Summary:     result.Summary(),
		Total:       result.TotalChanges(),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	})
}

// ExportHTML writes an HTML report produced by render to a file.
func ExportHTML(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := render(f); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
