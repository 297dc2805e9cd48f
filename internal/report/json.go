package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leapstack-labs/sqlforensic/internal/diff"
	"github.com/leapstack-labs/sqlforensic/internal/forensic"
)

// Version is stamped into exported report metadata. Set at build time.
var Version = "0.1.0"

// Metadata describes the tool run that produced an export.
type Metadata struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Database    string `json:"database"`
	Provider    string `json:"provider"`
}

// AnalysisDocument is the JSON export envelope for an analysis report.
type AnalysisDocument struct {
	Metadata Metadata         `json:"metadata"`
	Report   *forensic.Report `json:"report"`
}

// DiffDocument is the JSON export envelope for a schema diff.
type DiffDocument struct {
	Metadata Metadata          `json:"metadata"`
	Summary  []diff.SummaryRow `json:"summary"`
	Diff     *diff.Result      `json:"diff"`
}

func analysisDocument(rep *forensic.Report) AnalysisDocument {
	return AnalysisDocument{
		Metadata: Metadata{
			Tool:        "sqlforensic",
			Version:     Version,
			GeneratedAt: rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
			Database:    rep.Database,
			Provider:    rep.Provider,
		},
		Report: rep,
	}
}

func diffDocument(result *diff.Result) DiffDocument {
	return DiffDocument{
		Metadata: Metadata{
			Tool:        "sqlforensic",
			Version:     Version,
			GeneratedAt: time.Now().Format("2006-01-02T15:04:05Z07:00"),
			Database:    result.TargetDatabase,
			Provider:    result.Provider,
		},
		Summary: result.Summary(),
		Diff:    result,
	}
}

// WriteAnalysisJSON writes the analysis report as indented JSON.
func WriteAnalysisJSON(w io.Writer, rep *forensic.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(analysisDocument(rep))
}

// WriteDiffJSON writes the schema diff as indented JSON.
func WriteDiffJSON(w io.Writer, result *diff.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diffDocument(result))
}

// ExportAnalysisJSON writes the analysis report to a file.
func ExportAnalysisJSON(path string, rep *forensic.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := WriteAnalysisJSON(f, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
