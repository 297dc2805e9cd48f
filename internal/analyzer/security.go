package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// SecurityIssue is one potential security problem with a remediation hint.
type SecurityIssue struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// injectionPattern flags EXEC with string concatenation, the classic SQL
// injection shape.
var injectionPattern = regexp.MustCompile(`(?i)EXEC(?:UTE)?\s*\(\s*(?:@\w+\s*\+|'[^']*'\s*\+)`)

// AnalyzeSecurity checks grants for over-broad permissions and stored
// procedures for injection-prone dynamic SQL.
func AnalyzeSecurity(ctx context.Context, conn connector.Connector, logger *slog.Logger) ([]SecurityIssue, error) {
	logger.Info("starting security analysis")

	permissions, err := conn.GetPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	procs, err := conn.GetStoredProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored procedures: %w", err)
	}

	var issues []SecurityIssue
	issues = append(issues, permissionIssues(permissions)...)
	issues = append(issues, injectionIssues(procs)...)

	logger.Info("security analysis complete", slog.Int("issues", len(issues)))
	return issues, nil
}

func permissionIssues(permissions []connector.Permission) []SecurityIssue {
	var issues []SecurityIssue
	for _, perm := range permissions {
		if perm.Permission != "CONTROL" && perm.Permission != "ALTER" {
			continue
		}
		desc := fmt.Sprintf("User '%s' has %s permission", perm.Principal, perm.Permission)
		if perm.Object != "" {
			desc += " on " + perm.Object
		}
		issues = append(issues, SecurityIssue{
			Type:           "EXCESSIVE_PERMISSION",
			Severity:       "HIGH",
			Description:    desc,
			Recommendation: "Apply least-privilege principle",
		})
	}
	return issues
}

func injectionIssues(procs []connector.Routine) []SecurityIssue {
	var issues []SecurityIssue
	for _, sp := range procs {
		if !injectionPattern.MatchString(sp.Body) {
			continue
		}
		if strings.Contains(strings.ToLower(sp.Body), "sp_executesql") {
			continue
		}
		issues = append(issues, SecurityIssue{
			Type:     "SQL_INJECTION_RISK",
			Severity: "HIGH",
			Description: fmt.Sprintf(
				"SP '%s' uses dynamic SQL with string concatenation without sp_executesql", sp.Name),
			Recommendation: "Use sp_executesql with parameters",
		})
	}
	return issues
}
