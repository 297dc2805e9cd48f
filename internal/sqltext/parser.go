package sqltext

import (
	"sort"
	"strings"
)

// Parameter is one declared routine parameter.
type Parameter struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Direction string `json:"direction"` // INPUT or OUTPUT
}

// ParseResult holds everything extracted from one routine body.
type ParseResult struct {
	Name               string              `json:"name"`
	Schema             string              `json:"schema"`
	ReferencedTables   []string            `json:"referenced_tables"`
	CRUDOperations     map[string][]string `json:"crud_operations"`
	JoinCount          int                 `json:"join_count"`
	SubqueryDepth      int                 `json:"subquery_depth"`
	LineCount          int                 `json:"line_count"`
	HasCursors         bool                `json:"has_cursors"`
	HasDynamicSQL      bool                `json:"has_dynamic_sql"`
	HasTempTables      bool                `json:"has_temp_tables"`
	CaseCount          int                 `json:"case_count"`
	ComplexityScore    int                 `json:"complexity_score"`
	ComplexityCategory string              `json:"complexity_category"`
	AntiPatterns       []string            `json:"anti_patterns"`
	Parameters         []Parameter         `json:"parameters"`
}

// Complexity categories.
const (
	ComplexitySimple  = "Simple"
	ComplexityMedium  = "Medium"
	ComplexityComplex = "Complex"
)

// Parse analyzes one routine body and extracts references, CRUD targets,
// complexity metrics, anti-patterns, and parameters. An empty body yields
// a result with only the name and schema set.
func Parse(schema, name, body string) ParseResult {
	result := ParseResult{Name: name, Schema: schema}
	if body == "" {
		return result
	}

	result.LineCount = len(strings.Split(strings.TrimSpace(body), "\n"))
	result.ReferencedTables = extractTableReferences(body)
	result.CRUDOperations = extractCRUDOperations(body)
	result.JoinCount = len(joinPattern.FindAllString(body, -1))
	result.SubqueryDepth = subqueryDepth(body)
	result.HasCursors = cursorPattern.MatchString(body)
	result.HasDynamicSQL = dynamicSQLPattern.MatchString(body)
	result.HasTempTables = tempTablePattern.MatchString(body)
	result.CaseCount = len(casePattern.FindAllString(body, -1))
	result.AntiPatterns = detectAntiPatterns(body)
	result.Parameters = extractParameters(body)
	result.ComplexityScore = complexityScore(result)
	result.ComplexityCategory = categorizeComplexity(result.ComplexityScore)

	return result
}

func extractTableReferences(body string) []string {
	seen := make(map[string]struct{})

	capture := func(matches [][]string, group int) {
		for _, m := range matches {
			table := strings.Trim(strings.TrimSpace(m[group]), `[]"`)
			if table == "" || isSQLKeyword(table) {
				continue
			}
			seen[table] = struct{}{}
		}
	}

	capture(tableRefPattern.FindAllStringSubmatch(body, -1), 2)
	capture(joinPattern.FindAllStringSubmatch(body, -1), 2)
	capture(selectFromPattern.FindAllStringSubmatch(body, -1), 1)

	// Drop temp tables and common false positives.
	tables := make([]string, 0, len(seen))
	for t := range seen {
		if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "@") ||
			strings.HasPrefix(t, "temp") || strings.HasPrefix(t, "tmp") {
			continue
		}
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

func extractCRUDOperations(body string) map[string][]string {
	ops := map[string][]string{
		"SELECT": {},
		"INSERT": {},
		"UPDATE": {},
		"DELETE": {},
	}

	collect := func(op string, matches [][]string) {
		for _, m := range matches {
			table := strings.Trim(strings.TrimSpace(m[1]), `[]"`)
			if table == "" || isSQLKeyword(table) {
				continue
			}
			if !contains(ops[op], table) {
				ops[op] = append(ops[op], table)
			}
		}
	}

	collect("SELECT", selectFromPattern.FindAllStringSubmatch(body, -1))
	collect("INSERT", insertPattern.FindAllStringSubmatch(body, -1))
	collect("UPDATE", updatePattern.FindAllStringSubmatch(body, -1))
	collect("DELETE", deletePattern.FindAllStringSubmatch(body, -1))

	return ops
}

// subqueryDepth returns the maximum nesting depth of (SELECT ...) groups.
func subqueryDepth(body string) int {
	upper := strings.ToUpper(body)
	maxDepth, depth := 0, 0
	for i := 0; i < len(upper); i++ {
		switch upper[i] {
		case '(':
			j := i + 1
			for j < len(upper) && (upper[j] == ' ' || upper[j] == '\t' || upper[j] == '\r' || upper[j] == '\n') {
				j++
			}
			if j+6 <= len(upper) && upper[j:j+6] == "SELECT" {
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return maxDepth
}

func detectAntiPatterns(body string) []string {
	var patterns []string

	if selectStarPattern.MatchString(body) {
		patterns = append(patterns, "SELECT * usage - specify columns explicitly")
	}
	if nolockPattern.MatchString(body) {
		patterns = append(patterns, "NOLOCK hint - may cause dirty reads")
	}
	if cursorPattern.MatchString(body) {
		patterns = append(patterns, "Cursor usage - consider set-based operations")
	}
	if dynamicSQLPattern.MatchString(body) && !strings.Contains(strings.ToLower(body), "sp_executesql") {
		patterns = append(patterns, "Dynamic SQL with string concatenation - use sp_executesql with parameters")
	}

	return patterns
}

func extractParameters(body string) []Parameter {
	header := procHeaderParen.FindStringSubmatch(body)
	if header == nil {
		header = procHeaderBare.FindStringSubmatch(body)
	}
	if header == nil {
		return nil
	}

	var params []Parameter
	for _, m := range paramPattern.FindAllStringSubmatch(header[1], -1) {
		direction := "INPUT"
		if strings.Contains(strings.ToLower(m[0]), "output") {
			direction = "OUTPUT"
		}
		params = append(params, Parameter{
			Name:      "@" + m[1],
			Type:      strings.TrimSpace(m[2]),
			Direction: direction,
		})
	}
	return params
}

func complexityScore(r ParseResult) int {
	score := 0

	switch {
	case r.LineCount > 200:
		score += 20
	case r.LineCount > 100:
		score += 10
	case r.LineCount > 50:
		score += 5
	}

	score += min(r.JoinCount*3, 30)
	score += r.SubqueryDepth * 5

	if r.HasCursors {
		score += 15
	}
	if r.HasDynamicSQL {
		score += 10
	}
	if r.HasTempTables {
		score += 5
	}

	score += min(r.CaseCount*2, 10)

	switch tableCount := len(r.ReferencedTables); {
	case tableCount > 10:
		score += 15
	case tableCount > 5:
		score += 8
	}

	return score
}

func categorizeComplexity(score int) string {
	switch {
	case score >= 50:
		return ComplexityComplex
	case score >= 20:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
