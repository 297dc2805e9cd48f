// Package sqltext performs regex-based analysis of SQL routine bodies:
// table references, CRUD targets, complexity metrics, and anti-patterns.
// It is heuristic by design and works on both T-SQL and PostgreSQL text.
package sqltext

import (
	"regexp"
	"strings"
)

var (
	// tableRefPattern matches table names after FROM, INTO, or UPDATE,
	// with an optional schema qualifier and optional brackets.
	tableRefPattern = regexp.MustCompile(`(?i)(?:FROM|INTO|UPDATE)\s+(?:\[?(\w+)\]?\.)?(\[?\w+\]?)`)

	// joinPattern matches all join types.
	joinPattern = regexp.MustCompile(`(?i)(?:INNER|LEFT|RIGHT|FULL|CROSS)?\s*JOIN\s+(?:\[?(\w+)\]?\.)?(\[?\w+\]?)`)

	selectFromPattern = regexp.MustCompile(`(?i)FROM\s+(?:\[?\w+\]?\.)?\[?(\w+)\]?`)
	insertPattern     = regexp.MustCompile(`(?i)INSERT\s+INTO\s+(?:\[?\w+\]?\.)?\[?(\w+)\]?`)
	updatePattern     = regexp.MustCompile(`(?i)UPDATE\s+(?:\[?\w+\]?\.)?\[?(\w+)\]?`)
	deletePattern     = regexp.MustCompile(`(?i)DELETE\s+(?:FROM\s+)?(?:\[?\w+\]?\.)?\[?(\w+)\]?`)

	cursorPattern     = regexp.MustCompile(`(?i)\bDECLARE\s+\w+\s+CURSOR\b|\bOPEN\s+\w+|\bFETCH\s+(?:NEXT\s+)?FROM\b`)
	dynamicSQLPattern = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s*\(\s*(?:@\w+|['"])|EXEC\s+(?:sp_executesql\s+)?@`)
	tempTablePattern  = regexp.MustCompile(`(?i)(?:CREATE\s+TABLE\s+)?#\w+|DECLARE\s+@\w+\s+TABLE`)
	casePattern       = regexp.MustCompile(`(?i)\bCASE\b`)

	selectStarPattern = regexp.MustCompile(`(?i)\bSELECT\s+\*\s+FROM\b`)
	nolockPattern     = regexp.MustCompile(`(?i)\bWITH\s*\(\s*NOLOCK\s*\)|\bNOLOCK\b`)

	// fkNamingPattern recognizes implicit FK columns like StudentId,
	// student_id, or StudentID.
	fkNamingPattern = regexp.MustCompile(`(\w+)(?:Id|_id|ID)$`)

	paramPattern = regexp.MustCompile(`(?i)@(\w+)\s+([\w(),\s]+?)(?:\s*=\s*[^,\n]+)?(?:\s+OUTPUT|\s+OUT)?\s*(?:,|AS\b|\))`)

	procHeaderParen = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+ALTER\s+)?PROC(?:EDURE)?\s+[\w.\[\]]+\s*\((.*?)\)\s*AS`)
	procHeaderBare  = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+ALTER\s+)?PROC(?:EDURE)?\s+[\w.\[\]]+\s+(.*?)\s+AS\b`)
)

// FKTargetColumn returns the base name of a column that follows the
// implicit foreign-key naming convention (StudentId -> Student), or ""
// when the column does not match.
func FKTargetColumn(column string) string {
	m := fkNamingPattern.FindStringSubmatch(column)
	if m == nil {
		return ""
	}
	return m[1]
}

var sqlKeywords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "insert": {}, "into": {},
	"update": {}, "delete": {}, "join": {}, "inner": {}, "outer": {},
	"left": {}, "right": {}, "cross": {}, "on": {}, "and": {}, "or": {},
	"not": {}, "in": {}, "exists": {}, "between": {}, "like": {}, "is": {},
	"null": {}, "set": {}, "values": {}, "as": {}, "begin": {}, "end": {},
	"if": {}, "else": {}, "while": {}, "return": {}, "declare": {},
	"exec": {}, "execute": {}, "create": {}, "alter": {}, "drop": {},
	"table": {}, "procedure": {}, "function": {}, "view": {}, "index": {},
	"trigger": {}, "grant": {}, "revoke": {}, "commit": {}, "rollback": {},
	"transaction": {}, "group": {}, "order": {}, "by": {}, "having": {},
	"union": {}, "all": {}, "distinct": {}, "top": {}, "limit": {},
	"offset": {}, "fetch": {}, "next": {}, "rows": {}, "only": {},
	"case": {}, "when": {}, "then": {}, "cast": {}, "convert": {},
	"coalesce": {},
}

// isSQLKeyword reports whether a captured token is a SQL keyword rather
// than a table name.
func isSQLKeyword(token string) bool {
	_, ok := sqlKeywords[strings.ToLower(token)]
	return ok
}
