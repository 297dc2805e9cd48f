package depgraph

import "regexp"

// References reports whether name appears in body as a case-insensitive
// whole-word match. The name is matched literally; regex metacharacters in
// it carry no special meaning. Empty name or body never match.
//
// This is deliberately a textual heuristic, not a SQL parser: a table name
// inside a string literal or comment still counts as a reference. Dead-code
// and dependency results depend on this exact behavior.
func References(name, body string) bool {
	if name == "" || body == "" {
		return false
	}
	return wordMatcher(name).MatchString(body)
}

// wordMatcher compiles the whole-word pattern for a literal name.
// Build compiles each name once and reuses the matcher across bodies.
func wordMatcher(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}
