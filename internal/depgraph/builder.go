package depgraph

import "regexp"

// TableRecord is the slice of table metadata the graph needs.
type TableRecord struct {
	Schema string
	Name   string
}

// RoutineRecord describes a stored procedure or view with its SQL text.
// A missing body is treated as empty text.
type RoutineRecord struct {
	Schema string
	Name   string
	Body   string
}

// ForeignKeyRecord is a single FK constraint reduced to its table endpoints.
type ForeignKeyRecord struct {
	ParentTable     string
	ReferencedTable string
}

// Build constructs the dependency graph:
//
//  1. a node per table,
//  2. a node per stored procedure plus "references" edges to every table
//     whose name appears in its body,
//  3. a node per view plus "references" edges the same way,
//  4. a "foreign_key" edge per FK, parent to referenced, with no check that
//     either endpoint was registered as a table,
//  5. a "calls" edge for every procedure whose body mentions another
//     procedure's name.
func Build(tables []TableRecord, procs, views []RoutineRecord, fks []ForeignKeyRecord) *Graph {
	g := NewGraph()

	tableMatchers := make([]struct {
		name string
		re   *regexp.Regexp
	}, 0, len(tables))
	for _, t := range tables {
		g.AddNode(t.Name, KindTable, t.Schema)
		if t.Name != "" {
			tableMatchers = append(tableMatchers, struct {
				name string
				re   *regexp.Regexp
			}{t.Name, wordMatcher(t.Name)})
		}
	}

	for _, sp := range procs {
		g.AddNode(sp.Name, KindProcedure, sp.Schema)
		for _, tm := range tableMatchers {
			if sp.Body != "" && tm.re.MatchString(sp.Body) {
				g.AddEdge(sp.Name, tm.name, EdgeReferences)
			}
		}
	}

	for _, v := range views {
		g.AddNode(v.Name, KindView, v.Schema)
		for _, tm := range tableMatchers {
			if v.Body != "" && tm.re.MatchString(v.Body) {
				g.AddEdge(v.Name, tm.name, EdgeReferences)
			}
		}
	}

	for _, fk := range fks {
		if fk.ParentTable == "" || fk.ReferencedTable == "" {
			continue
		}
		g.AddEdge(fk.ParentTable, fk.ReferencedTable, EdgeForeignKey)
	}

	procMatchers := make(map[string]*regexp.Regexp, len(procs))
	for _, sp := range procs {
		if sp.Name != "" {
			procMatchers[sp.Name] = wordMatcher(sp.Name)
		}
	}
	for _, sp := range procs {
		if sp.Body == "" {
			continue
		}
		for other, re := range procMatchers {
			if other == sp.Name {
				continue
			}
			if re.MatchString(sp.Body) {
				g.AddEdge(sp.Name, other, EdgeCalls)
			}
		}
	}

	return g
}
