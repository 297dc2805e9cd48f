// Package depgraph builds and analyzes the dependency graph of a database:
// tables, views, and stored procedures linked by foreign key, textual
// reference, and call edges. It supports cycle enumeration, criticality
// ranking, cluster detection, hotspot detection, and impact analysis.
//
// Known quirk: foreign keys are added without checking that their endpoints
// were registered as tables. A FK that points at a table with no metadata
// record implicitly creates a node whose kind reports as "unknown".
package depgraph

import "sort"

// NodeKind classifies a graph node.
type NodeKind string

const (
	KindTable     NodeKind = "table"
	KindProcedure NodeKind = "procedure"
	KindView      NodeKind = "view"
	KindUnknown   NodeKind = "unknown"
)

// EdgeKind classifies a dependency edge.
type EdgeKind string

const (
	EdgeForeignKey EdgeKind = "foreign_key"
	EdgeReferences EdgeKind = "references"
	EdgeCalls      EdgeKind = "calls"
)

type node struct {
	kind   NodeKind
	schema string
}

type edgeKey struct {
	source string
	target string
	kind   EdgeKind
}

// Edge is a single directed, typed dependency.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"type"`
}

// Graph is a directed multigraph over named schema objects. Edges between
// the same ordered pair with different kinds are distinct; inserting the
// same (source, target, kind) twice is a no-op.
type Graph struct {
	nodes map[string]*node
	edges map[edgeKey]struct{}
	succ  map[string]map[string]struct{}
	pred  map[string]map[string]struct{}
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
		edges: make(map[edgeKey]struct{}),
		succ:  make(map[string]map[string]struct{}),
		pred:  make(map[string]map[string]struct{}),
	}
}

// AddNode registers a node. Re-registering an existing name overwrites its
// kind and schema (last write wins), mirroring how a table and a procedure
// sharing a name collapse into one node.
func (g *Graph) AddNode(name string, kind NodeKind, schema string) {
	if n, ok := g.nodes[name]; ok {
		n.kind = kind
		n.schema = schema
		return
	}
	g.nodes[name] = &node{kind: kind, schema: schema}
}

// ensureNode creates a node with unknown kind if the name is not yet
// registered. Used for foreign key endpoints that have no table record.
func (g *Graph) ensureNode(name string) {
	if _, ok := g.nodes[name]; !ok {
		g.nodes[name] = &node{kind: KindUnknown}
	}
}

// AddEdge inserts a typed edge. Endpoints missing from the graph are
// implicitly created with unknown kind. Duplicate inserts of the same
// (source, target, kind) are idempotent.
func (g *Graph) AddEdge(source, target string, kind EdgeKind) {
	g.ensureNode(source)
	g.ensureNode(target)

	key := edgeKey{source: source, target: target, kind: kind}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}

	if g.succ[source] == nil {
		g.succ[source] = make(map[string]struct{})
	}
	g.succ[source][target] = struct{}{}
	if g.pred[target] == nil {
		g.pred[target] = make(map[string]struct{})
	}
	g.pred[target][source] = struct{}{}
}

// HasNode reports whether a node exists.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Kind returns the node's kind, or KindUnknown for unregistered names.
func (g *Graph) Kind(name string) NodeKind {
	if n, ok := g.nodes[name]; ok {
		return n.kind
	}
	return KindUnknown
}

// Schema returns the node's schema attribute.
func (g *Graph) Schema(name string) string {
	if n, ok := g.nodes[name]; ok {
		return n.schema
	}
	return ""
}

// Nodes returns all node names in lexicographic order.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns all edges sorted by (source, target, kind).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for key := range g.edges {
		edges = append(edges, Edge{Source: key.source, Target: key.target, Kind: key.kind})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Kind < edges[j].Kind
	})
	return edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of typed edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// InDegree counts incoming edges, with parallel edges of different kinds
// counted separately.
func (g *Graph) InDegree(name string) int {
	count := 0
	for key := range g.edges {
		if key.target == name {
			count++
		}
	}
	return count
}

// OutDegree counts outgoing edges, with parallel edges of different kinds
// counted separately.
func (g *Graph) OutDegree(name string) int {
	count := 0
	for key := range g.edges {
		if key.source == name {
			count++
		}
	}
	return count
}

// Predecessors returns the distinct nodes with an edge into name, sorted.
func (g *Graph) Predecessors(name string) []string {
	return sortedKeys(g.pred[name])
}

// Successors returns the distinct nodes name has an edge to, sorted.
func (g *Graph) Successors(name string) []string {
	return sortedKeys(g.succ[name])
}

// Ancestors returns the distinct nodes with a directed path to name,
// excluding name itself.
func (g *Graph) Ancestors(name string) []string {
	seen := make(map[string]struct{})
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for p := range g.pred[current] {
			if p == name {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
