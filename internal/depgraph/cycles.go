package depgraph

import "sort"

// FindCycles enumerates every simple cycle of length >= 2 in the graph,
// using Johnson's circuit-finding search anchored at the smallest node of
// each cycle so every cycle is reported exactly once. Pure self-loops are
// filtered out. An acyclic or empty graph yields no cycles.
func FindCycles(g *Graph) [][]string {
	names := g.Nodes()
	idx := make(map[string]int, len(names))
	for i, name := range names {
		idx[name] = i
	}
	adj := make([][]int, len(names))
	for i, name := range names {
		succs := g.Successors(name)
		adj[i] = make([]int, 0, len(succs))
		for _, s := range succs {
			adj[i] = append(adj[i], idx[s])
		}
		sort.Ints(adj[i])
	}

	var cycles [][]string
	blocked := make([]bool, len(names))
	blockMap := make([]map[int]struct{}, len(names))
	var stack []int

	var unblock func(v int)
	unblock = func(v int) {
		blocked[v] = false
		for w := range blockMap[v] {
			delete(blockMap[v], w)
			if blocked[w] {
				unblock(w)
			}
		}
	}

	for start := 0; start < len(names); start++ {
		for i := range blocked {
			blocked[i] = false
			blockMap[i] = make(map[int]struct{})
		}

		var circuit func(v int) bool
		circuit = func(v int) bool {
			found := false
			stack = append(stack, v)
			blocked[v] = true

			for _, w := range adj[v] {
				if w < start {
					// Cycles through smaller nodes were found in earlier rounds.
					continue
				}
				if w == start {
					if len(stack) >= 2 {
						cycle := make([]string, len(stack))
						for i, u := range stack {
							cycle[i] = names[u]
						}
						cycles = append(cycles, cycle)
					}
					found = true
				} else if !blocked[w] {
					if circuit(w) {
						found = true
					}
				}
			}

			if found {
				unblock(v)
			} else {
				for _, w := range adj[v] {
					if w < start {
						continue
					}
					blockMap[w][v] = struct{}{}
				}
			}

			stack = stack[:len(stack)-1]
			return found
		}
		circuit(start)
	}

	return cycles
}
