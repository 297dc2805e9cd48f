package depgraph

import "sort"

// Clusters computes the weakly-connected components of the graph treated as
// undirected and returns those with more than one node. Each component is a
// lexicographically sorted name list; components are ordered by their first
// name. Singletons are dropped.
func Clusters(g *Graph) [][]string {
	visited := make(map[string]struct{})
	var clusters [][]string

	for _, start := range g.Nodes() {
		if _, ok := visited[start]; ok {
			continue
		}

		component := []string{}
		queue := []string{start}
		visited[start] = struct{}{}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			component = append(component, current)

			for _, next := range g.Successors(current) {
				if _, ok := visited[next]; !ok {
					visited[next] = struct{}{}
					queue = append(queue, next)
				}
			}
			for _, next := range g.Predecessors(current) {
				if _, ok := visited[next]; !ok {
					visited[next] = struct{}{}
					queue = append(queue, next)
				}
			}
		}

		if len(component) > 1 {
			sort.Strings(component)
			clusters = append(clusters, component)
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i][0] < clusters[j][0]
	})
	return clusters
}
