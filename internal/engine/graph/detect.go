package graph

import "sort"

// topoSort orders nodes so that every node comes after the nodes it extends
// from, breaking ties alphabetically. When the relation has a cycle the
// returned order is nil and cycle holds one offending loop.
func topoSort(nodes []string, extendsFrom map[string][]string) (order []string, cycle []string) {
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		indegree[n] += 0
		for _, up := range extendsFrom[n] {
			indegree[n]++
			dependents[up] = append(dependents[up], n)
		}
	}

	var ready []string
	for _, n := range nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	for len(ready) > 0 {
		curr := ready[0]
		ready = ready[1:]
		order = append(order, curr)

		for _, next := range dependents[curr] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		sort.Strings(ready)
	}

	if len(order) == len(nodes) {
		return order, nil
	}
	return nil, findCycle(nodes, extendsFrom)
}

// findCycle returns the first loop reached by a depth-first walk in
// alphabetical order, closed with its starting node.
func findCycle(nodes []string, extendsFrom map[string][]string) []string {
	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)

	visited := make(map[string]bool, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var found []string

	var walk func(curr string, path []string) bool
	walk = func(curr string, path []string) bool {
		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)

		for _, next := range extendsFrom[curr] {
			if onStack[next] {
				for i, n := range path {
					if n == next {
						found = append(append([]string(nil), path[i:]...), next)
						return true
					}
				}
			}
			if !visited[next] && walk(next, path) {
				return true
			}
		}
		onStack[curr] = false
		return false
	}

	for _, n := range sorted {
		if !visited[n] && walk(n, nil) {
			return found
		}
	}
	return nil
}
