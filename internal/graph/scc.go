package graph

import "sort"

// StronglyConnectedComponents partitions a directed graph into maximal
// strongly connected components using Kosaraju's two-pass algorithm: a
// depth-first pass recording finish order, then depth-first passes over
// the transposed graph in reverse finish order, each tree forming one
// component.
//
// The graph is given as an adjacency mapping. A node with no outgoing
// edges still belongs to the output when it appears as a key; a node
// referenced only as an edge target is treated as present with no
// declared successors. A node on no cycle forms a singleton component,
// and so does a node whose only cycle is a self-loop, so component size
// alone cannot distinguish self-loops; callers needing that must inspect
// the edges.
//
// Components are ordered by their smallest member, and members within a
// component ascend, so the partition is reproducible regardless of map
// iteration order.
func StronglyConnectedComponents(adj map[int][]int) [][]int {
	nodes := make(map[int]bool, len(adj))
	for u, succ := range adj {
		nodes[u] = true
		for _, v := range succ {
			nodes[v] = true
		}
	}
	ids := make([]int, 0, len(nodes))
	for u := range nodes {
		ids = append(ids, u)
	}
	sort.Ints(ids)

	// First pass: record finish order on the original edges.
	finish := make([]int, 0, len(ids))
	visited := make(map[int]bool, len(ids))
	var fill func(u int)
	fill = func(u int) {
		visited[u] = true
		for _, v := range adj[u] {
			if !visited[v] {
				fill(v)
			}
		}
		finish = append(finish, u)
	}
	for _, u := range ids {
		if !visited[u] {
			fill(u)
		}
	}

	// Second pass: walk the transpose in reverse finish order.
	rev := make(map[int][]int, len(ids))
	for u, succ := range adj {
		for _, v := range succ {
			rev[v] = append(rev[v], u)
		}
	}
	assigned := make(map[int]bool, len(ids))
	var gather func(u int, members *[]int)
	gather = func(u int, members *[]int) {
		assigned[u] = true
		*members = append(*members, u)
		for _, v := range rev[u] {
			if !assigned[v] {
				gather(v, members)
			}
		}
	}
	var comps [][]int
	for i := len(finish) - 1; i >= 0; i-- {
		u := finish[i]
		if assigned[u] {
			continue
		}
		var members []int
		gather(u, &members)
		sort.Ints(members)
		comps = append(comps, members)
	}
	sort.Slice(comps, func(i, j int) bool {
		return comps[i][0] < comps[j][0]
	})
	return comps
}
