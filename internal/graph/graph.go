// Package graph implements the directed graph, traversals, and strongly
// connected component analysis behind the goal-funding reports.
package graph

import (
	"sort"

	"bilancio/internal/container"
)

// Graph is a directed graph over integer node ids with adjacency stored
// per node in edge-insertion order.
type Graph struct {
	adj map[int][]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[int][]int)}
}

// AddNode declares u with no outgoing edges. Declaring a known node is a
// no-op.
func (g *Graph) AddNode(u int) {
	if _, ok := g.adj[u]; !ok {
		g.adj[u] = nil
	}
}

// AddEdge adds the directed edge u -> v, declaring both endpoints as
// needed.
func (g *Graph) AddEdge(u, v int) {
	g.AddNode(v)
	g.adj[u] = append(g.adj[u], v)
}

// Neighbors returns the successors of u in edge-insertion order. Unknown
// nodes have no successors.
func (g *Graph) Neighbors(u int) []int {
	return g.adj[u]
}

// Nodes returns every declared node id in ascending order.
func (g *Graph) Nodes() []int {
	ids := make([]int, 0, len(g.adj))
	for u := range g.adj {
		ids = append(ids, u)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of declared nodes.
func (g *Graph) Len() int {
	return len(g.adj)
}

// BFS returns the nodes reachable from start in order of discovery,
// level by level. Each reachable node appears exactly once; start itself
// is always first.
func (g *Graph) BFS(start int) []int {
	visited := map[int]bool{start: true}
	order := make([]int, 0, len(g.adj))
	pending := container.NewQueue[int]()
	pending.Enqueue(start)
	for {
		u, ok := pending.Dequeue()
		if !ok {
			break
		}
		order = append(order, u)
		for _, v := range g.adj[u] {
			if !visited[v] {
				visited[v] = true
				pending.Enqueue(v)
			}
		}
	}
	return order
}

// DFS returns the nodes reachable from start in recursive depth-first
// preorder, descending into the first unvisited successor before
// backtracking.
func (g *Graph) DFS(start int) []int {
	visited := make(map[int]bool)
	order := make([]int, 0, len(g.adj))
	var walk func(u int)
	walk = func(u int) {
		visited[u] = true
		order = append(order, u)
		for _, v := range g.adj[u] {
			if !visited[v] {
				walk(v)
			}
		}
	}
	walk(start)
	return order
}

// DFSIterative produces the same preorder as DFS using an explicit stack
// instead of recursion, for graphs deep enough to threaten the call
// stack.
func (g *Graph) DFSIterative(start int) []int {
	visited := make(map[int]bool)
	order := make([]int, 0, len(g.adj))
	pending := container.NewStack[int]()
	pending.Push(start)
	for pending.Len() > 0 {
		u, err := pending.Pop()
		if err != nil {
			break
		}
		if visited[u] {
			continue
		}
		visited[u] = true
		order = append(order, u)
		// Successors go on in reverse so the first one is popped first,
		// matching the recursive order.
		succ := g.adj[u]
		for i := len(succ) - 1; i >= 0; i-- {
			if !visited[succ[i]] {
				pending.Push(succ[i])
			}
		}
	}
	return order
}
