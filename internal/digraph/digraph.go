// Package digraph orders named entities that reference each other.
package digraph

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is a directed graph where each node lists the nodes it depends on.
// Nodes and edges are iterated in registration order, so results are
// deterministic.
type Graph[K comparable] struct {
	order []K
	deps  map[K][]K
	seen  map[K]map[K]struct{}
}

func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		deps: make(map[K][]K),
		seen: make(map[K]map[K]struct{}),
	}
}

// Add registers node with the given dependencies. Dependencies registered
// earlier for the same node are kept; unseen dependencies become nodes
// without dependencies of their own.
func (g *Graph[K]) Add(node K, deps ...K) {
	g.ensure(node)
	set := g.seen[node]
	for _, d := range deps {
		if _, dup := set[d]; dup {
			continue
		}
		set[d] = struct{}{}
		g.deps[node] = append(g.deps[node], d)
	}
	for _, d := range deps {
		g.ensure(d)
	}
}

func (g *Graph[K]) ensure(node K) {
	if _, ok := g.seen[node]; ok {
		return
	}
	g.seen[node] = make(map[K]struct{})
	g.order = append(g.order, node)
}

// Len returns the number of registered nodes.
func (g *Graph[K]) Len() int { return len(g.order) }

// Dependencies returns the registered dependencies of node.
func (g *Graph[K]) Dependencies(node K) []K {
	return append([]K(nil), g.deps[node]...)
}

// TopologicalSort returns every node after all of its dependencies. Nodes
// are ranked by depth (a node without dependencies has depth 0, any other
// node is one deeper than its deepest dependency) and ties keep
// registration order. A cycle yields a *CycleError.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	depth := make(map[K]int, len(g.order))
	for _, n := range g.order {
		if _, err := g.visit(n, []K{n}, depth); err != nil {
			return nil, err
		}
	}

	out := append([]K(nil), g.order...)
	sort.SliceStable(out, func(i, j int) bool {
		return depth[out[i]] < depth[out[j]]
	})
	return out, nil
}

// visit computes the depth of node. chain holds the current ancestor path,
// node included.
func (g *Graph[K]) visit(node K, chain []K, depth map[K]int) (int, error) {
	if d, ok := depth[node]; ok {
		return d, nil
	}

	d := 0
	for _, dep := range g.deps[node] {
		for i, anc := range chain {
			if anc == dep {
				members := append([]K(nil), chain[i:]...)
				return 0, &CycleError[K]{Members: members}
			}
		}
		dd, err := g.visit(dep, append(chain[:len(chain):len(chain)], dep), depth)
		if err != nil {
			return 0, err
		}
		if dd+1 > d {
			d = dd + 1
		}
	}
	depth[node] = d
	return d, nil
}

// CycleError reports a dependency cycle. Members runs from the first
// occurrence of the repeated node to the node at which it was detected.
type CycleError[K comparable] struct {
	Members []K
}

func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Members))
	for i, m := range e.Members {
		parts[i] = fmt.Sprint(m)
	}
	return "cycle detected: " + strings.Join(parts, " -> ")
}
