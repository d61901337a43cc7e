package digraph_test

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/nalgeon/be"

	"falafel/internal/digraph"
)

func indexOf(sorted []int, v int) int {
	return slices.Index(sorted, v)
}

func TestTopologicalSortWikipediaExample(t *testing.T) {
	edges := map[int][]int{
		5:  nil,
		7:  nil,
		3:  nil,
		11: {5, 7},
		8:  {7, 3},
		2:  {11},
		9:  {11, 8},
		10: {11, 3},
	}
	keys := []int{5, 7, 3, 11, 8, 2, 9, 10}

	for round := 0; round < 20; round++ {
		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

		g := digraph.New[int]()
		for _, k := range keys {
			g.Add(k, edges[k]...)
		}

		sorted, err := g.TopologicalSort()
		be.Err(t, err, nil)
		be.Equal(t, len(sorted), len(keys))

		for node, deps := range edges {
			for _, d := range deps {
				if indexOf(sorted, d) >= indexOf(sorted, node) {
					t.Fatalf("order %v: %d must precede %d", sorted, d, node)
				}
			}
		}
	}
}

func TestTopologicalSortReportsCycle(t *testing.T) {
	g := digraph.New[int]()
	g.Add(1, 2, 3)
	g.Add(3, 4)
	g.Add(4, 1)

	_, err := g.TopologicalSort()
	var cycle *digraph.CycleError[int]
	be.True(t, errors.As(err, &cycle))
	be.Equal(t, cycle.Members, []int{1, 3, 4})
	be.Err(t, err, "cycle detected: 1 -> 3 -> 4")
}

func TestSelfDependencyIsACycle(t *testing.T) {
	g := digraph.New[string]()
	g.Add("A", "A")

	_, err := g.TopologicalSort()
	var cycle *digraph.CycleError[string]
	be.True(t, errors.As(err, &cycle))
	be.Equal(t, cycle.Members, []string{"A"})
}

func TestAddExtendsDependencies(t *testing.T) {
	g := digraph.New[string]()
	g.Add("C", "A")
	g.Add("C", "B", "A")
	be.Equal(t, g.Dependencies("C"), []string{"A", "B"})
	be.Equal(t, g.Len(), 3)

	sorted, err := g.TopologicalSort()
	be.Err(t, err, nil)
	be.Equal(t, sorted, []string{"A", "B", "C"})
}

func TestMemoizedDepthsAreUsed(t *testing.T) {
	// D is reached through B first, then again through C; C must still be
	// ranked after D.
	g := digraph.New[string]()
	g.Add("A", "B", "C")
	g.Add("B", "D")
	g.Add("C", "D")
	g.Add("D", "E")

	sorted, err := g.TopologicalSort()
	be.Err(t, err, nil)
	be.Equal(t, sorted, []string{"E", "D", "B", "C", "A"})
}
