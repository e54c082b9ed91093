// SPDX-License-Identifier: MPL-2.0

// Package dag orders element writes. A commit may create a parent and its
// children in the same batch, and the store must see every parent before
// any record that references it.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("reference cycle")

type (
	// CycleError reports the element ids left unordered by a reference cycle.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph of element ids. An edge from A to B means A
	// must be written before B.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order so the output is deterministic.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle between elements: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if g.nodeSet[id] {
		return
	}
	g.nodeSet[id] = true
	g.nodes = append(g.nodes, id)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	return g.nodeSet[id]
}

// AddEdge adds an edge meaning from must be written before to. Both nodes
// are added if missing.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// TopologicalSort returns a write order using Kahn's algorithm, or a
// CycleError. Nodes at the same level keep their insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return result, nil
}

// ParentFirst orders ids so that every id whose parent is also in ids comes
// after that parent. Parents outside ids impose no constraint.
func ParentFirst(ids []string, parentOf func(id string) (string, bool)) ([]string, error) {
	g := New()
	for _, id := range ids {
		g.AddNode(id)
	}
	for _, id := range ids {
		if parent, ok := parentOf(id); ok && g.Has(parent) {
			g.AddEdge(parent, id)
		}
	}
	return g.TopologicalSort()
}
