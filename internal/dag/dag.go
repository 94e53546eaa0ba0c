// SPDX-License-Identifier: MPL-2.0

// Package dag records the import graph of a composition. Nodes are package
// keys (plus one node for the root script) and an edge from A to B means A
// loads B. The graph detects import cycles and renders itself as DOT.
package dag

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type (
	// CycleError reports nodes that take part in, or sit behind, a cycle.
	CycleError struct {
		Nodes []string
	}

	// Edge is a directed edge of the graph.
	Edge struct {
		From string
		To   string
	}

	// Graph is a directed graph with deterministic iteration order.
	Graph struct {
		adjacency map[string][]string
		nodes     []string
		nodeSet   map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle among: %s", strings.Join(e.Nodes, ", "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds the edge from -> to, creating missing nodes. Repeated edges
// are stored once.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Edges returns the edges grouped by source node in insertion order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.nodes {
		for _, to := range g.adjacency[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// TopologicalSort orders the nodes so that every node precedes the nodes it
// loads (Kahn's algorithm, ties broken by insertion order). It returns a
// CycleError when no such order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, targets := range g.adjacency {
		for _, to := range targets {
			inDegree[to]++
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, to := range g.adjacency[node] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				stuck = append(stuck, node)
			}
		}
		return nil, &CycleError{Nodes: stuck}
	}
	return order, nil
}

// DOT renders the graph in Graphviz DOT syntax.
func (g *Graph) DOT(name string) string {
	var sb strings.Builder
	sb.WriteString("digraph " + strconv.Quote(name) + " {\n")
	sb.WriteString("\trankdir=LR;\n\tnode [shape=box];\n")
	for _, node := range g.nodes {
		sb.WriteString("\t" + strconv.Quote(node) + ";\n")
	}
	for _, e := range g.Edges() {
		sb.WriteString("\t" + strconv.Quote(e.From) + " -> " + strconv.Quote(e.To) + ";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
