// Package graph provides the scheduling view of a compiled plan: which steps
// are ready, which have completed, and in what layers they can run.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the step graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph represents a directed acyclic graph of plan steps.
// Steps are nodes, and edges represent "waits on" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps step index to the step itself.
	nodes map[int]models.TaskNode
	// edges maps step index to the indices it waits on.
	edges map[int][]int
	// completed tracks which steps have been marked complete.
	completed map[int]bool
	// debugLog is an optional logging function.
	debugLog func(format string, args ...any)
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[int]models.TaskNode),
		edges:     make(map[int][]int),
		completed: make(map[int]bool),
		debugLog:  func(format string, args ...any) {}, // no-op by default
	}
}

// FromTaskGraph builds a scheduling graph from a compiled plan.
func FromTaskGraph(tg *models.TaskGraph) (*DependencyGraph, error) {
	g := New()
	if tg == nil {
		return g, nil
	}
	if err := g.Build(tg.Nodes); err != nil {
		return nil, err
	}
	return g, nil
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...any)) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build adds the given nodes to the graph.
// Returns an error if a cycle is detected or a predecessor references an unknown step.
func (g *DependencyGraph) Build(nodes []models.TaskNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d steps", len(nodes))

	for _, n := range nodes {
		idx := n.Index()
		if _, dup := g.nodes[idx]; dup {
			return fmt.Errorf("step %d added twice", idx)
		}
		g.nodes[idx] = n
		g.edges[idx] = nil
	}

	for _, n := range nodes {
		for _, dep := range n.Predecessors {
			if _, exists := g.nodes[dep]; !exists {
				return fmt.Errorf("step %d depends on unknown step %d", n.Index(), dep)
			}
			g.edges[n.Index()] = append(g.edges[n.Index()], dep)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}

	g.debugLog("[graph.Build] graph built with %d nodes, edges: %v", len(g.nodes), g.edges)
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked assumes the lock is held.
// Depth-first search with coloring: 0 unvisited, 1 in progress, 2 done.
func (g *DependencyGraph) hasCycleLocked() bool {
	colors := make(map[int]int, len(g.nodes))

	var visit func(idx int) bool
	visit = func(idx int) bool {
		colors[idx] = 1
		for _, dep := range g.edges[idx] {
			switch colors[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		colors[idx] = 2
		return false
	}

	for _, idx := range g.sortedLocked() {
		if colors[idx] == 0 && visit(idx) {
			return true
		}
	}
	return false
}

// TopologicalSort returns step indices so that every step comes after the
// steps it waits on. Ties are broken by ascending index.
func (g *DependencyGraph) TopologicalSort() ([]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[int]bool, len(g.nodes))
	result := make([]int, 0, len(g.nodes))

	var visit func(idx int)
	visit = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		for _, dep := range g.edges[idx] {
			visit(dep)
		}
		result = append(result, idx)
	}

	for _, idx := range g.sortedLocked() {
		visit(idx)
	}
	return result, nil
}

// Waves groups steps into execution layers. Every step in a wave depends
// only on steps in earlier waves, so the steps of one wave can run in parallel.
func (g *DependencyGraph) Waves() ([][]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	level := make(map[int]int, len(g.nodes))
	var depth func(idx int) int
	depth = func(idx int) int {
		if l, ok := level[idx]; ok {
			return l
		}
		l := 0
		for _, dep := range g.edges[idx] {
			if d := depth(dep) + 1; d > l {
				l = d
			}
		}
		level[idx] = l
		return l
	}

	var waves [][]int
	for _, idx := range g.sortedLocked() {
		l := depth(idx)
		for len(waves) <= l {
			waves = append(waves, nil)
		}
		waves[l] = append(waves[l], idx)
	}
	return waves, nil
}

// Ready returns the steps whose predecessors have all completed and which are
// not completed themselves, in ascending order.
func (g *DependencyGraph) Ready() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []int
	for _, idx := range g.sortedLocked() {
		if g.completed[idx] {
			continue
		}
		blocked := false
		for _, dep := range g.edges[idx] {
			if !g.completed[dep] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, idx)
		}
	}

	g.debugLog("[graph.Ready] %d ready steps: %v", len(ready), ready)
	return ready
}

// MarkComplete marks a step as completed.
// This affects subsequent calls to Ready.
func (g *DependencyGraph) MarkComplete(idx int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[idx]; !ok {
		return fmt.Errorf("mark complete: unknown step %d", idx)
	}
	g.completed[idx] = true
	g.debugLog("[graph.MarkComplete] step %d complete (%d/%d)", idx, len(g.completed), len(g.nodes))
	return nil
}

// Done returns true once every step has been marked complete.
func (g *DependencyGraph) Done() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.completed) == len(g.nodes)
}

// Node returns the step with the given index.
func (g *DependencyGraph) Node(idx int) (models.TaskNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[idx]
	return n, ok
}

// Size returns the number of steps in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the indices the given step waits on.
func (g *DependencyGraph) Dependencies(idx int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]int(nil), g.edges[idx]...)
}

// Dependents returns the indices of the steps that wait on the given step.
func (g *DependencyGraph) Dependents(idx int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []int
	for _, id := range g.sortedLocked() {
		for _, dep := range g.edges[id] {
			if dep == idx {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}

// Completed returns the indices of all completed steps in ascending order.
func (g *DependencyGraph) Completed() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []int
	for idx, done := range g.completed {
		if done {
			ids = append(ids, idx)
		}
	}
	sort.Ints(ids)
	return ids
}

func (g *DependencyGraph) sortedLocked() []int {
	ids := make([]int, 0, len(g.nodes))
	for idx := range g.nodes {
		ids = append(ids, idx)
	}
	sort.Ints(ids)
	return ids
}
