package graph

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

// End is the terminal pseudo-node name.
const End = "__END__"

// NodeFunc mutates the state and optionally returns a routing decision.
// The decision is only consulted when the func is installed as the router
// of a conditional edge.
type NodeFunc[S any] func(ctx context.Context, state S) (S, string, error)

type edgeConfig[S any] struct {
	conditional    bool
	toNode         string
	routerFunc     NodeFunc[S]
	conditionalMap map[string]string
}

// Graph is a small state-machine runner: named nodes, plain or conditional
// edges, an entry point, and a step limit guarding against runaway cycles.
type Graph[S any] struct {
	nodes      map[string]NodeFunc[S]
	edges      map[string]edgeConfig[S]
	entryPoint string
	trace      bool
}

func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]edgeConfig[S]),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) {
	g.nodes[name] = fn
}

func (g *Graph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// WithTrace enables colored per-node execution logging.
func (g *Graph[S]) WithTrace(enabled bool) *Graph[S] {
	g.trace = enabled
	return g
}

func (g *Graph[S]) AddEdge(fromNode, toNode string) {
	g.edges[fromNode] = edgeConfig[S]{
		toNode: toNode,
	}
}

// AddConditionalEdges routes from fromNode using routerFunc's decision,
// mapped through conditionalMap to the next node name.
func (g *Graph[S]) AddConditionalEdges(fromNode string, routerFunc NodeFunc[S], conditionalMap map[string]string) {
	g.edges[fromNode] = edgeConfig[S]{
		conditional:    true,
		routerFunc:     routerFunc,
		conditionalMap: conditionalMap,
	}
}

// Execute runs the graph from the entry point until End or maxSteps.
// Node and router errors abort the run and propagate wrapped, so typed
// errors (routing, gateway, validation) survive for errors.As.
func (g *Graph[S]) Execute(ctx context.Context, initialState S, maxSteps int) (S, error) {
	currentState := initialState
	current := g.entryPoint

	if _, ok := g.nodes[current]; !ok {
		return currentState, fmt.Errorf("entry point node %q not found", current)
	}

	for step := 0; step < maxSteps; step++ {
		if current == End {
			return currentState, nil
		}

		nodeFunc, ok := g.nodes[current]
		if !ok {
			return currentState, fmt.Errorf("node %q not found in graph definition", current)
		}

		if g.trace {
			color.Cyan("--- node: %s ---", current)
		}

		updatedState, _, err := nodeFunc(ctx, currentState)
		if err != nil {
			return currentState, fmt.Errorf("node %q: %w", current, err)
		}
		currentState = updatedState

		edge, ok := g.edges[current]
		if !ok {
			// No outgoing edge means the path ends here.
			return currentState, nil
		}

		if edge.conditional {
			_, decision, err := edge.routerFunc(ctx, currentState)
			if err != nil {
				return currentState, fmt.Errorf("router of %q: %w", current, err)
			}
			next, ok := edge.conditionalMap[decision]
			if !ok {
				return currentState, fmt.Errorf("conditional edge from %q has no mapping for decision %q", current, decision)
			}
			if g.trace {
				color.Yellow("    route: %s -> %s", decision, next)
			}
			current = next
		} else {
			current = edge.toNode
		}
	}

	return currentState, fmt.Errorf("workflow exceeded %d steps without reaching end", maxSteps)
}
