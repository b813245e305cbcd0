// Package orchestrator drives the decision graph: researcher, validator,
// bull, bear, analyzer, risk, privacy, optimizer, decide, with conditional
// re-entry controlled by two router functions. The graph is represented
// as data (a table of nodes and their transition rule) and interpreted by
// a small runner, rather than as a dynamically dispatched call chain —
// this is the re-architecture the specification calls for in place of
// the donor's LangGraph StateGraph.
//
// Node bodies are grounded on original_source/core/agents/orchestrator.py
// and its constituent agents; the ambient wiring (structured logging,
// Prometheus metrics, NATS decision publication, graceful shutdown) is
// grounded on ajitpratap0-cryptofunk/internal/orchestrator/orchestrator.go.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cryptofunk/engine/internal/state"
)

// NodeFunc performs one stage of the decision graph and returns a Patch
// to merge into the shared state.
type NodeFunc func(ctx context.Context, deps *Deps, s *state.DecisionState) (state.Patch, error)

// RouteFunc decides the next node name (or "END") after a node runs.
type RouteFunc func(s *state.DecisionState) string

type nodeEntry struct {
	name string
	fn   NodeFunc
	next RouteFunc
}

const endNode = "END"

// maxGraphSteps bounds total node executions across all iterations, a
// backstop independent of MaxIterations in case a router misbehaves.
const maxGraphSteps = 100

// staticNext returns a RouteFunc that always proceeds to the same node.
func staticNext(nodeName string) RouteFunc {
	return func(*state.DecisionState) string { return nodeName }
}

// Graph is the full node/edge table for the decision engine.
type Graph struct {
	nodes map[string]nodeEntry
	start string
}

// NewGraph builds the nine-node decision graph with the topology from
// spec §9: researcher -> validator -> {re_research: researcher, proceed:
// bull} -> bear -> analyzer -> risk -> privacy -> optimizer -> decide ->
// {iterate|refine_research: researcher, end: END}.
func NewGraph() *Graph {
	g := &Graph{nodes: make(map[string]nodeEntry), start: "researcher"}
	g.add("researcher", researcherNode, staticNext("validator"))
	g.add("validator", validatorNode, validationRouter)
	g.add("bull", bullNode, staticNext("bear"))
	g.add("bear", bearNode, staticNext("analyzer"))
	g.add("analyzer", analyzerNode, staticNext("risk"))
	g.add("risk", riskNode, staticNext("privacy"))
	g.add("privacy", privacyNode, staticNext("optimizer"))
	g.add("optimizer", optimizerNode, staticNext("decide"))
	g.add("decide", decideNode, continuationRouter)
	return g
}

func (g *Graph) add(name string, fn NodeFunc, next RouteFunc) {
	g.nodes[name] = nodeEntry{name: name, fn: fn, next: next}
}

// Engine runs a Graph against a DecisionState, logging and publishing
// each tick's outcome.
type Engine struct {
	graph *Graph
	deps  *Deps
	log   zerolog.Logger
	metrics *Metrics
}

// NewEngine constructs an Engine with the standard nine-node graph.
func NewEngine(deps *Deps) *Engine {
	return &Engine{
		graph:   NewGraph(),
		deps:    deps,
		log:     log.With().Str("component", "orchestrator_engine").Logger(),
		metrics: newMetrics(),
	}
}

// Run drives s through the graph from "researcher" until a node routes to
// "END", applying each node's Patch in turn. A node error is recorded on
// the state's messages and treated as a routed continuation rather than
// aborting the run, matching the original's per-node try/except that
// defaults to a neutral outcome instead of crashing the whole decision.
func (e *Engine) Run(ctx context.Context, s *state.DecisionState) (*state.DecisionState, error) {
	current := e.graph.start
	steps := 0

	for current != endNode {
		steps++
		if steps > maxGraphSteps {
			return s, fmt.Errorf("orchestrator: exceeded %d graph steps for symbol %s", maxGraphSteps, s.Symbol)
		}

		entry, ok := e.graph.nodes[current]
		if !ok {
			return s, fmt.Errorf("orchestrator: unknown node %q", current)
		}

		patch, err := entry.fn(ctx, e.deps, s)
		if err != nil {
			e.log.Error().Err(err).Str("node", current).Str("symbol", s.Symbol).Msg("node failed")
			errMsg := state.Message{Role: current, Content: "error: " + err.Error()}
			patch.Message = &errMsg
		}
		s.Apply(patch)
		e.metrics.recordNode(current, err == nil)

		current = entry.next(s)
	}

	e.metrics.recordDecision(s)
	if e.deps != nil && e.deps.Publisher != nil {
		if err := e.deps.Publisher.PublishDecision(ctx, s); err != nil {
			e.log.Warn().Err(err).Msg("failed to publish decision")
		}
	}

	return s, nil
}
