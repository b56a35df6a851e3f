package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/logging"
	"github.com/vanshika/routegraph/internal/seed"
)

// ErrInvalidInput marks requests rejected before they reach the graph.
var ErrInvalidInput = errors.New("invalid input")

// Graph is the engine contract required by the route service. *engine.Graph satisfies it.
type Graph interface {
	AddEdge(ctx context.Context, from, to string, cost float64, opts ...engine.EdgeOption) (engine.Edge, error)
	Find(name string) (engine.Node, error)
	ShortestPath(ctx context.Context, start, end string) (engine.WeightedPath, bool, error)
	Stats() (engine.Stats, error)
	Closed() bool
}

// RouteService normalises inbound requests and delegates them to the graph engine.
type RouteService struct {
	graph  Graph
	logger *slog.Logger
}

// NewRouteService constructs a RouteService. A nil logger discards output.
func NewRouteService(graph Graph, logger *slog.Logger) *RouteService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RouteService{
		graph:  graph,
		logger: logger.With("component", "route_service"),
	}
}

// AddEdge inserts one edge, creating its endpoints on first reference.
func (s *RouteService) AddEdge(ctx context.Context, input EdgeInput) (engine.Edge, error) {
	in := input.normalized()
	if in.From == "" || in.To == "" {
		return engine.Edge{}, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}

	edge, err := s.graph.AddEdge(ctx, in.From, in.To, in.Cost, engine.WithType(engine.RelType(in.Type)))
	if err != nil {
		return engine.Edge{}, err
	}
	s.logger.Debug("edge added", "id", edge.ID, "from", in.From, "to", in.To, "cost", edge.Cost)
	return edge, nil
}

// AddEdges inserts edges in order and stops at the first rejected one.
// It returns how many edges were inserted.
func (s *RouteService) AddEdges(ctx context.Context, inputs []EdgeInput) (int, error) {
	for i, in := range inputs {
		if _, err := s.AddEdge(ctx, in); err != nil {
			return i, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return len(inputs), nil
}

// ApplySeed adds every edge of def in order, cleaning names the same way AddEdge does.
// It stops at the first failure and returns how many edges were added.
func (s *RouteService) ApplySeed(ctx context.Context, def seed.Definition) (int, error) {
	n, err := s.AddEdges(ctx, EdgeInputsFromSeed(def.Edges))
	if err != nil {
		return n, fmt.Errorf("apply seed: %w", err)
	}
	return n, nil
}

// FindNode returns the node registered under name.
func (s *RouteService) FindNode(name string) (engine.Node, error) {
	name = sanitizeString(name)
	if name == "" {
		return engine.Node{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.graph.Find(name)
}

// ShortestPath finds the cheapest path between two named nodes.
func (s *RouteService) ShortestPath(ctx context.Context, from, to string) (PathResult, error) {
	from = sanitizeString(from)
	to = sanitizeString(to)
	if from == "" || to == "" {
		return PathResult{}, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}

	path, found, err := s.graph.ShortestPath(ctx, from, to)
	if err != nil {
		return PathResult{}, err
	}
	s.logger.Debug("shortest path computed", "from", from, "to", to, "found", found, "weight", path.Weight, "hops", path.Length())
	return PathResult{From: from, To: to, Found: found, Path: path}, nil
}

// Stats returns node and edge counts.
func (s *RouteService) Stats() (engine.Stats, error) {
	return s.graph.Stats()
}

// Ready reports whether the underlying graph still accepts requests.
func (s *RouteService) Ready() bool {
	return !s.graph.Closed()
}
