// Package engine implements an in-memory weighted graph with a unique name
// index and Dijkstra shortest-path queries.
//
// A Graph is safe for concurrent use. Mutations take an exclusive lock over
// the node store and the name index together; queries share a read lock and
// therefore always see a consistent snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/vanshika/routegraph/internal/logging"
)

// Persister records graph mutations durably so a later Open can rebuild the same state.
type Persister interface {
	// PersistMutation stores the nodes created by one mutation and, when edge is
	// non-nil, the edge joining them. It applies all of them or none.
	PersistMutation(ctx context.Context, nodes []Node, edge *Edge) error
	LoadAll(ctx context.Context) ([]Node, []Edge, error)
}

// Graph owns all nodes and edges and the index from names to nodes.
type Graph struct {
	mu        sync.RWMutex
	store     *store
	index     *nameIndex
	persister Persister
	expander  Expander
	logger    *slog.Logger
	closed    bool
}

// Open builds a Graph, loading any state held by the configured Persister.
func Open(ctx context.Context, opts ...Option) (*Graph, error) {
	g := &Graph{
		store:    newStore(),
		index:    newNameIndex(),
		expander: DefaultExpander(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.persister != nil {
		if err := g.load(ctx); err != nil {
			return nil, err
		}
	}

	st := g.store.stats()
	g.logger.Info("graph opened", "nodes", st.Nodes, "edges", st.Edges, "persistent", g.persister != nil)
	return g, nil
}

func (g *Graph) load(ctx context.Context) error {
	nodes, edges, err := g.persister.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		if n.ID <= 0 || n.Name == "" {
			return fmt.Errorf("%w: node %d has no identifier or name", ErrCorruptState, n.ID)
		}
		if _, dup := g.store.node(n.ID); dup {
			return fmt.Errorf("%w: duplicate node id %d", ErrCorruptState, n.ID)
		}
		if !g.index.register(n.Name, n.ID) {
			return fmt.Errorf("%w: name %q bound to more than one node", ErrCorruptState, n.Name)
		}
		node := newNode(n.ID, n.Name)
		for k, v := range n.Properties {
			if k != NameProperty {
				node.Properties[k] = v
			}
		}
		g.store.addNode(node)
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	var last EdgeID
	for _, e := range edges {
		if e.ID <= last {
			return fmt.Errorf("%w: duplicate or invalid edge id %d", ErrCorruptState, e.ID)
		}
		last = e.ID
		if _, ok := g.store.node(e.From); !ok {
			return fmt.Errorf("%w: edge %d starts at unknown node %d", ErrCorruptState, e.ID, e.From)
		}
		if _, ok := g.store.node(e.To); !ok {
			return fmt.Errorf("%w: edge %d ends at unknown node %d", ErrCorruptState, e.ID, e.To)
		}
		if err := validateCost(e.Cost); err != nil {
			return fmt.Errorf("%w: edge %d: %v", ErrCorruptState, e.ID, err)
		}
		edge := e
		if edge.Type == "" {
			edge.Type = DefaultRelType
		}
		g.store.addEdge(&edge)
	}
	return nil
}

// Close shuts the graph down. It waits for running queries; later calls fail with ErrClosed.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.logger.Info("graph closed")
	return nil
}

// Closed reports whether Close has been called.
func (g *Graph) Closed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}

// Find returns the node registered under name.
func (g *Graph) Find(name string) (Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return Node{}, ErrClosed
	}

	n, ok := g.lookup(name)
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return n.snapshot(), nil
}

// FindOrCreate returns the node registered under name, creating it on first reference.
func (g *Graph) FindOrCreate(ctx context.Context, name string) (Node, error) {
	if name == "" {
		return Node{}, ErrEmptyName
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return Node{}, ErrClosed
	}

	m := g.begin()
	n := m.resolve(name)
	if err := m.persist(ctx, nil); err != nil {
		return Node{}, err
	}
	m.commit(nil)
	return n.snapshot(), nil
}

// AddEdge creates an edge from one named node to another, creating either node if needed.
// The nodes and the edge become visible together or not at all.
func (g *Graph) AddEdge(ctx context.Context, from, to string, cost float64, opts ...EdgeOption) (Edge, error) {
	if from == "" || to == "" {
		return Edge{}, ErrEmptyName
	}
	if err := validateCost(cost); err != nil {
		return Edge{}, err
	}
	cfg := edgeConfig{relType: DefaultRelType}
	for _, opt := range opts {
		opt(&cfg)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return Edge{}, ErrClosed
	}

	m := g.begin()
	fromNode := m.resolve(from)
	toNode := m.resolve(to)
	edge := &Edge{
		ID:   g.store.nextEdge,
		From: fromNode.ID,
		To:   toNode.ID,
		Cost: cost,
		Type: cfg.relType,
	}
	if err := m.persist(ctx, edge); err != nil {
		return Edge{}, fmt.Errorf("add edge %q -> %q: %w", from, to, err)
	}
	m.commit(edge)
	return *edge, nil
}

// Nodes lists every node ordered by identifier.
func (g *Graph) Nodes() ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	sorted := g.store.sortedNodes()
	out := make([]Node, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, n.snapshot())
	}
	return out, nil
}

// Edges lists every edge in insertion order.
func (g *Graph) Edges() ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	out := make([]Edge, 0, len(g.store.edges))
	for _, e := range g.store.edges {
		out = append(out, *e)
	}
	return out, nil
}

// Stats returns the current node and edge counts.
func (g *Graph) Stats() (Stats, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return Stats{}, ErrClosed
	}
	return g.store.stats(), nil
}

// ShortestPath finds the cheapest path from start to end using the graph's expander.
// found is false, with a nil error, when no path connects the two nodes.
func (g *Graph) ShortestPath(ctx context.Context, start, end string) (path WeightedPath, found bool, err error) {
	return g.ShortestPathVia(ctx, g.expander, start, end)
}

// ShortestPathVia is ShortestPath with an explicit traversal rule.
func (g *Graph) ShortestPathVia(ctx context.Context, x Expander, start, end string) (WeightedPath, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return WeightedPath{}, false, ErrClosed
	}

	startNode, ok := g.lookup(start)
	if !ok {
		return WeightedPath{}, false, &EndpointError{Endpoint: Start, Name: start}
	}
	endNode, ok := g.lookup(end)
	if !ok {
		return WeightedPath{}, false, &EndpointError{Endpoint: End, Name: end}
	}

	return shortestPath(ctx, g.store, x, startNode.ID, endNode.ID)
}

func (g *Graph) lookup(name string) (*Node, bool) {
	id, ok := g.index.lookup(name)
	if !ok {
		return nil, false
	}
	return g.store.node(id)
}

func validateCost(cost float64) error {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCost, cost)
	}
	return nil
}
