package engine

import "log/slog"

// Option configures a Graph at Open.
type Option func(*Graph)

// WithPersister makes the graph load its state from p at Open and record every new node and edge.
func WithPersister(p Persister) Option {
	return func(g *Graph) {
		g.persister = p
	}
}

// WithLogger sets the logger used for lifecycle and mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithExpander replaces the traversal rule used by ShortestPath.
func WithExpander(x Expander) Option {
	return func(g *Graph) {
		g.expander = x
	}
}

// EdgeOption configures a single AddEdge call.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	relType RelType
}

// WithType sets the relationship type of the new edge. An empty type keeps DefaultRelType.
func WithType(t RelType) EdgeOption {
	return func(c *edgeConfig) {
		if t != "" {
			c.relType = t
		}
	}
}
