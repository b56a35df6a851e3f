package server

import (
	"context"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Readiness reports whether the graph engine still serves requests.
type Readiness interface {
	Ready() bool
}

// GraphHealthService checks the engine and, when persistence is enabled, graph database connectivity.
type GraphHealthService struct {
	Engine Readiness
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Engine != nil && !s.Engine.Ready() {
		return engine.ErrClosed
	}
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}
