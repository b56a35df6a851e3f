package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned by lookups that do not create on miss.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEndpointNotFound is matched by *EndpointError when a path query names an unknown node.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrInvalidCost rejects negative, NaN and infinite edge costs.
	ErrInvalidCost = errors.New("invalid edge cost")

	// ErrEmptyName rejects nodes without a name.
	ErrEmptyName = errors.New("node name is required")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("graph closed")

	// ErrCostOverflow is returned when a cumulative path cost leaves the float64 range.
	ErrCostOverflow = errors.New("path cost overflow")

	// ErrCorruptState is returned by Open when persisted nodes and edges are inconsistent.
	ErrCorruptState = errors.New("persisted graph is inconsistent")
)

// Endpoint names one side of a path query.
type Endpoint string

const (
	Start Endpoint = "start"
	End   Endpoint = "end"
)

// EndpointError reports which endpoint of a path query could not be resolved.
type EndpointError struct {
	Endpoint Endpoint
	Name     string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("%s node %q not found", e.Endpoint, e.Name)
}

// Unwrap lets errors.Is match ErrEndpointNotFound.
func (e *EndpointError) Unwrap() error {
	return ErrEndpointNotFound
}
