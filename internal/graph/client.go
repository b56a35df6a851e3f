// Package graph wraps the graph database used to persist nodes and edges.
package graph

import (
	"context"
	"errors"

	"github.com/vanshika/routegraph/internal/config"
)

// Client defines the minimal contract the repository needs from a graph database.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	// ExecuteWriteTx runs fn in one write transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	ExecuteWriteTx(ctx context.Context, fn func(tx Tx) error) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Tx runs statements inside a transaction opened by ExecuteWriteTx.
type Tx interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	UserAgent      string
}

// OptionsFromConfig maps the environment configuration onto client options.
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		UserAgent:      "routegraph",
	}
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
