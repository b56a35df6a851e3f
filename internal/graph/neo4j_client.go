package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient opens a Bolt driver and fails fast when the server cannot be reached.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
		if opts.UserAgent != "" {
			c.UserAgent = opts.UserAgent
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &neo4jClient{driver: driver, database: opts.Database}, nil
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

// ExecuteWrite runs cypher in a managed transaction routed to the leader.
// Transient failures are retried by the driver, so writes must be idempotent.
func (c *neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.query(ctx, cypher, params, neo4j.ExecuteQueryWithWritersRouting())
}

func (c *neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.query(ctx, cypher, params, neo4j.ExecuteQueryWithReadersRouting())
}

// ExecuteWriteTx runs fn in a managed write transaction. The driver may call fn
// again after a transient failure.
func (c *neo4jClient) ExecuteWriteTx(ctx context.Context, fn func(tx Tx) error) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(managedTx{tx: tx})
	})
	return err
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := m.tx.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, fmt.Errorf("run cypher: %w", err)
	}
	collected, err := res.Collect(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("collect records: %w", err)
	}
	return toResult(collected), nil
}

func (c *neo4jClient) query(ctx context.Context, cypher string, params map[string]any, routing neo4j.ExecuteQueryConfigurationOption) (Result, error) {
	settings := []neo4j.ExecuteQueryConfigurationOption{routing}
	if c.database != "" {
		settings = append(settings, neo4j.ExecuteQueryWithDatabase(c.database))
	}

	eager, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params, neo4j.EagerResultTransformer, settings...)
	if err != nil {
		return Result{}, fmt.Errorf("run cypher: %w", err)
	}

	return toResult(eager.Records), nil
}

func toResult(recs []*neo4j.Record) Result {
	records := make([]Record, 0, len(recs))
	for _, rec := range recs {
		records = append(records, Record(rec.AsMap()))
	}
	return Result{Records: records}
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
