package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/graph"
)

// ErrEndpointsNotPersisted is returned when an edge's endpoints are not stored.
var ErrEndpointsNotPersisted = errors.New("edge endpoints are not persisted")

// Repository persists the engine's nodes and edges in a graph database.
// Nodes are stored as (:Node {nodeId, name}) and edges as [:LINK {edgeId, cost, relType}].
type Repository struct {
	client graph.Client
}

var _ engine.Persister = (*Repository)(nil)

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraints the stored graph relies on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaCypher {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// PersistMutation writes the nodes and optional edge in one transaction. When the
// edge's endpoints cannot be matched the transaction is rolled back.
func (r *Repository) PersistMutation(ctx context.Context, nodes []engine.Node, edge *engine.Edge) error {
	for _, node := range nodes {
		if node.ID <= 0 || node.Name == "" {
			return errors.New("node id and name are required")
		}
	}
	if edge != nil && edge.ID <= 0 {
		return errors.New("edge id is required")
	}

	return r.client.ExecuteWriteTx(ctx, func(tx graph.Tx) error {
		for _, node := range nodes {
			if err := upsertNode(ctx, tx, node); err != nil {
				return err
			}
		}
		if edge == nil {
			return nil
		}
		return upsertEdge(ctx, tx, *edge)
	})
}

func upsertNode(ctx context.Context, tx graph.Tx, node engine.Node) error {
	params := map[string]any{
		"nodeId": int64(node.ID),
		"name":   node.Name,
		"props":  nodeProperties(node),
	}
	if _, err := tx.Run(ctx, upsertNodeCypher, params); err != nil {
		return fmt.Errorf("upsert node %d: %w", node.ID, err)
	}
	return nil
}

func upsertEdge(ctx context.Context, tx graph.Tx, edge engine.Edge) error {
	relType := edge.Type
	if relType == "" {
		relType = engine.DefaultRelType
	}
	params := map[string]any{
		"edgeId":  int64(edge.ID),
		"fromId":  int64(edge.From),
		"toId":    int64(edge.To),
		"cost":    edge.Cost,
		"relType": string(relType),
	}

	res, err := tx.Run(ctx, upsertEdgeCypher, params)
	if err != nil {
		return fmt.Errorf("upsert edge %d: %w", edge.ID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("upsert edge %d (%d -> %d): %w", edge.ID, edge.From, edge.To, ErrEndpointsNotPersisted)
	}
	return nil
}

// LoadAll reads every stored node and edge, ordered by identifier.
func (r *Repository) LoadAll(ctx context.Context) ([]engine.Node, []engine.Edge, error) {
	nodeRes, err := r.client.ExecuteRead(ctx, loadNodesCypher, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load nodes query: %w", err)
	}

	nodes := make([]engine.Node, 0, len(nodeRes.Records))
	for _, record := range nodeRes.Records {
		node := engine.Node{
			ID:         engine.NodeID(toInt64(record["nodeId"])),
			Name:       toString(record["name"]),
			Properties: map[string]any{},
		}
		if props, ok := record["props"].(map[string]any); ok {
			for k, v := range props {
				if k == "nodeId" || k == engine.NameProperty {
					continue
				}
				node.Properties[k] = v
			}
		}
		nodes = append(nodes, node)
	}

	edgeRes, err := r.client.ExecuteRead(ctx, loadEdgesCypher, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load edges query: %w", err)
	}

	edges := make([]engine.Edge, 0, len(edgeRes.Records))
	for _, record := range edgeRes.Records {
		edges = append(edges, engine.Edge{
			ID:   engine.EdgeID(toInt64(record["edgeId"])),
			From: engine.NodeID(toInt64(record["fromId"])),
			To:   engine.NodeID(toInt64(record["toId"])),
			Cost: toFloat64(record["cost"]),
			Type: engine.RelType(toString(record["relType"])),
		})
	}

	return nodes, edges, nil
}

func nodeProperties(node engine.Node) map[string]any {
	props := make(map[string]any, len(node.Properties))
	for k, v := range node.Properties {
		if k == engine.NameProperty || k == "nodeId" {
			continue
		}
		props[k] = v
	}
	return props
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

var schemaCypher = []string{
	`CREATE CONSTRAINT node_id_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.nodeId IS UNIQUE`,
	`CREATE CONSTRAINT node_name_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.name IS UNIQUE`,
}

const upsertNodeCypher = `
MERGE (n:Node {nodeId: $nodeId})
SET n += $props,
    n.name = $name
`

const upsertEdgeCypher = `
MATCH (from:Node {nodeId: $fromId}), (to:Node {nodeId: $toId})
MERGE (from)-[r:LINK {edgeId: $edgeId}]->(to)
SET r.cost = $cost,
    r.relType = $relType
RETURN r.edgeId AS edgeId
`

const loadNodesCypher = `
MATCH (n:Node)
RETURN n.nodeId AS nodeId,
       n.name AS name,
       properties(n) AS props
ORDER BY n.nodeId
`

const loadEdgesCypher = `
MATCH (from:Node)-[r:LINK]->(to:Node)
RETURN r.edgeId AS edgeId,
       from.nodeId AS fromId,
       to.nodeId AS toId,
       r.cost AS cost,
       r.relType AS relType
ORDER BY r.edgeId
`
