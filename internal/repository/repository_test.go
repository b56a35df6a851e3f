package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/graph"
)

func TestRepository_PersistMutationNode(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	node := engine.Node{
		ID:         3,
		Name:       "s",
		Properties: map[string]any{"name": "s", "zone": "north"},
	}
	if err := repo.PersistMutation(context.Background(), []engine.Node{node}, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Query, "MERGE (n:Node {nodeId: $nodeId})") {
		t.Fatalf("unexpected node query: %s", calls[0].Query)
	}
	if got := calls[0].Params["nodeId"]; got != int64(3) {
		t.Fatalf("expected nodeId 3, got %v", got)
	}
	if got := calls[0].Params["name"]; got != "s" {
		t.Fatalf("expected name s, got %v", got)
	}
	props, ok := calls[0].Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", calls[0].Params["props"])
	}
	if _, dup := props["name"]; dup {
		t.Fatalf("name should be set explicitly, not through props: %v", props)
	}
	if props["zone"] != "north" {
		t.Fatalf("expected zone property, got %v", props)
	}
}

func TestRepository_PersistMutationValidation(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)
	ctx := context.Background()

	if err := repo.PersistMutation(ctx, []engine.Node{{ID: 1}}, nil); err == nil {
		t.Fatal("expected error for unnamed node")
	}
	if err := repo.PersistMutation(ctx, []engine.Node{{Name: "a"}}, nil); err == nil {
		t.Fatal("expected error for node without id")
	}
	if err := repo.PersistMutation(ctx, nil, &engine.Edge{From: 1, To: 2}); err == nil {
		t.Fatal("expected error for edge without id")
	}
	if len(mem.WriteCalls()) != 0 || mem.Rollbacks() != 0 {
		t.Fatal("invalid mutations must not reach the database")
	}
}

func TestRepository_PersistMutationEdge(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushWriteResult(graph.Result{})
	mem.PushWriteResult(graph.Result{})
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"edgeId": int64(9)}}})
	repo := New(mem)

	nodes := []engine.Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	edge := &engine.Edge{ID: 9, From: 1, To: 2, Cost: 7.5}
	if err := repo.PersistMutation(context.Background(), nodes, edge); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 statements in the transaction, got %d", len(calls))
	}
	if calls[0].Params["name"] != "a" || calls[1].Params["name"] != "b" {
		t.Fatalf("nodes must be written before the edge: %v, %v", calls[0].Params, calls[1].Params)
	}
	params := calls[2].Params
	if params["edgeId"] != int64(9) || params["fromId"] != int64(1) || params["toId"] != int64(2) {
		t.Fatalf("unexpected identifiers: %v", params)
	}
	if params["cost"] != 7.5 {
		t.Fatalf("expected cost 7.5, got %v", params["cost"])
	}
	if params["relType"] != string(engine.DefaultRelType) {
		t.Fatalf("expected default relType, got %v", params["relType"])
	}
}

func TestRepository_PersistMutationRollsBackWithoutEndpoints(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	nodes := []engine.Node{{ID: 1, Name: "a"}}
	err := repo.PersistMutation(context.Background(), nodes, &engine.Edge{ID: 1, From: 1, To: 2, Cost: 1})
	if !errors.Is(err, ErrEndpointsNotPersisted) {
		t.Fatalf("expected ErrEndpointsNotPersisted, got %v", err)
	}
	if len(mem.WriteCalls()) != 0 {
		t.Fatalf("node write must roll back with the edge, got %+v", mem.WriteCalls())
	}
	if mem.Rollbacks() != 1 {
		t.Fatalf("expected 1 rollback, got %d", mem.Rollbacks())
	}
}

func TestRepository_PersistMutationPropagatesError(t *testing.T) {
	mem := graph.NewMemoryClient().FailWriteAt(1, errors.New("boom"))
	repo := New(mem)

	nodes := []engine.Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	err := repo.PersistMutation(context.Background(), nodes, &engine.Edge{ID: 1, From: 1, To: 2, Cost: 1})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}
	if len(mem.WriteCalls()) != 0 {
		t.Fatalf("failed transaction must leave nothing written, got %+v", mem.WriteCalls())
	}
}

func TestRepository_LoadAll(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"nodeId": int64(1), "name": "s", "props": map[string]any{"nodeId": int64(1), "name": "s", "zone": "north"}},
		{"nodeId": int64(2), "name": "c", "props": map[string]any{"nodeId": int64(2), "name": "c"}},
	}})
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"edgeId": int64(1), "fromId": int64(1), "toId": int64(2), "cost": int64(7), "relType": "REL"},
	}})
	repo := New(mem)

	nodes, edges, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(nodes) != 2 || nodes[0].Name != "s" || nodes[1].ID != 2 {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	if nodes[0].Properties["zone"] != "north" {
		t.Fatalf("expected zone property, got %v", nodes[0].Properties)
	}
	if _, ok := nodes[0].Properties["nodeId"]; ok {
		t.Fatalf("nodeId should not be surfaced as a property")
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Cost != 7 || edges[0].From != 1 || edges[0].To != 2 || edges[0].Type != "REL" {
		t.Fatalf("unexpected edge: %+v", edges[0])
	}

	if reads := mem.ReadCalls(); len(reads) != 2 {
		t.Fatalf("expected 2 read queries, got %d", len(reads))
	}
}

func TestRepository_EnsureSchema(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	calls := mem.WriteCalls()
	if len(calls) != len(schemaCypher) {
		t.Fatalf("expected %d schema statements, got %d", len(schemaCypher), len(calls))
	}
	for _, call := range calls {
		if !strings.HasPrefix(call.Query, "CREATE CONSTRAINT") {
			t.Fatalf("unexpected schema statement: %s", call.Query)
		}
	}
}

func TestRepository_EngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := graph.NewMemoryClient()
	// Open reads nodes then edges from an empty database.
	mem.PushReadResult(graph.Result{})
	mem.PushReadResult(graph.Result{})
	// One transaction: node s, node e, edge s->e.
	mem.PushWriteResult(graph.Result{})
	mem.PushWriteResult(graph.Result{})
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"edgeId": int64(1)}}})

	g, err := engine.Open(ctx, engine.WithPersister(New(mem)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer g.Close()

	if _, err := g.AddEdge(ctx, "s", "e", 3); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	calls := mem.WriteCalls()
	if len(calls) != 3 || mem.Rollbacks() != 0 {
		t.Fatalf("expected 3 committed writes, got %d", len(calls))
	}
	if calls[0].Params["name"] != "s" || calls[1].Params["name"] != "e" {
		t.Fatalf("nodes persisted out of order: %v, %v", calls[0].Params, calls[1].Params)
	}
}

func TestConverters(t *testing.T) {
	if toInt64(float64(4)) != 4 || toInt64(nil) != 0 {
		t.Fatal("toInt64 conversion failed")
	}
	if toFloat64(int64(3)) != 3 || toFloat64("x") != 0 {
		t.Fatal("toFloat64 conversion failed")
	}
	if toString(nil) != "" || toString(12) != "12" {
		t.Fatal("toString conversion failed")
	}
}
