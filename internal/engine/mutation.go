package engine

import (
	"context"
	"fmt"
)

// mutation stages node creation so nothing reaches the store or index until it has been persisted.
// The caller must hold the write lock from begin until commit.
type mutation struct {
	g       *Graph
	created []*Node
	next    NodeID
}

func (g *Graph) begin() *mutation {
	return &mutation{g: g, next: g.store.nextNode}
}

func (m *mutation) resolve(name string) *Node {
	if n, ok := m.g.lookup(name); ok {
		return n
	}
	for _, n := range m.created {
		if n.Name == name {
			return n
		}
	}
	n := newNode(m.next, name)
	m.next++
	m.created = append(m.created, n)
	return n
}

func (m *mutation) persist(ctx context.Context, edge *Edge) error {
	p := m.g.persister
	if p == nil || (len(m.created) == 0 && edge == nil) {
		return nil
	}
	nodes := make([]Node, 0, len(m.created))
	for _, n := range m.created {
		nodes = append(nodes, n.snapshot())
	}
	var staged *Edge
	if edge != nil {
		e := *edge
		staged = &e
	}
	if err := p.PersistMutation(ctx, nodes, staged); err != nil {
		return fmt.Errorf("persist mutation: %w", err)
	}
	return nil
}

func (m *mutation) commit(edge *Edge) {
	for _, n := range m.created {
		m.g.store.addNode(n)
		m.g.index.register(n.Name, n.ID)
		m.g.logger.Debug("node created", "id", n.ID, "name", n.Name)
	}
	if edge != nil {
		m.g.store.addEdge(edge)
		m.g.logger.Debug("edge created", "id", edge.ID, "from", edge.From, "to", edge.To, "cost", edge.Cost, "type", edge.Type)
	}
}
