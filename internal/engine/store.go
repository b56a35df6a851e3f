package engine

import "sort"

// store holds nodes and edges. It is not safe for concurrent use; Graph guards it.
type store struct {
	nodes    map[NodeID]*Node
	edges    []*Edge
	incident map[NodeID][]*Edge
	nextNode NodeID
	nextEdge EdgeID
}

func newStore() *store {
	return &store{
		nodes:    make(map[NodeID]*Node),
		incident: make(map[NodeID][]*Edge),
		nextNode: 1,
		nextEdge: 1,
	}
}

func (s *store) node(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *store) addNode(n *Node) {
	s.nodes[n.ID] = n
	if n.ID >= s.nextNode {
		s.nextNode = n.ID + 1
	}
}

// addEdge records e in insertion order. A self-loop is listed once.
func (s *store) addEdge(e *Edge) {
	s.edges = append(s.edges, e)
	s.incident[e.From] = append(s.incident[e.From], e)
	if e.To != e.From {
		s.incident[e.To] = append(s.incident[e.To], e)
	}
	if e.ID >= s.nextEdge {
		s.nextEdge = e.ID + 1
	}
}

// edgesOf returns the edges touching id, oldest first.
func (s *store) edgesOf(id NodeID) []*Edge {
	return s.incident[id]
}

func (s *store) sortedNodes() []*Node {
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) stats() Stats {
	return Stats{Nodes: len(s.nodes), Edges: len(s.edges)}
}
