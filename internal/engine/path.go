package engine

// WeightedPath is an ordered walk from a start node to an end node.
// Edges[i] connects Nodes[i] and Nodes[i+1].
type WeightedPath struct {
	Nodes  []Node
	Edges  []Edge
	Weight float64
}

// Length returns the number of edges traversed.
func (p WeightedPath) Length() int {
	return len(p.Edges)
}

// Names returns the node names in walk order.
func (p WeightedPath) Names() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name
	}
	return names
}

// Start returns the first node. It panics on the zero path.
func (p WeightedPath) Start() Node {
	return p.Nodes[0]
}

// End returns the last node. It panics on the zero path.
func (p WeightedPath) End() Node {
	return p.Nodes[len(p.Nodes)-1]
}

// buildPath walks parent links back from end and reverses them.
func buildPath(s *store, parents map[NodeID]parentLink, start, end NodeID, weight float64) WeightedPath {
	var nodes []Node
	var edges []Edge
	for cur := end; cur != start; {
		link := parents[cur]
		n, _ := s.node(cur)
		nodes = append(nodes, n.snapshot())
		edges = append(edges, *link.edge)
		cur = link.from
	}
	first, _ := s.node(start)
	nodes = append(nodes, first.snapshot())

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	return WeightedPath{Nodes: nodes, Edges: edges, Weight: weight}
}
