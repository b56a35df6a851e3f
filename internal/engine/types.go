package engine

// NodeID identifies a node for the lifetime of the graph.
type NodeID int64

// EdgeID identifies an edge. Identifiers follow insertion order.
type EdgeID int64

// RelType tags an edge so path searches can filter traversal.
type RelType string

// DefaultRelType is the relationship type used when AddEdge is not given one.
const DefaultRelType RelType = "REL"

// NameProperty is the property key carrying a node's name.
const NameProperty = "name"

// Node is a named graph vertex.
type Node struct {
	ID         NodeID
	Name       string
	Properties map[string]any
}

// Edge is a weighted connection stored from From to To.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
	Cost float64
	Type RelType
}

// Other returns the endpoint opposite to id.
func (e Edge) Other(id NodeID) NodeID {
	if e.From == id {
		return e.To
	}
	return e.From
}

// Stats summarises the graph size.
type Stats struct {
	Nodes int
	Edges int
}

func newNode(id NodeID, name string) *Node {
	return &Node{
		ID:         id,
		Name:       name,
		Properties: map[string]any{NameProperty: name},
	}
}

// snapshot returns a copy safe to hand to callers.
func (n *Node) snapshot() Node {
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		props[k] = v
	}
	return Node{ID: n.ID, Name: n.Name, Properties: props}
}
