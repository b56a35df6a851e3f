package engine

// nameIndex maps unique node names to identifiers. Graph keeps it in step with the store.
type nameIndex struct {
	byName map[string]NodeID
}

func newNameIndex() *nameIndex {
	return &nameIndex{byName: make(map[string]NodeID)}
}

func (x *nameIndex) lookup(name string) (NodeID, bool) {
	id, ok := x.byName[name]
	return id, ok
}

// register binds name to id. It reports false if name is already bound to another node.
func (x *nameIndex) register(name string, id NodeID) bool {
	if existing, ok := x.byName[name]; ok {
		return existing == id
	}
	x.byName[name] = id
	return true
}

func (x *nameIndex) len() int {
	return len(x.byName)
}
