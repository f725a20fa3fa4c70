package store

// Node is a typed document. Data holds the node's fields and is stored as
// JSON text.
type Node struct {
	ID   int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data" yaml:"data"`
}

// Field returns the named field of the node's data, if present.
func (n *Node) Field(name string) (any, bool) {
	if n.Data == nil {
		return nil, false
	}
	v, ok := n.Data[name]
	return v, ok
}
