// Package metadata implements the hierarchical annotation tree attached to a
// pipeline run. Each stage registers a named child under the table's root
// during preparation and may hang arbitrary values beneath it.
package metadata

import "sync"

// Node is one entry in the metadata tree. Nodes are created through Add and
// AddValue on a parent; the tree root is created with New.
type Node struct {
	mu          sync.Mutex
	name        string
	value       any
	description string
	children    []*Node
}

// New creates a root node with the given name.
func New(name string) *Node {
	return &Node{name: name}
}

// Add appends a named child node and returns it.
func (n *Node) Add(name string) *Node {
	child := &Node{name: name}
	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child
}

// AddValue appends a child node carrying a value and a human-readable
// description, and returns it.
func (n *Node) AddValue(name string, value any, description string) *Node {
	child := &Node{name: name, value: value, description: description}
	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child
}

// FindChild returns the first direct child satisfying pred, or nil.
func (n *Node) FindChild(pred func(*Node) bool) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if pred(c) {
			return c
		}
	}
	return nil
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Value returns the node's value, which is nil for pure container nodes.
func (n *Node) Value() any { return n.value }

// Description returns the node's description.
func (n *Node) Description() string { return n.description }

// Children returns a snapshot of the node's direct children.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}
