package diff

import (
	"strconv"

	"github.com/mcncl/treediff/internal/models"
)

// RootKey is the key given to the top node of a diff tree.
const RootKey = "root"

// ChangeType classifies how a node differs between the two documents.
type ChangeType string

const (
	Added     ChangeType = "added"
	Removed   ChangeType = "removed"
	Changed   ChangeType = "changed"
	Unchanged ChangeType = "unchanged"
)

// ChangeTypes lists every change type in display order.
var ChangeTypes = []ChangeType{Added, Removed, Changed, Unchanged}

// Node is one node of a diff tree. Before is nil for added nodes and After
// is nil for removed nodes.
type Node struct {
	Key      string       `json:"key" yaml:"key"`
	Path     string       `json:"path" yaml:"path"`
	Type     ChangeType   `json:"type" yaml:"type"`
	Before   models.Value `json:"before,omitempty" yaml:"before,omitempty"`
	After    models.Value `json:"after,omitempty" yaml:"after,omitempty"`
	Children []*Node      `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the first direct child with the given key.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Find returns the first node in the tree whose path equals path.
func (n *Node) Find(path string) *Node {
	var found *Node
	Walk(n, func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.Path == path {
			found = node
			return false
		}
		return true
	})
	return found
}

// Walk visits the tree in prefix order. depth is 0 for n. Returning false from
// fn skips the children of the visited node.
func Walk(n *Node, fn func(node *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// WalkPostfix visits the tree bottom up: children before their parent.
func WalkPostfix(n *Node, fn func(node *Node)) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		WalkPostfix(c, fn)
	}
	fn(n)
}

// JoinPath extends a parent path with an object key.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// IndexPath extends a parent path, or an array's key, with an element index.
func IndexPath(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}
