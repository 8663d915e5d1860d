package diff

// Stats holds counts gathered from a diff tree
type Stats struct {
	Nodes     int `json:"nodes" yaml:"nodes"`         // every node including the root
	Leaves    int `json:"leaves" yaml:"leaves"`       // nodes without children
	Depth     int `json:"depth" yaml:"depth"`         // deepest level, the root is 0
	Added     int `json:"added" yaml:"added"`         // nodes only present after
	Removed   int `json:"removed" yaml:"removed"`     // nodes only present before
	Changed   int `json:"changed" yaml:"changed"`     // nodes with differing content
	Unchanged int `json:"unchanged" yaml:"unchanged"` // nodes equal on both sides
}

// Summarize walks the tree and counts its nodes.
func Summarize(root *Node) Stats {
	var s Stats
	Walk(root, func(n *Node, depth int) bool {
		s.Nodes++
		if n.IsLeaf() {
			s.Leaves++
		}
		if depth > s.Depth {
			s.Depth = depth
		}
		switch n.Type {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Changed:
			s.Changed++
		case Unchanged:
			s.Unchanged++
		}
		return true
	})
	return s
}

// HasChanges reports whether any node differs between the documents.
func (s Stats) HasChanges() bool {
	return s.Added+s.Removed+s.Changed > 0
}

// Count returns the number of nodes of the given change type.
func (s Stats) Count(t ChangeType) int {
	switch t {
	case Added:
		return s.Added
	case Removed:
		return s.Removed
	case Changed:
		return s.Changed
	case Unchanged:
		return s.Unchanged
	}
	return 0
}
