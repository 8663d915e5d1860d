package diff

import "github.com/mcncl/treediff/internal/models"

// Normalize rewrites the tree in place, bottom up, turning every Changed node
// whose before and after snapshots are not both objects into Removed. Value
// changes of scalars and arrays then display as removals. The distinction
// between a removal and a value change is lost, which is why Builder only
// applies it when WithNormalizeChanged is set. A relabelled node keeps its
// After snapshot, so Removed nodes coming from this pass carry both sides.
func Normalize(root *Node) *Node {
	WalkPostfix(root, func(n *Node) {
		if n.Type != Changed {
			return
		}
		_, beforeObj := n.Before.(*models.Object)
		_, afterObj := n.After.(*models.Object)
		if !beforeObj || !afterObj {
			n.Type = Removed
		}
	})
	return root
}
