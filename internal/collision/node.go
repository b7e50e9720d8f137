package collision

// BvhNode is one entry of the tree's node table. A node is either a
// leaf holding body indices or an internal node with exactly two
// children, never both.
type BvhNode struct {
	// CurrentBounds is tight around the contents and recomputed by
	// refit. AllocatedBounds is the margin-inflated region this node is
	// responsible for; it stays stable across small motions so the tree
	// does not restructure every tick.
	CurrentBounds   BoundingBox
	AllocatedBounds BoundingBox

	Parent   NodeIndex
	Children [2]NodeIndex
	Bodies   []BodyIndex

	// State is the loosest state of the contained bodies. A pair of
	// non-dynamic nodes is dormant and skipped during overlap tests.
	State NodeState

	Height int32
}

// IsLeaf reports whether the node holds bodies directly.
func (n *BvhNode) IsLeaf() bool {
	return n.Children[0] == NilNode
}
