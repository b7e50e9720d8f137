package collision

import (
	"fmt"
	"sort"

	"collide3d/internal/table"
)

type (
	bodyTable    = table.Table[BodyIndex, Body]
	nodeTable    = table.Table[NodeIndex, BvhNode]
	contactTable = table.Table[ContactIndex, Contact]
)

// Tree is the dynamic bounding-volume hierarchy used as the broad
// phase. Bodies live in leaves; every leaf holds at most capacity
// bodies. All operations assume exclusive access for the duration of a
// call.
type Tree struct {
	nodes nodeTable
	root  NodeIndex

	margin   float32
	capacity int

	scratch []BodyIndex // collapse buffer
}

// NewTree creates a tree. margin inflates current bounds into allocated
// bounds at split time; capacity is the leaf body limit (minimum 1).
func NewTree(margin float32, capacity int) *Tree {
	if capacity < 1 {
		capacity = 1
	}
	return &Tree{root: NilNode, margin: margin, capacity: capacity}
}

// Root returns the root node index, NilNode for an empty tree.
func (t *Tree) Root() NodeIndex {
	return t.root
}

// Node returns the node at i, or nil.
func (t *Tree) Node(i NodeIndex) *BvhNode {
	return t.nodes.Get(i)
}

// Insert places a body into the tree. The body's extended bounds must
// already be computed. If they fall outside the root's allocated
// bounds the root is grown by collapsing and re-splitting the whole
// tree around the enlarged union.
func (t *Tree) Insert(body BodyIndex, bodies *bodyTable) {
	b := bodies.Get(body)
	assert(b != nil, "insert: dead body index")
	ext := b.ExtendedBounds

	if t.root == NilNode {
		root := t.nodes.Add(BvhNode{
			CurrentBounds:   ext,
			AllocatedBounds: ext.Expand(t.margin),
			Parent:          NilNode,
			Children:        [2]NodeIndex{NilNode, NilNode},
			Bodies:          []BodyIndex{body},
			State:           b.State,
		})
		t.root = root
		bodies.Get(body).Node = root
		return
	}

	if !t.nodes.Get(t.root).AllocatedBounds.Contains(ext) {
		t.growRoot(body, bodies)
		return
	}
	t.insertInto(t.root, body, bodies)
}

// growRoot handles an out-of-bounds insertion by flattening the whole
// tree into the root leaf, widening the allocated bounds around the new
// union, and re-splitting.
func (t *Tree) growRoot(body BodyIndex, bodies *bodyTable) {
	t.collapse(t.root, bodies)
	n := t.nodes.Get(t.root)
	n.Bodies = append(n.Bodies, body)
	bodies.Get(body).Node = t.root

	union := EmptyBounds()
	state := StateStatic
	for _, bi := range n.Bodies {
		b := bodies.Get(bi)
		union = union.Merge(b.ExtendedBounds)
		state = state.Merge(b.State)
	}
	n.CurrentBounds = union
	n.AllocatedBounds = union.Expand(t.margin)
	n.State = state
	t.trySplit(t.root, bodies)
}

// insertInto descends to a leaf, collapsing any subtree whose children
// cannot contain the body, and returns the resulting subtree height.
// Precondition: the node's allocated bounds contain the body's extended
// bounds; the caller must have walked to an ancestor satisfying this.
func (t *Tree) insertInto(ni NodeIndex, body BodyIndex, bodies *bodyTable) int32 {
	b := bodies.Get(body)
	ext := b.ExtendedBounds
	n := t.nodes.Get(ni)
	assert(n.AllocatedBounds.Contains(ext), "insert: extended bounds outside node's allocated bounds")

	if n.IsLeaf() {
		n.Bodies = append(n.Bodies, body)
		n.CurrentBounds = n.CurrentBounds.Merge(ext)
		n.State = n.State.Merge(b.State)
		b.Node = ni
		return t.trySplit(ni, bodies)
	}

	c0, c1 := n.Children[0], n.Children[1]
	var child NodeIndex = NilNode
	if t.nodes.Get(c0).AllocatedBounds.Contains(ext) {
		child = c0
	} else if t.nodes.Get(c1).AllocatedBounds.Contains(ext) {
		child = c1
	}

	if child == NilNode {
		// Neither child can take it: flatten this subtree and re-split
		// around the union including the new body.
		t.collapse(ni, bodies)
		n = t.nodes.Get(ni)
		n.Bodies = append(n.Bodies, body)
		n.CurrentBounds = n.CurrentBounds.Merge(ext)
		n.State = n.State.Merge(b.State)
		b.Node = ni
		return t.trySplit(ni, bodies)
	}

	h := t.insertInto(child, body, bodies)

	n = t.nodes.Get(ni) // the recursion may have grown the node table
	other := n.Children[0]
	if other == child {
		other = n.Children[1]
	}
	oh := t.nodes.Get(other).Height
	n.CurrentBounds = n.CurrentBounds.Merge(ext)
	n.State = n.State.Merge(bodies.Get(body).State)
	n.Height = 1 + maxInt32(h, oh)
	return n.Height
}

// Remove detaches a body from its leaf in O(1) via the back-reference.
// An emptied leaf is pruned immediately, so the leaf count never
// exceeds the body count between rebalances.
func (t *Tree) Remove(body BodyIndex, bodies *bodyTable) {
	b := bodies.Get(body)
	if b == nil || b.Node == NilNode {
		return
	}
	ni := b.Node
	n := t.nodes.Get(ni)
	for i, bi := range n.Bodies {
		if bi == body {
			last := len(n.Bodies) - 1
			n.Bodies[i] = n.Bodies[last]
			n.Bodies = n.Bodies[:last]
			break
		}
	}
	b.Node = NilNode
	if len(n.Bodies) == 0 {
		t.removeLeaf(ni)
		return
	}
	t.recomputeLeaf(ni, bodies)
}

// removeLeaf prunes an empty leaf: its sibling takes the parent's
// place. Ancestor bounds and heights stay stale until the next refit.
func (t *Tree) removeLeaf(ni NodeIndex) {
	parent := t.nodes.Get(ni).Parent
	if parent == NilNode {
		t.root = NilNode
		t.nodes.Remove(ni)
		return
	}
	p := t.nodes.Get(parent)
	sibling := p.Children[0]
	if sibling == ni {
		sibling = p.Children[1]
	}
	grand := p.Parent
	t.nodes.Get(sibling).Parent = grand
	if grand == NilNode {
		t.root = sibling
	} else {
		g := t.nodes.Get(grand)
		if g.Children[0] == parent {
			g.Children[0] = sibling
		} else {
			g.Children[1] = sibling
		}
	}
	t.nodes.Remove(parent)
	t.nodes.Remove(ni)
}

// collapse flattens the subtree at ni into a single leaf, gathering all
// contained bodies and freeing the descendant nodes.
func (t *Tree) collapse(ni NodeIndex, bodies *bodyTable) {
	t.scratch = t.scratch[:0]
	t.gather(ni, &t.scratch)

	n := t.nodes.Get(ni)
	n.Children = [2]NodeIndex{NilNode, NilNode}
	n.Bodies = append(n.Bodies[:0], t.scratch...)
	n.Height = 0

	union := EmptyBounds()
	state := StateStatic
	for _, bi := range n.Bodies {
		b := bodies.Get(bi)
		b.Node = ni
		union = union.Merge(b.ExtendedBounds)
		state = state.Merge(b.State)
	}
	n.CurrentBounds = union
	n.State = state
}

func (t *Tree) gather(ni NodeIndex, out *[]BodyIndex) {
	n := t.nodes.Get(ni)
	if n.IsLeaf() {
		*out = append(*out, n.Bodies...)
		return
	}
	c0, c1 := n.Children[0], n.Children[1]
	t.gather(c0, out)
	t.gather(c1, out)
	t.nodes.Remove(c0)
	t.nodes.Remove(c1)
}

// trySplit splits an over-capacity leaf at the median of the longest
// axis and recurses until every leaf is at or under capacity. Returns
// the resulting subtree height.
func (t *Tree) trySplit(ni NodeIndex, bodies *bodyTable) int32 {
	n := t.nodes.Get(ni)
	if len(n.Bodies) <= t.capacity {
		n.Height = 0
		return 0
	}

	union := EmptyBounds()
	for _, bi := range n.Bodies {
		union = union.Merge(bodies.Get(bi).ExtendedBounds)
	}
	axis := union.LongestAxis()

	list := n.Bodies
	sort.Slice(list, func(i, j int) bool {
		return bodies.Get(list[i]).ExtendedBounds.AxisMid(axis) <
			bodies.Get(list[j]).ExtendedBounds.AxisMid(axis)
	})

	half := len(list) / 2
	left := append([]BodyIndex(nil), list[:half]...)
	right := append([]BodyIndex(nil), list[half:]...)
	alloc := n.AllocatedBounds

	li := t.nodes.Add(t.makeLeaf(left, ni, alloc, bodies))
	ri := t.nodes.Add(t.makeLeaf(right, ni, alloc, bodies))
	for _, bi := range left {
		bodies.Get(bi).Node = li
	}
	for _, bi := range right {
		bodies.Get(bi).Node = ri
	}

	n = t.nodes.Get(ni)
	n.Bodies = nil
	n.Children = [2]NodeIndex{li, ri}

	hl := t.trySplit(li, bodies)
	hr := t.trySplit(ri, bodies)

	n = t.nodes.Get(ni)
	n.Height = 1 + maxInt32(hl, hr)
	return n.Height
}

// makeLeaf builds a leaf node around a body list. Its allocated bounds
// are clamped inside the parent's so the containment invariant holds
// even when the parent's current bounds touch its allocated boundary.
func (t *Tree) makeLeaf(list []BodyIndex, parent NodeIndex, parentAlloc BoundingBox, bodies *bodyTable) BvhNode {
	union := EmptyBounds()
	state := StateStatic
	for _, bi := range list {
		b := bodies.Get(bi)
		union = union.Merge(b.ExtendedBounds)
		state = state.Merge(b.State)
	}
	return BvhNode{
		CurrentBounds:   union,
		AllocatedBounds: union.Expand(t.margin).Intersect(parentAlloc),
		Parent:          parent,
		Children:        [2]NodeIndex{NilNode, NilNode},
		Bodies:          list,
		State:           state,
	}
}

func (t *Tree) recomputeLeaf(ni NodeIndex, bodies *bodyTable) {
	n := t.nodes.Get(ni)
	union := EmptyBounds()
	state := StateStatic
	for _, bi := range n.Bodies {
		b := bodies.Get(bi)
		union = union.Merge(b.ExtendedBounds)
		state = state.Merge(b.State)
	}
	n.CurrentBounds = union
	n.State = state
}

// UpdateBounds refits the tree bottom-up: leaves recompute from their
// bodies' extended bounds, internal nodes from their children. States
// are re-aggregated in the same pass.
func (t *Tree) UpdateBounds(bodies *bodyTable) {
	if t.root != NilNode {
		t.updateBoundsRec(t.root, bodies)
	}
}

func (t *Tree) updateBoundsRec(ni NodeIndex, bodies *bodyTable) (BoundingBox, NodeState, int32) {
	n := t.nodes.Get(ni)
	if n.IsLeaf() {
		t.recomputeLeaf(ni, bodies)
		n.Height = 0
		assert(n.CurrentBounds.IsEmpty() || n.AllocatedBounds.Contains(n.CurrentBounds),
			"refit: leaf current bounds escaped allocated bounds")
		return n.CurrentBounds, n.State, 0
	}
	b0, s0, h0 := t.updateBoundsRec(n.Children[0], bodies)
	b1, s1, h1 := t.updateBoundsRec(n.Children[1], bodies)
	n.CurrentBounds = b0.Merge(b1)
	n.State = s0.Merge(s1)
	n.Height = 1 + maxInt32(h0, h1)
	assert(n.CurrentBounds.IsEmpty() || n.AllocatedBounds.Contains(n.CurrentBounds),
		"refit: current bounds escaped allocated bounds")
	return n.CurrentBounds, n.State, n.Height
}

// Rebalance walks post-order and collapses-and-resplits any internal
// node whose child heights differ by more than one, amortizing the
// skew that median splitting accumulates as bodies move.
func (t *Tree) Rebalance(bodies *bodyTable) {
	if t.root != NilNode {
		t.rebalanceRec(t.root, bodies)
	}
}

func (t *Tree) rebalanceRec(ni NodeIndex, bodies *bodyTable) int32 {
	n := t.nodes.Get(ni)
	if n.IsLeaf() {
		n.Height = 0
		return 0
	}
	h0 := t.rebalanceRec(n.Children[0], bodies)
	h1 := t.rebalanceRec(n.Children[1], bodies)

	if h0-h1 > 1 || h1-h0 > 1 {
		t.collapse(ni, bodies)
		return t.trySplit(ni, bodies)
	}

	n = t.nodes.Get(ni)
	n.Height = 1 + maxInt32(h0, h1)
	return n.Height
}

// TraverseOverlappingNodes reports every overlapping leaf pair between
// the subtrees at a and b. A pair whose sides are both dormant is
// skipped whole.
func (t *Tree) TraverseOverlappingNodes(a, b NodeIndex, fn func(a, b NodeIndex)) {
	na, nb := t.nodes.Get(a), t.nodes.Get(b)
	if na.State.Dormant() && nb.State.Dormant() {
		return
	}
	if !na.CurrentBounds.Overlaps(nb.CurrentBounds) {
		return
	}
	switch {
	case na.IsLeaf() && nb.IsLeaf():
		fn(a, b)
	case na.IsLeaf():
		t.TraverseOverlappingNodes(a, nb.Children[0], fn)
		t.TraverseOverlappingNodes(a, nb.Children[1], fn)
	case nb.IsLeaf():
		t.TraverseOverlappingNodes(na.Children[0], b, fn)
		t.TraverseOverlappingNodes(na.Children[1], b, fn)
	default:
		t.TraverseOverlappingNodes(na.Children[0], nb.Children[0], fn)
		t.TraverseOverlappingNodes(na.Children[0], nb.Children[1], fn)
		t.TraverseOverlappingNodes(na.Children[1], nb.Children[0], fn)
		t.TraverseOverlappingNodes(na.Children[1], nb.Children[1], fn)
	}
}

// CheckCollisions enumerates every candidate body pair whose tight
// bounds overlap: cross-tests between the two children of each internal
// node, plus all-pairs within each non-dormant leaf. Each pair is
// reported exactly once.
func (t *Tree) CheckCollisions(bodies *bodyTable, fn func(a, b BodyIndex)) {
	if t.root == NilNode {
		return
	}
	t.checkNode(t.root, bodies, fn)
}

func (t *Tree) checkNode(ni NodeIndex, bodies *bodyTable, fn func(a, b BodyIndex)) {
	n := t.nodes.Get(ni)
	if n.IsLeaf() {
		if n.State.Dormant() {
			return
		}
		for i := 0; i < len(n.Bodies); i++ {
			for j := i + 1; j < len(n.Bodies); j++ {
				t.testBodyPair(n.Bodies[i], n.Bodies[j], bodies, fn)
			}
		}
		return
	}
	t.TraverseOverlappingNodes(n.Children[0], n.Children[1], func(a, b NodeIndex) {
		la, lb := t.nodes.Get(a), t.nodes.Get(b)
		for _, ba := range la.Bodies {
			for _, bb := range lb.Bodies {
				t.testBodyPair(ba, bb, bodies, fn)
			}
		}
	})
	t.checkNode(n.Children[0], bodies, fn)
	t.checkNode(n.Children[1], bodies, fn)
}

func (t *Tree) testBodyPair(a, b BodyIndex, bodies *bodyTable, fn func(a, b BodyIndex)) {
	ba, bb := bodies.Get(a), bodies.Get(b)
	if ba.State.Dormant() && bb.State.Dormant() {
		return
	}
	// Candidate confirmation uses the tight bounds, not the inflated ones.
	if ba.Bounds.Overlaps(bb.Bounds) {
		fn(a, b)
	}
}

// EachLeaf visits every leaf node.
func (t *Tree) EachLeaf(fn func(NodeIndex, *BvhNode)) {
	t.nodes.Each(func(i NodeIndex, n *BvhNode) {
		if n.IsLeaf() {
			fn(i, n)
		}
	})
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	count := 0
	t.EachLeaf(func(NodeIndex, *BvhNode) { count++ })
	return count
}

// Height returns the root height, -1 for an empty tree.
func (t *Tree) Height() int32 {
	if t.root == NilNode {
		return -1
	}
	return t.nodes.Get(t.root).Height
}

// Validate walks the whole tree checking the structural invariants.
// Intended for tests; returns the first violation found.
func (t *Tree) Validate(bodies *bodyTable) error {
	if t.root == NilNode {
		return nil
	}
	if p := t.nodes.Get(t.root).Parent; p != NilNode {
		return fmt.Errorf("root %d: non-nil parent %d", t.root, p)
	}
	return t.validateRec(t.root, bodies)
}

func (t *Tree) validateRec(ni NodeIndex, bodies *bodyTable) error {
	n := t.nodes.Get(ni)
	if n == nil {
		return fmt.Errorf("node %d: dead index in tree", ni)
	}
	if !n.CurrentBounds.IsEmpty() && !n.AllocatedBounds.Contains(n.CurrentBounds) {
		return fmt.Errorf("node %d: allocated bounds do not contain current bounds", ni)
	}
	if n.IsLeaf() {
		if n.Children[1] != NilNode {
			return fmt.Errorf("node %d: leaf with one child", ni)
		}
		if len(n.Bodies) == 0 {
			return fmt.Errorf("node %d: empty leaf left in tree", ni)
		}
		for _, bi := range n.Bodies {
			b := bodies.Get(bi)
			if b == nil {
				return fmt.Errorf("node %d: dead body %d", ni, bi)
			}
			if b.Node != ni {
				return fmt.Errorf("body %d: back-reference %d, held by %d", bi, b.Node, ni)
			}
			if !n.AllocatedBounds.Contains(b.ExtendedBounds) {
				return fmt.Errorf("body %d: extended bounds escape leaf %d allocated bounds", bi, ni)
			}
		}
		return nil
	}
	if len(n.Bodies) != 0 {
		return fmt.Errorf("node %d: internal node holding bodies", ni)
	}
	for _, ci := range n.Children {
		c := t.nodes.Get(ci)
		if c == nil {
			return fmt.Errorf("node %d: dead child %d", ni, ci)
		}
		if c.Parent != ni {
			return fmt.Errorf("node %d: child %d has parent %d", ni, ci, c.Parent)
		}
		if !n.AllocatedBounds.Contains(c.AllocatedBounds) {
			return fmt.Errorf("node %d: allocated bounds do not contain child %d's", ni, ci)
		}
		if err := t.validateRec(ci, bodies); err != nil {
			return err
		}
	}
	return nil
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
