package collision

import (
	"math/rand"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const testMargin = 0.2

func addTestBody(bodies *bodyTable, center, size rl.Vector3, state NodeState) BodyIndex {
	bounds := BoundsFromCenter(center, size)
	return bodies.Add(Body{
		Bounds:         bounds,
		ExtendedBounds: bounds.Expand(testMargin),
		State:          state,
		Node:           NilNode,
		Island:         NilBody,
		NextBody:       NilBody,
		PrevBody:       NilBody,
		HeadBody:       NilBody,
		TailBody:       NilBody,
		HeadContact:    NilContact,
		TailContact:    NilContact,
	})
}

func treeBodySet(tr *Tree) map[BodyIndex]int {
	seen := make(map[BodyIndex]int)
	tr.EachLeaf(func(_ NodeIndex, n *BvhNode) {
		for _, bi := range n.Bodies {
			seen[bi]++
		}
	})
	return seen
}

func TestTreeInsertSingle(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)

	bi := addTestBody(&bodies, vec3(0, 0, 0), vec3(1, 1, 1), StateDynamic)
	tr.Insert(bi, &bodies)

	if tr.Root() == NilNode {
		t.Fatal("tree should have a root after insert")
	}
	if bodies.Get(bi).Node != tr.Root() {
		t.Error("body back-reference should point at the root leaf")
	}
	root := tr.Node(tr.Root())
	if !root.AllocatedBounds.Contains(root.CurrentBounds) {
		t.Error("allocated bounds should contain current bounds")
	}
	if err := tr.Validate(&bodies); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTreeCompleteness(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)
	rng := rand.New(rand.NewSource(7))

	var inserted []BodyIndex
	for i := 0; i < 100; i++ {
		center := vec3(rng.Float32()*40-20, rng.Float32()*40-20, rng.Float32()*40-20)
		bi := addTestBody(&bodies, center, vec3(1, 1, 1), StateDynamic)
		tr.Insert(bi, &bodies)
		inserted = append(inserted, bi)
	}

	seen := treeBodySet(tr)
	if len(seen) != len(inserted) {
		t.Fatalf("tree holds %d bodies, want %d", len(seen), len(inserted))
	}
	for _, bi := range inserted {
		if seen[bi] != 1 {
			t.Errorf("body %d appears in %d leaves, want 1", bi, seen[bi])
		}
	}
	if err := tr.Validate(&bodies); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTreeGrowRoot(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)

	a := addTestBody(&bodies, vec3(0, 0, 0), vec3(1, 1, 1), StateDynamic)
	tr.Insert(a, &bodies)

	// Far outside the root's allocated bounds.
	b := addTestBody(&bodies, vec3(100, 0, 0), vec3(1, 1, 1), StateDynamic)
	tr.Insert(b, &bodies)

	seen := treeBodySet(tr)
	if seen[a] != 1 || seen[b] != 1 {
		t.Errorf("both bodies should survive root growth, got %v", seen)
	}
	if err := tr.Validate(&bodies); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTreeRemove(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 2)

	var all []BodyIndex
	for i := 0; i < 10; i++ {
		bi := addTestBody(&bodies, vec3(float32(i)*3, 0, 0), vec3(1, 1, 1), StateDynamic)
		tr.Insert(bi, &bodies)
		all = append(all, bi)
	}
	for _, bi := range all[:5] {
		tr.Remove(bi, &bodies)
		if bodies.Get(bi).Node != NilNode {
			t.Errorf("removed body %d still has a leaf back-reference", bi)
		}
	}

	seen := treeBodySet(tr)
	if len(seen) != 5 {
		t.Fatalf("tree holds %d bodies after removals, want 5", len(seen))
	}
	for _, bi := range all[:5] {
		if seen[bi] != 0 {
			t.Errorf("removed body %d still present", bi)
		}
	}
	if err := tr.Validate(&bodies); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTreeRemoveAll(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 2)

	var all []BodyIndex
	for i := 0; i < 8; i++ {
		bi := addTestBody(&bodies, vec3(float32(i)*3, 0, 0), vec3(1, 1, 1), StateDynamic)
		tr.Insert(bi, &bodies)
		all = append(all, bi)
	}
	for i, bi := range all {
		tr.Remove(bi, &bodies)
		bodies.Remove(bi)
		if lc, left := tr.LeafCount(), len(all)-i-1; lc > left {
			t.Fatalf("tree has %d leaves for %d bodies", lc, left)
		}
		if err := tr.Validate(&bodies); err != nil {
			t.Fatalf("Validate after removing body %d: %v", bi, err)
		}
	}
	if tr.Root() != NilNode {
		t.Fatal("tree should be empty after removing every body")
	}

	// The tree must come back from empty.
	bi := addTestBody(&bodies, vec3(0, 0, 0), vec3(1, 1, 1), StateDynamic)
	tr.Insert(bi, &bodies)
	if got := treeBodySet(tr); got[bi] != 1 {
		t.Errorf("reinserted body appears in %d leaves, want 1", got[bi])
	}
}

func collectPairs(tr *Tree, bodies *bodyTable) map[CollisionPair]bool {
	pairs := make(map[CollisionPair]bool)
	tr.CheckCollisions(bodies, func(a, b BodyIndex) {
		pairs[makePair(a, b)] = true
	})
	return pairs
}

func bruteForcePairs(bodies *bodyTable) map[CollisionPair]bool {
	var all []BodyIndex
	bodies.Each(func(bi BodyIndex, _ *Body) {
		all = append(all, bi)
	})
	pairs := make(map[CollisionPair]bool)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := bodies.Get(all[i]), bodies.Get(all[j])
			if a.State.Dormant() && b.State.Dormant() {
				continue
			}
			if a.Bounds.Overlaps(b.Bounds) {
				pairs[makePair(all[i], all[j])] = true
			}
		}
	}
	return pairs
}

func TestCheckCollisionsMatchesBruteForce(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 2)
	rng := rand.New(rand.NewSource(11))

	// Dense enough to produce plenty of overlaps.
	for i := 0; i < 150; i++ {
		center := vec3(rng.Float32()*20-10, rng.Float32()*20-10, rng.Float32()*20-10)
		size := vec3(rng.Float32()*2+0.5, rng.Float32()*2+0.5, rng.Float32()*2+0.5)
		state := StateDynamic
		if i%4 == 0 {
			state = StateStatic
		}
		bi := addTestBody(&bodies, center, size, state)
		tr.Insert(bi, &bodies)
	}

	got := collectPairs(tr, &bodies)
	want := bruteForcePairs(&bodies)

	for pair := range want {
		if !got[pair] {
			t.Errorf("missed overlapping pair (%d, %d)", pair.A, pair.B)
		}
	}
	for pair := range got {
		if !want[pair] {
			t.Errorf("reported non-overlapping or dormant pair (%d, %d)", pair.A, pair.B)
		}
	}
}

func TestCheckCollisionsSkipsDormantPairs(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)

	// Two overlapping statics must not be reported; a dynamic body on
	// top of a static must be.
	s1 := addTestBody(&bodies, vec3(0, 0, 0), vec3(2, 2, 2), StateStatic)
	s2 := addTestBody(&bodies, vec3(1, 0, 0), vec3(2, 2, 2), StateStatic)
	d := addTestBody(&bodies, vec3(0, 1, 0), vec3(2, 2, 2), StateDynamic)
	tr.Insert(s1, &bodies)
	tr.Insert(s2, &bodies)
	tr.Insert(d, &bodies)

	pairs := collectPairs(tr, &bodies)
	if pairs[makePair(s1, s2)] {
		t.Error("static-static pair should be skipped")
	}
	if !pairs[makePair(s1, d)] {
		t.Error("dynamic-static overlap should be reported")
	}
}

func checkBalanced(t *testing.T, tr *Tree, ni NodeIndex) {
	t.Helper()
	n := tr.Node(ni)
	if n.IsLeaf() {
		return
	}
	h0 := tr.Node(n.Children[0]).Height
	h1 := tr.Node(n.Children[1]).Height
	if h0-h1 > 1 || h1-h0 > 1 {
		t.Errorf("node %d: child heights %d and %d differ by more than one", ni, h0, h1)
	}
	checkBalanced(t, tr, n.Children[0])
	checkBalanced(t, tr, n.Children[1])
}

func TestTreeChurnAndRebalance(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)
	rng := rand.New(rand.NewSource(3))

	var all []BodyIndex
	for i := 0; i < 1000; i++ {
		center := vec3(rng.Float32()*100-50, rng.Float32()*100-50, rng.Float32()*100-50)
		size := vec3(rng.Float32()*1.5+0.5, rng.Float32()*1.5+0.5, rng.Float32()*1.5+0.5)
		bi := addTestBody(&bodies, center, size, StateDynamic)
		tr.Insert(bi, &bodies)
		all = append(all, bi)
	}
	rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	for _, bi := range all[:500] {
		tr.Remove(bi, &bodies)
		bodies.Remove(bi)
	}

	// Emptied leaves are pruned on removal, not deferred to the
	// rebalance pass.
	if lc := tr.LeafCount(); lc > bodies.Len() {
		t.Errorf("tree has %d leaves for %d bodies after removals", lc, bodies.Len())
	}

	if err := tr.Validate(&bodies); err != nil {
		t.Fatalf("Validate after churn: %v", err)
	}

	tr.UpdateBounds(&bodies)
	tr.Rebalance(&bodies)

	if err := tr.Validate(&bodies); err != nil {
		t.Fatalf("Validate after rebalance: %v", err)
	}
	checkBalanced(t, tr, tr.Root())

	seen := treeBodySet(tr)
	if len(seen) != 500 {
		t.Errorf("tree holds %d bodies after churn, want 500", len(seen))
	}
}

func TestTreeRefitAfterMovement(t *testing.T) {
	var bodies bodyTable
	tr := NewTree(testMargin, 1)

	var all []BodyIndex
	for i := 0; i < 20; i++ {
		bi := addTestBody(&bodies, vec3(float32(i)*2, 0, 0), vec3(1, 1, 1), StateDynamic)
		tr.Insert(bi, &bodies)
		all = append(all, bi)
	}

	// Nudge bodies within their extended bounds; the refit must keep
	// every node's current bounds inside its allocated bounds.
	for _, bi := range all {
		b := bodies.Get(bi)
		center := rl.Vector3Add(b.Bounds.Center(), vec3(0.05, 0.05, 0))
		b.Bounds = BoundsFromCenter(center, vec3(1, 1, 1))
	}
	tr.UpdateBounds(&bodies)

	if err := tr.Validate(&bodies); err != nil {
		t.Errorf("Validate after refit: %v", err)
	}
}
