package collision

import (
	"log"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collide3d/internal/config"
)

// CollisionPair identifies an unordered body pair (smaller index first).
type CollisionPair struct {
	A, B BodyIndex
}

func makePair(a, b BodyIndex) CollisionPair {
	if a > b {
		return CollisionPair{A: b, B: a}
	}
	return CollisionPair{A: a, B: b}
}

// World owns the three slot-map tables (bodies, tree nodes, contacts)
// and runs the broad phase, narrow phase and island maintenance as one
// synchronous step per fixed tick. Nothing here is safe for concurrent
// mutation; the owning scheduler must treat a step as atomic.
type World struct {
	tuning config.Tuning

	bodies   bodyTable
	contacts contactTable
	tree     *Tree
	islands  Islands
	gen      *ContactGenerator
	narrow   NarrowPhaseFunc

	// Contact persistence across ticks, keyed by body pair.
	pairContacts map[CollisionPair]ContactIndex
	contactMap   map[BodyIndex][]ContactIndex

	// Pair tracking for enter/exit callbacks.
	activePairs  map[CollisionPair]bool
	currentPairs map[CollisionPair]bool
	onEnter      func(a, b BodyIndex)
	onExit       func(a, b BodyIndex)

	tick            uint64
	lastLoggedCount int
}

// NewWorld creates a collision world with the given tuning and the
// built-in analytic narrow phase.
func NewWorld(tuning config.Tuning) *World {
	return &World{
		tuning:       tuning,
		tree:         NewTree(tuning.BoundsMargin, tuning.LeafCapacity),
		gen:          NewContactGenerator(tuning.ClipTolerance),
		narrow:       TestShapes,
		pairContacts: make(map[CollisionPair]ContactIndex),
		contactMap:   make(map[BodyIndex][]ContactIndex),
		activePairs:  make(map[CollisionPair]bool),
		currentPairs: make(map[CollisionPair]bool),
	}
}

// SetNarrowPhase replaces the pair-confirmation test, e.g. with an
// external GJK/EPA solver.
func (w *World) SetNarrowPhase(fn NarrowPhaseFunc) {
	w.narrow = fn
}

// SetCollisionCallbacks registers enter/exit handlers, invoked at the
// end of each step for pairs that started or stopped touching.
func (w *World) SetCollisionCallbacks(onEnter, onExit func(a, b BodyIndex)) {
	w.onEnter = onEnter
	w.onExit = onExit
}

// AddBody registers a shape with the world and places it in the tree.
func (w *World) AddBody(shape Shape, state NodeState, trigger bool) BodyIndex {
	bounds := ShapeBounds(shape)
	bi := w.bodies.Add(Body{
		Shape:          shape,
		Trigger:        trigger,
		Bounds:         bounds,
		ExtendedBounds: bounds.Expand(w.tuning.BoundsMargin),
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
	if state != StateStatic {
		w.islands.Register(&w.bodies, bi)
	}
	w.tree.Insert(bi, &w.bodies)
	return bi
}

// RemoveBody drops a body, its contacts and its island membership.
func (w *World) RemoveBody(bi BodyIndex) {
	if !w.bodies.Alive(bi) {
		return
	}
	for pair, ci := range w.pairContacts {
		if pair.A != bi && pair.B != bi {
			continue
		}
		w.islands.Unlink(&w.bodies, &w.contacts, ci)
		w.contacts.Remove(ci)
		delete(w.pairContacts, pair)
		delete(w.activePairs, pair)
		delete(w.currentPairs, pair)
	}
	w.islands.MergeRootIslands(&w.bodies, &w.contacts)
	w.islands.RemoveBody(&w.bodies, &w.contacts, bi)
	w.tree.Remove(bi, &w.bodies)
	w.bodies.Remove(bi)
}

// UpdateBody recomputes a body's bounds after its shape moved. The
// extended bounds only change when the tight bounds escape them, which
// keeps the tree stable across small motions; when they do change the
// body is re-placed so its leaf's allocated bounds still contain it.
func (w *World) UpdateBody(bi BodyIndex) {
	b := w.bodies.Get(bi)
	b.Bounds = ShapeBounds(b.Shape)
	if b.ExtendedBounds.Contains(b.Bounds) {
		return
	}
	b.ExtendedBounds = b.Bounds.Expand(w.tuning.BoundsMargin)
	w.tree.Remove(bi, &w.bodies)
	w.tree.Insert(bi, &w.bodies)
}

// Body returns the entry at bi, or nil.
func (w *World) Body(bi BodyIndex) *Body {
	return w.bodies.Get(bi)
}

// Contact returns the entry at ci, or nil.
func (w *World) Contact(ci ContactIndex) *Contact {
	return w.contacts.Get(ci)
}

// Tree exposes the broad-phase hierarchy, mainly for debug drawing.
func (w *World) Tree() *Tree {
	return w.tree
}

// IslandOf returns the island root of bi, NilBody for statics.
func (w *World) IslandOf(bi BodyIndex) BodyIndex {
	return w.islands.RepresentativeCompress(&w.bodies, bi)
}

// EachIslandBody visits the members of the island rooted at root.
func (w *World) EachIslandBody(root BodyIndex, fn func(BodyIndex)) {
	w.islands.EachIslandBody(&w.bodies, root, fn)
}

// EachIslandContact visits the contacts of the island rooted at root.
func (w *World) EachIslandContact(root BodyIndex, fn func(ContactIndex)) {
	w.islands.EachIslandContact(&w.bodies, &w.contacts, root, fn)
}

// EachContact visits every live contact.
func (w *World) EachContact(fn func(ContactIndex, *Contact)) {
	w.contacts.Each(fn)
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	return w.bodies.Len()
}

// ContactCount returns the number of live contacts.
func (w *World) ContactCount() int {
	return w.contacts.Len()
}

// Step runs one collision tick: refit, periodic rebalance, candidate
// enumeration, narrow phase, manifold generation, contact persistence
// and island maintenance. After Step returns, island connectivity is
// exact and ready for the solver and sleeping logic.
func (w *World) Step() {
	w.tick++

	w.tree.UpdateBounds(&w.bodies)
	if w.tuning.RebalanceInterval > 0 && w.tick%uint64(w.tuning.RebalanceInterval) == 0 {
		w.tree.Rebalance(&w.bodies)
	}

	w.currentPairs = make(map[CollisionPair]bool)
	w.tree.CheckCollisions(&w.bodies, w.handleCandidate)

	// Expire contacts whose pair no longer touches. Dormant pairs are
	// skipped by the broad phase, not separated; their contacts are kept
	// so sleeping islands stay intact.
	for pair, ci := range w.pairContacts {
		if w.currentPairs[pair] {
			continue
		}
		ba, bb := w.bodies.Get(pair.A), w.bodies.Get(pair.B)
		if ba.State.Dormant() && bb.State.Dormant() {
			w.currentPairs[pair] = true
			continue
		}
		w.islands.Unlink(&w.bodies, &w.contacts, ci)
		w.contacts.Remove(ci)
		delete(w.pairContacts, pair)
	}

	w.islands.MergeRootIslands(&w.bodies, &w.contacts)
	w.rebuildContactMap()
	w.islands.ReconstructDirty(&w.bodies, &w.contacts, w.contactMap)

	w.dispatchPairEvents()

	if n := w.bodies.Len(); n > 0 && n%500 == 0 && n != w.lastLoggedCount {
		w.lastLoggedCount = n
		log.Printf("collision: %d bodies, %d contacts, tree height %d", n, w.contacts.Len(), w.tree.Height())
	}
}

// handleCandidate confirms a broad-phase pair and creates or refreshes
// its contact.
func (w *World) handleCandidate(a, b BodyIndex) {
	pair := makePair(a, b)
	if w.currentPairs[pair] {
		return
	}
	ba, bb := w.bodies.Get(pair.A), w.bodies.Get(pair.B)

	normal, depth, ok := w.narrow(ba.Shape, bb.Shape)
	if !ok {
		return
	}
	w.currentPairs[pair] = true

	// Reference point on the contact plane: the deepest point of A
	// pulled back by half the penetration.
	ref := rl.Vector3Subtract(ba.Shape.Support(normal), rl.Vector3Scale(normal, depth*0.5))
	surface := w.gen.Generate(ba.Shape, bb.Shape, normal, ref, depth)

	if ci, exists := w.pairContacts[pair]; exists {
		w.contacts.Get(ci).Surface = surface
		return
	}
	ci := w.contacts.Add(Contact{
		A:           ContactRef{Body: pair.A, Trigger: ba.Trigger, Static: ba.State == StateStatic},
		B:           ContactRef{Body: pair.B, Trigger: bb.Trigger, Static: bb.State == StateStatic},
		Island:      NilBody,
		NextContact: NilContact,
		PrevContact: NilContact,
		Surface:     surface,
	})
	w.pairContacts[pair] = ci
	w.islands.Link(&w.bodies, &w.contacts, ci)

	// A moving body touching a sleeper drags the whole sleeping island
	// awake; sleepers settle back through TrySleep.
	if ba.State == StateDynamic && bb.State == StateSleeping {
		w.WakeBody(pair.B)
	} else if bb.State == StateDynamic && ba.State == StateSleeping {
		w.WakeBody(pair.A)
	}
}

func (w *World) rebuildContactMap() {
	for k := range w.contactMap {
		delete(w.contactMap, k)
	}
	w.contacts.Each(func(ci ContactIndex, c *Contact) {
		if !c.A.Static {
			w.contactMap[c.A.Body] = append(w.contactMap[c.A.Body], ci)
		}
		if !c.B.Static {
			w.contactMap[c.B.Body] = append(w.contactMap[c.B.Body], ci)
		}
	})
}

func (w *World) dispatchPairEvents() {
	if w.onEnter != nil {
		for pair := range w.currentPairs {
			if !w.activePairs[pair] {
				w.onEnter(pair.A, pair.B)
			}
		}
	}
	if w.onExit != nil {
		for pair := range w.activePairs {
			if !w.currentPairs[pair] {
				w.onExit(pair.A, pair.B)
			}
		}
	}
	w.activePairs = w.currentPairs
}

// WakeBody flips a sleeping body and its entire island back to dynamic.
// Waking island-wide is the point of tracking islands for the sleeping
// system: one disturbed body invalidates the rest of its stack.
func (w *World) WakeBody(bi BodyIndex) {
	b := w.bodies.Get(bi)
	if b == nil || b.State != StateSleeping {
		return
	}
	root := w.islands.RepresentativeCompress(&w.bodies, bi)
	if root == NilBody {
		b.State = StateDynamic
		b.sleepTimer = 0
		return
	}
	w.islands.EachIslandBody(&w.bodies, root, func(mi BodyIndex) {
		m := w.bodies.Get(mi)
		if m.State == StateSleeping {
			m.State = StateDynamic
			m.sleepTimer = 0
		}
	})
}

// TrySleep accumulates low-motion time for a dynamic body and puts it
// to sleep once the tuned threshold is exceeded. speed is supplied by
// the integrator, which owns velocities. Returns true if the body is
// now sleeping.
func (w *World) TrySleep(bi BodyIndex, speed, dt float32) bool {
	b := w.bodies.Get(bi)
	if b == nil || b.State != StateDynamic {
		return b != nil && b.State == StateSleeping
	}
	if speed < w.tuning.SleepVelocity {
		b.sleepTimer += dt
		if b.sleepTimer >= w.tuning.SleepTime {
			b.State = StateSleeping
			return true
		}
	} else {
		b.sleepTimer = 0
	}
	return false
}
