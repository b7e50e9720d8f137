package collision

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Stable indices into the world's slot-map tables. -1 is the null
// sentinel for all three.
type (
	BodyIndex    int32
	NodeIndex    int32
	ContactIndex int32
)

const (
	NilBody    BodyIndex    = -1
	NilNode    NodeIndex    = -1
	NilContact ContactIndex = -1
)

// Checked enables contract assertions: containment preconditions,
// circular-list detection, and static-island violations. These are
// programmer errors, so they panic rather than return. Disable in
// release builds where violated contracts are undefined behavior.
var Checked = true

func assert(cond bool, msg string) {
	if Checked && !cond {
		panic("collision: " + msg)
	}
}

// NodeState describes how a body participates in the simulation.
// States merge by loosest-wins: Dynamic dominates Sleeping dominates
// Static, which the ordering of the constants encodes.
type NodeState uint8

const (
	StateStatic NodeState = iota
	StateSleeping
	StateDynamic
)

// Merge returns the loosest of the two states.
func (s NodeState) Merge(o NodeState) NodeState {
	if o > s {
		return o
	}
	return s
}

// Dormant reports whether the state never initiates motion on its own.
func (s NodeState) Dormant() bool {
	return s != StateDynamic
}

func (s NodeState) String() string {
	switch s {
	case StateStatic:
		return "static"
	case StateSleeping:
		return "sleeping"
	default:
		return "dynamic"
	}
}

// Body is one collidable entry in the world's body table. All links to
// other entries are indices so the tables can recycle slots freely.
type Body struct {
	Shape   Shape
	Trigger bool

	// Bounds is tight around the shape; ExtendedBounds is the
	// margin-inflated box used for tree placement and stays stable
	// across small motions.
	Bounds         BoundingBox
	ExtendedBounds BoundingBox

	State NodeState

	// Node is the tree leaf currently holding this body, for O(1) removal.
	Node NodeIndex

	// Island is the union-find parent pointer; a root points to itself
	// and statics stay at NilBody. NextBody/PrevBody thread this body
	// into its island's intrusive membership list.
	Island   BodyIndex
	NextBody BodyIndex
	PrevBody BodyIndex

	// Island record, meaningful only while this body is a root: heads
	// and tails of the member and contact lists, plus the dirty flag
	// set when a contact was unlinked and connectivity may be stale.
	HeadBody    BodyIndex
	TailBody    BodyIndex
	HeadContact ContactIndex
	TailContact ContactIndex
	Dirty       bool

	sleepTimer float32
}

// ContactRef is one side of a contact.
type ContactRef struct {
	Body    BodyIndex
	Trigger bool
	Static  bool
}

// Contact joins two bodies whose shapes intersect. It threads into its
// island's intrusive contact list.
type Contact struct {
	A, B ContactRef

	// Island is the root body index of the island owning this contact.
	Island      BodyIndex
	NextContact ContactIndex
	PrevContact ContactIndex

	Surface ContactSurface
}

// Other returns the body on the opposite side of b.
func (c *Contact) Other(b BodyIndex) BodyIndex {
	if c.A.Body == b {
		return c.B.Body
	}
	return c.A.Body
}

// ContactSurface is the computed contact manifold between two shapes.
type ContactSurface struct {
	// Intersection is the clipped contact patch, kept for diagnostics
	// and manifold-derived quantities.
	Intersection []rl.Vector3

	// Midpoint is the mean of the intersection points in world space.
	Midpoint rl.Vector3

	// Normal is unit length and points from shape A toward shape B.
	Normal rl.Vector3

	// Depth is the penetration along Normal.
	Depth float32

	// Area of the contact patch, consumed by friction and torque math.
	Area float32

	// The raw input contours, retained for diagnostics.
	ContourA []rl.Vector3
	ContourB []rl.Vector3
}
