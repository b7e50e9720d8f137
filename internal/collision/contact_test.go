package collision

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestBoxBoxSeparated(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(3, 0, 0), vec3(1, 1, 1))

	if _, _, ok := TestShapes(a, b); ok {
		t.Error("separated boxes should not collide")
	}
}

func TestBoxBoxFaceOverlap(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(0, 0, 0.9), vec3(1, 1, 1))

	normal, depth, ok := TestShapes(a, b)
	if !ok {
		t.Fatal("stacked boxes should collide")
	}
	if !vecApproxEq(normal, vec3(0, 0, 1), 1e-5) {
		t.Errorf("normal = %+v, want (0, 0, 1)", normal)
	}
	if !approxEq(depth, 0.1, 1e-5) {
		t.Errorf("depth = %v, want 0.1", depth)
	}
}

func TestSphereSphere(t *testing.T) {
	a := NewSphereShape(vec3(0, 0, 0), 1)
	b := NewSphereShape(vec3(1.5, 0, 0), 1)

	normal, depth, ok := TestShapes(a, b)
	if !ok {
		t.Fatal("overlapping spheres should collide")
	}
	if !vecApproxEq(normal, vec3(1, 0, 0), 1e-5) {
		t.Errorf("normal = %+v, want (1, 0, 0)", normal)
	}
	if !approxEq(depth, 0.5, 1e-5) {
		t.Errorf("depth = %v, want 0.5", depth)
	}

	far := NewSphereShape(vec3(3, 0, 0), 1)
	if _, _, ok := TestShapes(a, far); ok {
		t.Error("distant spheres should not collide")
	}
}

func TestSphereBoxNormalOrientation(t *testing.T) {
	box := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	sphere := NewSphereShape(vec3(0, 0.9, 0), 0.5)

	// Box first: normal points from the box toward the sphere.
	normal, depth, ok := TestShapes(box, sphere)
	if !ok {
		t.Fatal("sphere resting on box should collide")
	}
	if !vecApproxEq(normal, vec3(0, 1, 0), 1e-5) {
		t.Errorf("box-sphere normal = %+v, want (0, 1, 0)", normal)
	}
	if !approxEq(depth, 0.1, 1e-5) {
		t.Errorf("depth = %v, want 0.1", depth)
	}

	// Swapped order flips the normal.
	normal2, _, ok := TestShapes(sphere, box)
	if !ok {
		t.Fatal("swapped pair should still collide")
	}
	if !vecApproxEq(normal2, vec3(0, -1, 0), 1e-5) {
		t.Errorf("sphere-box normal = %+v, want (0, -1, 0)", normal2)
	}
}

func TestGenerateFaceFaceManifold(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(0, 0, 0.9), vec3(1, 1, 1))
	gen := NewContactGenerator(0)

	surface := gen.Generate(a, b, vec3(0, 0, 1), vec3(0, 0, 0.45), 0.1)

	if len(surface.Intersection) != 4 {
		t.Fatalf("face-face manifold has %d points, want 4", len(surface.Intersection))
	}
	if !approxEq(surface.Area, 1, 1e-4) {
		t.Errorf("area = %v, want 1", surface.Area)
	}
	if !vecApproxEq(surface.Midpoint, vec3(0, 0, 0.45), 1e-4) {
		t.Errorf("midpoint = %+v, want (0, 0, 0.45)", surface.Midpoint)
	}
	if !approxEq(surface.Depth, 0.1, 1e-6) {
		t.Errorf("depth = %v, want 0.1", surface.Depth)
	}
	for _, p := range surface.Intersection {
		if !approxEq(p.Z, 0.45, 1e-4) {
			t.Errorf("manifold point %+v not on the contact plane", p)
		}
	}
}

func TestGeneratePartialFaceOverlap(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(0.5, 0.5, 0.9), vec3(1, 1, 1))
	gen := NewContactGenerator(0)

	surface := gen.Generate(a, b, vec3(0, 0, 1), vec3(0.25, 0.25, 0.45), 0.1)

	// Faces overlap in a 0.5 x 0.5 square.
	if !approxEq(surface.Area, 0.25, 1e-4) {
		t.Errorf("area = %v, want 0.25", surface.Area)
	}
	if !vecApproxEq(surface.Midpoint, vec3(0.25, 0.25, 0.45), 1e-4) {
		t.Errorf("midpoint = %+v, want (0.25, 0.25, 0.45)", surface.Midpoint)
	}
}

func TestGenerateSymmetry(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(0.3, 0.2, 0.9), vec3(1, 1, 1))
	gen := NewContactGenerator(0)

	normal := vec3(0, 0, 1)
	point := vec3(0.15, 0.1, 0.45)
	fwd := gen.Generate(a, b, normal, point, 0.1)
	rev := gen.Generate(b, a, rl.Vector3Scale(normal, -1), point, 0.1)

	if !approxEq(fwd.Area, rev.Area, 1e-4) {
		t.Errorf("area differs under swap: %v vs %v", fwd.Area, rev.Area)
	}
	if !vecApproxEq(fwd.Midpoint, rev.Midpoint, 1e-4) {
		t.Errorf("midpoint differs under swap: %+v vs %+v", fwd.Midpoint, rev.Midpoint)
	}
	if len(fwd.Intersection) != len(rev.Intersection) {
		t.Errorf("point count differs under swap: %d vs %d",
			len(fwd.Intersection), len(rev.Intersection))
	}
}

func TestGenerateEdgeFaceManifold(t *testing.T) {
	floor := NewAlignedBoxShape(vec3(0, 0, 0), vec3(4, 1, 4))
	// Tilted 45 degrees about Z: the silhouette facing down is an edge.
	tilted := NewBoxShape(vec3(0, 1.1, 0), vec3(1, 1, 1), vec3(0, 0, 45))
	gen := NewContactGenerator(0)

	surface := gen.Generate(floor, tilted, vec3(0, 1, 0), vec3(0, 0.5, 0), 0.1)

	if len(surface.Intersection) != 2 {
		t.Fatalf("edge-face manifold has %d points, want 2", len(surface.Intersection))
	}
	if !approxEq(surface.Area, 1*lineContactWidth, 1e-3) {
		t.Errorf("area = %v, want %v", surface.Area, 1*lineContactWidth)
	}
	// The contact edge runs along Z under the tilted box.
	p0, p1 := surface.Intersection[0], surface.Intersection[1]
	if !approxEq(p0.X, p1.X, 1e-4) || approxEq(p0.Z, p1.Z, 1e-4) {
		t.Errorf("contact edge %+v -> %+v should run along Z", p0, p1)
	}
}

func TestGeneratePointManifold(t *testing.T) {
	box := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	sphere := NewSphereShape(vec3(0, 0.9, 0), 0.5)
	gen := NewContactGenerator(0)

	surface := gen.Generate(box, sphere, vec3(0, 1, 0), vec3(0, 0.45, 0), 0.1)

	if len(surface.Intersection) != 1 {
		t.Fatalf("point manifold has %d points, want 1", len(surface.Intersection))
	}
	if surface.Area != nominalPointArea {
		t.Errorf("point contact area = %v, want %v", surface.Area, nominalPointArea)
	}
}

func TestGenerateParallelLineOverlap(t *testing.T) {
	// Two parallel horizontal capsules: the manifold is the overlapping
	// span of their side edges.
	a := NewCapsuleShape(vec3(-1, 0, 0), vec3(1, 0, 0), 0.5)
	b := NewCapsuleShape(vec3(-0.5, 0.9, 0), vec3(1.5, 0.9, 0), 0.5)
	gen := NewContactGenerator(0)

	surface := gen.Generate(a, b, vec3(0, 1, 0), vec3(0, 0.45, 0), 0.1)

	if len(surface.Intersection) != 2 {
		t.Fatalf("parallel line manifold has %d points, want 2", len(surface.Intersection))
	}
	if !approxEq(surface.Area, 1.5*lineContactWidth, 1e-3) {
		t.Errorf("area = %v, want %v", surface.Area, 1.5*lineContactWidth)
	}
	lo, hi := surface.Intersection[0].X, surface.Intersection[1].X
	if lo > hi {
		lo, hi = hi, lo
	}
	if !approxEq(lo, -0.5, 1e-3) || !approxEq(hi, 1, 1e-3) {
		t.Errorf("overlap span [%v, %v], want [-0.5, 1]", lo, hi)
	}
	if !approxEq(surface.Midpoint.X, 0.25, 1e-3) {
		t.Errorf("midpoint X = %v, want 0.25", surface.Midpoint.X)
	}
}

func TestGenerateDisjointContoursFallBackToPoint(t *testing.T) {
	a := NewAlignedBoxShape(vec3(0, 0, 0), vec3(1, 1, 1))
	b := NewAlignedBoxShape(vec3(3, 0, 0.9), vec3(1, 1, 1))
	gen := NewContactGenerator(0)

	ref := vec3(1.5, 0, 0.45)
	surface := gen.Generate(a, b, vec3(0, 0, 1), ref, 0.05)

	if len(surface.Intersection) != 0 {
		t.Fatalf("disjoint contours produced %d points, want 0", len(surface.Intersection))
	}
	if !vecApproxEq(surface.Midpoint, ref, 1e-6) {
		t.Errorf("midpoint = %+v, want the reference point %+v", surface.Midpoint, ref)
	}
	if surface.Area != nominalPointArea {
		t.Errorf("fallback area = %v, want %v", surface.Area, nominalPointArea)
	}
}

func TestTangentBasisFallback(t *testing.T) {
	// A normal nearly along X must not project against the X reference.
	t1, t2 := tangentBasis(vec3(1, 0, 0))
	if !approxEq(rl.Vector3Length(t1), 1, 1e-5) || !approxEq(rl.Vector3Length(t2), 1, 1e-5) {
		t.Error("tangent vectors should be unit length")
	}
	if !approxEq(rl.Vector3DotProduct(t1, vec3(1, 0, 0)), 0, 1e-5) {
		t.Error("t1 should be perpendicular to the normal")
	}
	if !approxEq(rl.Vector3DotProduct(t1, t2), 0, 1e-5) {
		t.Error("tangent vectors should be perpendicular to each other")
	}
}
