package collision

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// NarrowPhaseFunc confirms a candidate pair and yields the contact
// normal (unit, pointing from a to b) and penetration depth. The world
// accepts any implementation; TestShapes is the built-in one.
type NarrowPhaseFunc func(a, b Shape) (normal rl.Vector3, depth float32, ok bool)

// TestShapes dispatches an analytic intersection test per shape pair:
// SAT for box/box, closest-point tests for spheres, and a support-based
// sphere approximation for anything else.
func TestShapes(a, b Shape) (rl.Vector3, float32, bool) {
	switch sa := a.(type) {
	case *SphereShape:
		switch sb := b.(type) {
		case *SphereShape:
			return testSphereSphere(sa, sb)
		case *BoxShape:
			n, d, ok := testSphereBox(sa, sb)
			return rl.Vector3Scale(n, -1), d, ok
		}
	case *BoxShape:
		switch sb := b.(type) {
		case *SphereShape:
			return testSphereBox(sb, sa)
		case *BoxShape:
			return testBoxBox(sa, sb)
		}
	}
	return testSupportSpheres(a, b)
}

func testSphereSphere(a, b *SphereShape) (rl.Vector3, float32, bool) {
	diff := rl.Vector3Subtract(b.Center, a.Center)
	dist := rl.Vector3Length(diff)
	minDist := a.Radius + b.Radius
	if dist >= minDist || dist < 1e-5 {
		return rl.Vector3{}, 0, false
	}
	return rl.Vector3Scale(diff, 1/dist), minDist - dist, true
}

// testSphereBox returns a normal pointing from the box toward the sphere.
func testSphereBox(s *SphereShape, b *BoxShape) (rl.Vector3, float32, bool) {
	closest := closestPointOnBox(b, s.Center)
	diff := rl.Vector3Subtract(s.Center, closest)
	dist := rl.Vector3Length(diff)
	if dist >= s.Radius || dist < 1e-5 {
		return rl.Vector3{}, 0, false
	}
	return rl.Vector3Scale(diff, 1/dist), s.Radius - dist, true
}

func closestPointOnBox(b *BoxShape, point rl.Vector3) rl.Vector3 {
	local := rl.Vector3Subtract(point, b.Center)
	result := b.Center
	half := [3]float32{b.HalfSize.X, b.HalfSize.Y, b.HalfSize.Z}
	for i := 0; i < 3; i++ {
		c := clampf(rl.Vector3DotProduct(local, b.Axes[i]), -half[i], half[i])
		result = rl.Vector3Add(result, rl.Vector3Scale(b.Axes[i], c))
	}
	return result
}

// testBoxBox runs the Separating Axis Theorem over the 15 candidate
// axes (3 face normals each plus 9 edge cross products) and keeps the
// axis of minimum penetration.
func testBoxBox(a, b *BoxShape) (rl.Vector3, float32, bool) {
	t := rl.Vector3Subtract(b.Center, a.Center)

	minPenetration := float32(math32.MaxFloat32)
	var normal rl.Vector3
	separated := false

	testAxis := func(axis rl.Vector3) {
		if separated || rl.Vector3Length(axis) < 1e-4 {
			return
		}
		axis = rl.Vector3Normalize(axis)

		aProj := projectBox(a, axis)
		bProj := projectBox(b, axis)
		dist := rl.Vector3DotProduct(t, axis)
		penetration := aProj + bProj - math32.Abs(dist)
		if penetration <= 0 {
			separated = true
			return
		}
		if penetration < minPenetration {
			minPenetration = penetration
			if dist >= 0 {
				normal = axis
			} else {
				normal = rl.Vector3Scale(axis, -1)
			}
		}
	}

	for i := 0; i < 3; i++ {
		testAxis(a.Axes[i])
	}
	for i := 0; i < 3; i++ {
		testAxis(b.Axes[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			testAxis(rl.Vector3CrossProduct(a.Axes[i], b.Axes[j]))
		}
	}

	if separated {
		return rl.Vector3{}, 0, false
	}
	return normal, minPenetration, true
}

func projectBox(b *BoxShape, axis rl.Vector3) float32 {
	return b.HalfSize.X*math32.Abs(rl.Vector3DotProduct(b.Axes[0], axis)) +
		b.HalfSize.Y*math32.Abs(rl.Vector3DotProduct(b.Axes[1], axis)) +
		b.HalfSize.Z*math32.Abs(rl.Vector3DotProduct(b.Axes[2], axis))
}

// testSupportSpheres approximates arbitrary shapes by their bounding
// spheres. Coarse, but it keeps the world usable with external shapes
// until a real penetration solver is plugged in.
func testSupportSpheres(a, b Shape) (rl.Vector3, float32, bool) {
	ca := ShapeBounds(a).Center()
	cb := ShapeBounds(b).Center()
	diff := rl.Vector3Subtract(cb, ca)
	dist := rl.Vector3Length(diff)
	minDist := a.MaxRadius() + b.MaxRadius()
	if dist >= minDist || dist < 1e-5 {
		return rl.Vector3{}, 0, false
	}
	return rl.Vector3Scale(diff, 1/dist), minDist - dist, true
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
