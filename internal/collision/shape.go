package collision

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Shape is the convex-geometry capability the collision world consumes.
// A penetration solver (GJK/EPA or analytic tests) lives outside this
// package and talks to shapes through the same surface.
type Shape interface {
	// Support returns the point on the shape furthest along dir.
	Support(dir rl.Vector3) rl.Vector3

	// SurfaceContour appends the silhouette facing dir to out: a vertex,
	// an edge as two points, or a face polygon.
	SurfaceContour(dir rl.Vector3, out []rl.Vector3) []rl.Vector3

	// MaxRadius bounds the shape's extent from its center.
	MaxRadius() float32
}

// ShapeBounds computes a tight axis-aligned box from the support
// function, so any Shape implementation gets bounds for free.
func ShapeBounds(s Shape) BoundingBox {
	b := EmptyBounds()
	for axis := 0; axis < 3; axis++ {
		var dir rl.Vector3
		dir = setAxisComponent(dir, axis, 1)
		b.Max = setAxisComponent(b.Max, axis, axisComponent(s.Support(dir), axis))
		dir = setAxisComponent(dir, axis, -1)
		b.Min = setAxisComponent(b.Min, axis, axisComponent(s.Support(dir), axis))
	}
	return b
}

// BoxShape is an oriented box: world-space center, half-extents along
// the local axes, and the rotated axes themselves.
type BoxShape struct {
	Center   rl.Vector3
	HalfSize rl.Vector3
	Axes     [3]rl.Vector3
}

// NewBoxShape creates a box from center, full size, and euler rotation
// in degrees (applied X, Y, Z).
func NewBoxShape(center, size, rotation rl.Vector3) *BoxShape {
	rotX := rl.MatrixRotateX(rotation.X * rl.Deg2rad)
	rotY := rl.MatrixRotateY(rotation.Y * rl.Deg2rad)
	rotZ := rl.MatrixRotateZ(rotation.Z * rl.Deg2rad)
	rotMatrix := rl.MatrixMultiply(rl.MatrixMultiply(rotX, rotY), rotZ)

	return &BoxShape{
		Center:   center,
		HalfSize: rl.Vector3{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2},
		Axes: [3]rl.Vector3{
			rl.Vector3Normalize(rl.Vector3{X: rotMatrix.M0, Y: rotMatrix.M1, Z: rotMatrix.M2}),
			rl.Vector3Normalize(rl.Vector3{X: rotMatrix.M4, Y: rotMatrix.M5, Z: rotMatrix.M6}),
			rl.Vector3Normalize(rl.Vector3{X: rotMatrix.M8, Y: rotMatrix.M9, Z: rotMatrix.M10}),
		},
	}
}

// NewAlignedBoxShape creates an axis-aligned box (no rotation).
func NewAlignedBoxShape(center, size rl.Vector3) *BoxShape {
	return &BoxShape{
		Center:   center,
		HalfSize: rl.Vector3{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2},
		Axes: [3]rl.Vector3{
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
	}
}

func (b *BoxShape) Support(dir rl.Vector3) rl.Vector3 {
	p := b.Center
	for i := 0; i < 3; i++ {
		ext := axisComponent(rl.Vector3{X: b.HalfSize.X, Y: b.HalfSize.Y, Z: b.HalfSize.Z}, i)
		if rl.Vector3DotProduct(dir, b.Axes[i]) >= 0 {
			p = rl.Vector3Add(p, rl.Vector3Scale(b.Axes[i], ext))
		} else {
			p = rl.Vector3Subtract(p, rl.Vector3Scale(b.Axes[i], ext))
		}
	}
	return p
}

func (b *BoxShape) SurfaceContour(dir rl.Vector3, out []rl.Vector3) []rl.Vector3 {
	// Classify dir against the local axes; a near-tangent axis spans
	// both corners, exactly as the axis-aligned silhouette does.
	local := rl.Vector3{
		X: rl.Vector3DotProduct(dir, b.Axes[0]),
		Y: rl.Vector3DotProduct(dir, b.Axes[1]),
		Z: rl.Vector3DotProduct(dir, b.Axes[2]),
	}
	localBox := BoundingBox{
		Min: rl.Vector3Scale(b.HalfSize, -1),
		Max: b.HalfSize,
	}
	start := len(out)
	out = localBox.SurfaceContour(local, out)
	for i := start; i < len(out); i++ {
		p := out[i]
		world := b.Center
		world = rl.Vector3Add(world, rl.Vector3Scale(b.Axes[0], p.X))
		world = rl.Vector3Add(world, rl.Vector3Scale(b.Axes[1], p.Y))
		world = rl.Vector3Add(world, rl.Vector3Scale(b.Axes[2], p.Z))
		out[i] = world
	}
	return out
}

func (b *BoxShape) MaxRadius() float32 {
	return rl.Vector3Length(b.HalfSize)
}

// SphereShape is a sphere; its contour facing any direction is the
// single support point.
type SphereShape struct {
	Center rl.Vector3
	Radius float32
}

func NewSphereShape(center rl.Vector3, radius float32) *SphereShape {
	return &SphereShape{Center: center, Radius: radius}
}

func (s *SphereShape) Support(dir rl.Vector3) rl.Vector3 {
	n := rl.Vector3Normalize(dir)
	return rl.Vector3Add(s.Center, rl.Vector3Scale(n, s.Radius))
}

func (s *SphereShape) SurfaceContour(dir rl.Vector3, out []rl.Vector3) []rl.Vector3 {
	return append(out, s.Support(dir))
}

func (s *SphereShape) MaxRadius() float32 {
	return s.Radius
}

// CapsuleShape is a segment from A to B swept by Radius.
type CapsuleShape struct {
	A, B   rl.Vector3
	Radius float32
}

func NewCapsuleShape(a, b rl.Vector3, radius float32) *CapsuleShape {
	return &CapsuleShape{A: a, B: b, Radius: radius}
}

func (c *CapsuleShape) Support(dir rl.Vector3) rl.Vector3 {
	n := rl.Vector3Normalize(dir)
	end := c.A
	if rl.Vector3DotProduct(c.B, dir) > rl.Vector3DotProduct(c.A, dir) {
		end = c.B
	}
	return rl.Vector3Add(end, rl.Vector3Scale(n, c.Radius))
}

func (c *CapsuleShape) SurfaceContour(dir rl.Vector3, out []rl.Vector3) []rl.Vector3 {
	n := rl.Vector3Normalize(dir)
	axis := rl.Vector3Subtract(c.B, c.A)
	length := rl.Vector3Length(axis)
	if length > 1e-6 {
		// Direction perpendicular to the capsule axis exposes the full
		// side edge rather than a single cap point.
		along := rl.Vector3DotProduct(n, rl.Vector3Scale(axis, 1/length))
		if math32.Abs(along) < contourFaceTol {
			offset := rl.Vector3Scale(n, c.Radius)
			return append(out,
				rl.Vector3Add(c.A, offset),
				rl.Vector3Add(c.B, offset))
		}
	}
	return append(out, c.Support(dir))
}

func (c *CapsuleShape) MaxRadius() float32 {
	center := rl.Vector3Scale(rl.Vector3Add(c.A, c.B), 0.5)
	return rl.Vector3Length(rl.Vector3Subtract(c.A, center)) + c.Radius
}
