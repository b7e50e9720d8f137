package collision

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// BoundingBox is an axis-aligned box. The zero value is not useful;
// use EmptyBounds for an identity under Merge.
type BoundingBox struct {
	Min rl.Vector3
	Max rl.Vector3
}

// BoundsFromCenter creates a box from a center point and full size.
func BoundsFromCenter(center, size rl.Vector3) BoundingBox {
	half := rl.Vector3{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2}
	return BoundingBox{
		Min: rl.Vector3Subtract(center, half),
		Max: rl.Vector3Add(center, half),
	}
}

// EmptyBounds returns an inverted box that merges as an identity and
// overlaps nothing.
func EmptyBounds() BoundingBox {
	return BoundingBox{
		Min: rl.Vector3{X: math32.MaxFloat32, Y: math32.MaxFloat32, Z: math32.MaxFloat32},
		Max: rl.Vector3{X: -math32.MaxFloat32, Y: -math32.MaxFloat32, Z: -math32.MaxFloat32},
	}
}

// IsEmpty reports whether the box is inverted on any axis.
func (b BoundingBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b BoundingBox) Center() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Add(b.Min, b.Max), 0.5)
}

func (b BoundingBox) Size() rl.Vector3 {
	return rl.Vector3Subtract(b.Max, b.Min)
}

func (b BoundingBox) Overlaps(o BoundingBox) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether o lies entirely inside b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return b.Min.X <= o.Min.X && b.Max.X >= o.Max.X &&
		b.Min.Y <= o.Min.Y && b.Max.Y >= o.Max.Y &&
		b.Min.Z <= o.Min.Z && b.Max.Z >= o.Max.Z
}

func (b BoundingBox) ContainsPoint(p rl.Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Merge returns the smallest box containing both b and o.
func (b BoundingBox) Merge(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: rl.Vector3{
			X: math32.Min(b.Min.X, o.Min.X),
			Y: math32.Min(b.Min.Y, o.Min.Y),
			Z: math32.Min(b.Min.Z, o.Min.Z),
		},
		Max: rl.Vector3{
			X: math32.Max(b.Max.X, o.Max.X),
			Y: math32.Max(b.Max.Y, o.Max.Y),
			Z: math32.Max(b.Max.Z, o.Max.Z),
		},
	}
}

// Intersect returns the overlap of b and o, which may be empty.
func (b BoundingBox) Intersect(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: rl.Vector3{
			X: math32.Max(b.Min.X, o.Min.X),
			Y: math32.Max(b.Min.Y, o.Min.Y),
			Z: math32.Max(b.Min.Z, o.Min.Z),
		},
		Max: rl.Vector3{
			X: math32.Min(b.Max.X, o.Max.X),
			Y: math32.Min(b.Max.Y, o.Max.Y),
			Z: math32.Min(b.Max.Z, o.Max.Z),
		},
	}
}

// Expand inflates the box by margin on every side.
func (b BoundingBox) Expand(margin float32) BoundingBox {
	m := rl.Vector3{X: margin, Y: margin, Z: margin}
	return BoundingBox{
		Min: rl.Vector3Subtract(b.Min, m),
		Max: rl.Vector3Add(b.Max, m),
	}
}

// LongestAxis returns 0, 1 or 2 for the axis of greatest extent.
func (b BoundingBox) LongestAxis() int {
	size := b.Size()
	axis := 0
	longest := size.X
	if size.Y > longest {
		axis, longest = 1, size.Y
	}
	if size.Z > longest {
		axis = 2
	}
	return axis
}

// AxisMid returns the midpoint coordinate along axis 0, 1 or 2.
func (b BoundingBox) AxisMid(axis int) float32 {
	switch axis {
	case 0:
		return (b.Min.X + b.Max.X) * 0.5
	case 1:
		return (b.Min.Y + b.Max.Y) * 0.5
	default:
		return (b.Min.Z + b.Max.Z) * 0.5
	}
}

// RayIntersect performs the slab test against a ray with normalized
// direction. It returns the entry distance and whether the ray hits
// within maxDistance. A ray starting inside the box hits at distance 0.
func (b BoundingBox) RayIntersect(origin, dir rl.Vector3, maxDistance float32) (float32, bool) {
	tmin := float32(0)
	tmax := maxDistance

	for axis := 0; axis < 3; axis++ {
		o, d := axisComponent(origin, axis), axisComponent(dir, axis)
		lo, hi := axisComponent(b.Min, axis), axisComponent(b.Max, axis)
		if math32.Abs(d) < 1e-8 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		inv := 1 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// contourFaceTol decides when a direction component is small enough for
// the silhouette to span both sides of that axis. Near-tangent
// directions resolve to the lower-dimensional feature.
const contourFaceTol = 0.04

// SurfaceContour appends the silhouette of the box facing dir: one
// corner, an edge (2 points), or a face (4 points in consistent
// winding). dir need not be normalized but must be non-zero.
func (b BoundingBox) SurfaceContour(dir rl.Vector3, out []rl.Vector3) []rl.Vector3 {
	scale := rl.Vector3Length(dir)
	if scale < 1e-8 {
		return out
	}
	d := rl.Vector3Scale(dir, 1/scale)

	// Per axis: +1 picks Max, -1 picks Min, 0 means the silhouette spans
	// both (the direction is tangent to that axis).
	var pick [3]int
	free := 0
	for axis := 0; axis < 3; axis++ {
		c := axisComponent(d, axis)
		switch {
		case c > contourFaceTol:
			pick[axis] = 1
		case c < -contourFaceTol:
			pick[axis] = -1
		default:
			pick[axis] = 0
			free++
		}
	}

	corner := func(signs [3]int) rl.Vector3 {
		var p rl.Vector3
		for axis := 0; axis < 3; axis++ {
			if signs[axis] > 0 {
				p = setAxisComponent(p, axis, axisComponent(b.Max, axis))
			} else {
				p = setAxisComponent(p, axis, axisComponent(b.Min, axis))
			}
		}
		return p
	}

	switch free {
	case 0: // vertex
		return append(out, corner(pick))
	case 1: // edge
		lo, hi := pick, pick
		for axis := 0; axis < 3; axis++ {
			if pick[axis] == 0 {
				lo[axis], hi[axis] = -1, 1
			}
		}
		return append(out, corner(lo), corner(hi))
	default:
		// Face. With all three components below tolerance, fall back to
		// the dominant axis rather than emitting the whole box.
		u, v := -1, -1
		for axis := 0; axis < 3; axis++ {
			if pick[axis] == 0 {
				if u < 0 {
					u = axis
				} else if v < 0 {
					v = axis
				}
			}
		}
		if free == 3 {
			dom := dominantAxis(d)
			if axisComponent(d, dom) >= 0 {
				pick[dom] = 1
			} else {
				pick[dom] = -1
			}
			u, v = (dom+1)%3, (dom+2)%3
		}
		quad := [4][2]int{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, q := range quad {
			signs := pick
			signs[u], signs[v] = q[0], q[1]
			out = append(out, corner(signs))
		}
		return out
	}
}

func dominantAxis(v rl.Vector3) int {
	ax, ay, az := math32.Abs(v.X), math32.Abs(v.Y), math32.Abs(v.Z)
	if ax >= ay && ax >= az {
		return 0
	}
	if ay >= az {
		return 1
	}
	return 2
}

func axisComponent(v rl.Vector3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxisComponent(v rl.Vector3, axis int, value float32) rl.Vector3 {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}
