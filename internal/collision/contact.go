package collision

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Nominal contact dimensions for degenerate manifolds: a point contact
// gets a fixed small area, a line contact an area proportional to its
// length. Friction and torque downstream never see a zero area.
const (
	nominalPointArea = 0.0025
	lineContactWidth = 0.05
)

// point2 is a point in the clipping plane perpendicular to the normal.
type point2 struct {
	U, V float32
}

// ContactGenerator builds contact manifolds by clipping the two shapes'
// surface contours in the 2D plane perpendicular to the contact normal.
// The scratch buffers make repeated generation allocation-free apart
// from the returned surface.
type ContactGenerator struct {
	tol float32

	contourA []rl.Vector3
	contourB []rl.Vector3
	flatA    []point2
	flatB    []point2
	clipBuf  []point2
	clipOut  []point2
}

// NewContactGenerator creates a generator. tol governs colinearity,
// parallelism and near-tangent clipping decisions; ties resolve toward
// the lower-dimensional case.
func NewContactGenerator(tol float32) *ContactGenerator {
	if tol <= 0 {
		tol = 1e-4
	}
	return &ContactGenerator{tol: tol}
}

// Generate computes the contact surface between two shapes. normal is
// unit length and points from a toward b; point is a world-space
// reference on the contact plane; depth is the penetration along normal.
// Swapping a and b while negating the normal yields a manifold with the
// same midpoint, depth and area.
func (g *ContactGenerator) Generate(a, b Shape, normal, point rl.Vector3, depth float32) ContactSurface {
	g.contourA = a.SurfaceContour(normal, g.contourA[:0])
	g.contourB = b.SurfaceContour(rl.Vector3Scale(normal, -1), g.contourB[:0])

	t1, t2 := tangentBasis(normal)
	g.flatA = flatten(g.contourA, point, t1, t2, g.flatA[:0])
	g.flatB = flatten(g.contourB, point, t1, t2, g.flatB[:0])

	points, area := g.clipContours(g.flatA, g.flatB)

	surface := ContactSurface{
		Normal:   normal,
		Depth:    depth,
		Area:     area,
		ContourA: append([]rl.Vector3(nil), g.contourA...),
		ContourB: append([]rl.Vector3(nil), g.contourB...),
	}

	if len(points) == 0 {
		surface.Midpoint = point
		surface.Area = nominalPointArea
		return surface
	}

	var mid point2
	surface.Intersection = make([]rl.Vector3, len(points))
	for i, p := range points {
		surface.Intersection[i] = unflatten(p, point, t1, t2)
		mid.U += p.U
		mid.V += p.V
	}
	inv := 1 / float32(len(points))
	mid.U *= inv
	mid.V *= inv
	surface.Midpoint = unflatten(mid, point, t1, t2)
	return surface
}

// clipContours dispatches on the point-count combination and returns
// the manifold points in the plane plus the contact area.
func (g *ContactGenerator) clipContours(fa, fb []point2) ([]point2, float32) {
	la, lb := len(fa), len(fb)
	switch {
	case la == 0 || lb == 0:
		return nil, nominalPointArea
	case la == 1:
		return fa, nominalPointArea
	case lb == 1:
		return fb, nominalPointArea
	case la == 2 && lb == 2:
		return g.clipLineLine(fa, fb)
	case la == 2:
		return g.clipLineFace(fa, fb)
	case lb == 2:
		return g.clipLineFace(fb, fa)
	default:
		return g.clipFaceFace(fa, fb)
	}
}

func (g *ContactGenerator) clipLineLine(fa, fb []point2) ([]point2, float32) {
	da := point2{fa[1].U - fa[0].U, fa[1].V - fa[0].V}
	db := point2{fb[1].U - fb[0].U, fb[1].V - fb[0].V}
	cross := da.U*db.V - da.V*db.U

	lenA := math32.Sqrt(da.U*da.U + da.V*da.V)
	lenB := math32.Sqrt(db.U*db.U + db.V*db.V)
	if lenA < g.tol {
		return fa[:1], nominalPointArea
	}
	if lenB < g.tol {
		return fb[:1], nominalPointArea
	}

	if math32.Abs(cross) <= g.tol*lenA*lenB {
		// Parallel: intersect the 1D intervals along the shared direction.
		e := point2{da.U / lenA, da.V / lenA}
		project := func(p point2) float32 { return p.U*e.U + p.V*e.V }
		perp := func(p point2) float32 { return p.U*-e.V + p.V*e.U }

		a0, a1 := project(fa[0]), project(fa[1])
		if a0 > a1 {
			a0, a1 = a1, a0
		}
		b0, b1 := project(fb[0]), project(fb[1])
		if b0 > b1 {
			b0, b1 = b1, b0
		}
		lo := math32.Max(a0, b0)
		hi := math32.Min(a1, b1)
		// The two segments sit at (near-)coincident offsets; split the
		// difference so the manifold lies between them.
		w := (perp(fa[0]) + perp(fa[1]) + perp(fb[0]) + perp(fb[1])) * 0.25

		at := func(s float32) point2 {
			return point2{e.U*s - e.V*w, e.V*s + e.U*w}
		}
		if hi-lo <= g.tol {
			mid := (lo + hi) * 0.5
			return []point2{at(mid)}, nominalPointArea
		}
		return []point2{at(lo), at(hi)}, (hi - lo) * lineContactWidth
	}

	// Non-parallel: single intersection point, clamped to both segments.
	diff := point2{fb[0].U - fa[0].U, fb[0].V - fa[0].V}
	t := clampf((diff.U*db.V-diff.V*db.U)/cross, 0, 1)
	p := point2{fa[0].U + da.U*t, fa[0].V + da.V*t}
	return []point2{p}, nominalPointArea
}

// clipLineFace clips the segment against every edge of the face polygon
// with half-plane clips, producing a shortened segment.
func (g *ContactGenerator) clipLineFace(line, face []point2) ([]point2, float32) {
	winding := polygonWinding(face)
	p0, p1 := line[0], line[1]

	for i := 0; i < len(face); i++ {
		v1 := face[i]
		v2 := face[(i+1)%len(face)]
		d0 := edgeDistance(v1, v2, p0) * winding
		d1 := edgeDistance(v1, v2, p1) * winding

		if d0 < -g.tol && d1 < -g.tol {
			// Entirely outside this edge: fall back to the nearest
			// endpoint as a degenerate point contact.
			return []point2{p0}, nominalPointArea
		}
		if d0 < -g.tol {
			p0 = lerpPoint2(p0, p1, d0/(d0-d1))
		} else if d1 < -g.tol {
			p1 = lerpPoint2(p0, p1, d0/(d0-d1))
		}
	}

	du, dv := p1.U-p0.U, p1.V-p0.V
	length := math32.Sqrt(du*du + dv*dv)
	if length <= g.tol {
		return []point2{p0}, nominalPointArea
	}
	return []point2{p0, p1}, length * lineContactWidth
}

// clipFaceFace runs Sutherland-Hodgman clipping of polygon fa against
// every edge of polygon fb. The inside test is winding-aware and keeps
// near-tangent points within tolerance instead of shaving them off.
func (g *ContactGenerator) clipFaceFace(fa, fb []point2) ([]point2, float32) {
	winding := polygonWinding(fb)

	current := append(g.clipBuf[:0], fa...)
	output := g.clipOut[:0]

	for i := 0; i < len(fb) && len(current) > 0; i++ {
		v1 := fb[i]
		v2 := fb[(i+1)%len(fb)]
		output = output[:0]

		prev := current[len(current)-1]
		prevDist := edgeDistance(v1, v2, prev) * winding
		for _, p := range current {
			dist := edgeDistance(v1, v2, p) * winding
			inside := dist >= -g.tol
			prevInside := prevDist >= -g.tol

			if inside {
				if !prevInside {
					output = append(output, lerpPoint2(prev, p, prevDist/(prevDist-dist)))
				}
				output = append(output, p)
			} else if prevInside {
				output = append(output, lerpPoint2(prev, p, prevDist/(prevDist-dist)))
			}
			prev, prevDist = p, dist
		}
		current, output = output, current
	}
	g.clipBuf, g.clipOut = current, output

	if len(current) == 0 {
		return nil, nominalPointArea
	}
	if len(current) == 1 {
		return current, nominalPointArea
	}
	if len(current) == 2 {
		du, dv := current[1].U-current[0].U, current[1].V-current[0].V
		return current, math32.Sqrt(du*du+dv*dv) * lineContactWidth
	}
	return current, polygonArea(current)
}

// polygonArea is the unsigned shoelace area measured about the
// polygon's own centroid, which keeps the sum well-conditioned for
// polygons far from the plane origin.
func polygonArea(poly []point2) float32 {
	var cu, cv float32
	for _, p := range poly {
		cu += p.U
		cv += p.V
	}
	inv := 1 / float32(len(poly))
	cu *= inv
	cv *= inv

	var area float32
	for i := 0; i < len(poly); i++ {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		area += (a.U - cu) * (b.V - cv)
		area -= (b.U - cu) * (a.V - cv)
	}
	return math32.Abs(area) * 0.5
}

// polygonWinding returns +1 for counter-clockwise polygons, -1 otherwise.
func polygonWinding(poly []point2) float32 {
	var signed float32
	for i := 0; i < len(poly); i++ {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		signed += a.U*b.V - b.U*a.V
	}
	if signed >= 0 {
		return 1
	}
	return -1
}

// edgeDistance is the signed distance of p from the line v1->v2,
// positive on the left.
func edgeDistance(v1, v2, p point2) float32 {
	return (v2.U-v1.U)*(p.V-v1.V) - (v2.V-v1.V)*(p.U-v1.U)
}

func lerpPoint2(a, b point2, t float32) point2 {
	t = clampf(t, 0, 1)
	return point2{a.U + (b.U-a.U)*t, a.V + (b.V-a.V)*t}
}

// tangentBasis returns two unit vectors spanning the plane orthogonal
// to normal. The preferred reference axis is X, with Y as the fallback
// when the normal is nearly parallel to X.
func tangentBasis(normal rl.Vector3) (rl.Vector3, rl.Vector3) {
	ref := rl.Vector3{X: 1, Y: 0, Z: 0}
	if math32.Abs(normal.X) > 0.9 {
		ref = rl.Vector3{X: 0, Y: 1, Z: 0}
	}
	t1 := rl.Vector3Subtract(ref, rl.Vector3Scale(normal, rl.Vector3DotProduct(ref, normal)))
	t1 = rl.Vector3Normalize(t1)
	t2 := rl.Vector3CrossProduct(normal, t1)
	return t1, t2
}

func flatten(points []rl.Vector3, origin, t1, t2 rl.Vector3, out []point2) []point2 {
	for _, p := range points {
		rel := rl.Vector3Subtract(p, origin)
		out = append(out, point2{
			U: rl.Vector3DotProduct(rel, t1),
			V: rl.Vector3DotProduct(rel, t2),
		})
	}
	return out
}

func unflatten(p point2, origin, t1, t2 rl.Vector3) rl.Vector3 {
	world := rl.Vector3Add(origin, rl.Vector3Scale(t1, p.U))
	return rl.Vector3Add(world, rl.Vector3Scale(t2, p.V))
}
