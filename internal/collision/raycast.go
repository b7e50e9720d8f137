package collision

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// RaycastHit describes the closest intersection found by Raycast.
type RaycastHit struct {
	Body     BodyIndex
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Raycast walks the tree front to back and returns the closest body hit
// within maxDistance. Subtrees whose bounds lie beyond the best hit so
// far are pruned.
func (w *World) Raycast(origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	direction = rl.Vector3Normalize(direction)
	closest := RaycastHit{Body: NilBody, Distance: maxDistance}
	hit := w.raycastNode(w.tree.Root(), origin, direction, &closest)
	return closest, hit
}

func (w *World) raycastNode(ni NodeIndex, origin, direction rl.Vector3, closest *RaycastHit) bool {
	if ni == NilNode {
		return false
	}
	n := w.tree.Node(ni)
	if _, ok := n.CurrentBounds.RayIntersect(origin, direction, closest.Distance); !ok {
		return false
	}
	if !n.IsLeaf() {
		hit := w.raycastNode(n.Children[0], origin, direction, closest)
		if w.raycastNode(n.Children[1], origin, direction, closest) {
			hit = true
		}
		return hit
	}
	hit := false
	for _, bi := range n.Bodies {
		b := w.bodies.Get(bi)
		if info, ok := raycastBody(origin, direction, b, closest.Distance); ok {
			*closest = info
			closest.Body = bi
			hit = true
		}
	}
	return hit
}

func raycastBody(origin, direction rl.Vector3, b *Body, maxDistance float32) (RaycastHit, bool) {
	if s, ok := b.Shape.(*SphereShape); ok {
		return raycastSphere(origin, direction, s, maxDistance)
	}
	t, ok := b.Bounds.RayIntersect(origin, direction, maxDistance)
	if !ok {
		return RaycastHit{}, false
	}
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	return RaycastHit{Point: point, Normal: boundsFaceNormal(b.Bounds, point), Distance: t}, true
}

func raycastSphere(origin, direction rl.Vector3, s *SphereShape, maxDistance float32) (RaycastHit, bool) {
	oc := rl.Vector3Subtract(origin, s.Center)
	bq := 2 * rl.Vector3DotProduct(oc, direction)
	cq := rl.Vector3DotProduct(oc, oc) - s.Radius*s.Radius

	discriminant := bq*bq - 4*cq
	if discriminant < 0 {
		return RaycastHit{}, false
	}
	root := math32.Sqrt(discriminant)
	t := (-bq - root) / 2
	if t < 0 {
		t = (-bq + root) / 2
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, s.Center))
	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}

// boundsFaceNormal picks the axis-aligned face the point sits on.
func boundsFaceNormal(b BoundingBox, point rl.Vector3) rl.Vector3 {
	const epsilon = 0.001
	switch {
	case math32.Abs(point.X-b.Min.X) < epsilon:
		return rl.Vector3{X: -1}
	case math32.Abs(point.X-b.Max.X) < epsilon:
		return rl.Vector3{X: 1}
	case math32.Abs(point.Y-b.Min.Y) < epsilon:
		return rl.Vector3{Y: -1}
	case math32.Abs(point.Y-b.Max.Y) < epsilon:
		return rl.Vector3{Y: 1}
	case math32.Abs(point.Z-b.Min.Z) < epsilon:
		return rl.Vector3{Z: -1}
	default:
		return rl.Vector3{Z: 1}
	}
}
