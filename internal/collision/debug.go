package collision

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// DebugDrawOptions selects which gizmo layers DrawDebug renders.
type DebugDrawOptions struct {
	TreeBounds      bool // internal node bounds, depth-faded
	LeafBounds      bool // leaf allocated bounds, colored by state
	BodyBounds      bool // tight per-body bounds
	ContactSurfaces bool // manifold outlines, midpoints and normals
}

// DrawDebug renders the collision state as wireframe gizmos. Must be
// called between rl.BeginMode3D and rl.EndMode3D.
func (w *World) DrawDebug(opts DebugDrawOptions) {
	if opts.TreeBounds || opts.LeafBounds {
		w.drawNode(w.tree.Root(), 0, opts)
	}
	if opts.BodyBounds {
		w.bodies.Each(func(_ BodyIndex, b *Body) {
			drawBoundsWires(b.Bounds, stateColor(b.State))
		})
	}
	if opts.ContactSurfaces {
		w.contacts.Each(func(_ ContactIndex, c *Contact) {
			drawSurface(&c.Surface)
		})
	}
}

func (w *World) drawNode(ni NodeIndex, depth int, opts DebugDrawOptions) {
	if ni == NilNode {
		return
	}
	n := w.tree.Node(ni)
	if n.IsLeaf() {
		if opts.LeafBounds {
			drawBoundsWires(n.AllocatedBounds, rl.Fade(stateColor(n.State), 0.6))
		}
		return
	}
	if opts.TreeBounds {
		fade := float32(1) / float32(depth+2)
		drawBoundsWires(n.CurrentBounds, rl.Fade(rl.SkyBlue, fade))
	}
	w.drawNode(n.Children[0], depth+1, opts)
	w.drawNode(n.Children[1], depth+1, opts)
}

func drawSurface(s *ContactSurface) {
	pts := s.Intersection
	for i := range pts {
		rl.DrawSphere(pts[i], 0.02, rl.Red)
		if len(pts) > 1 {
			rl.DrawLine3D(pts[i], pts[(i+1)%len(pts)], rl.Orange)
		}
	}
	rl.DrawSphere(s.Midpoint, 0.03, rl.Magenta)
	tip := rl.Vector3Add(s.Midpoint, rl.Vector3Scale(s.Normal, 0.5))
	rl.DrawLine3D(s.Midpoint, tip, rl.Magenta)
}

func stateColor(s NodeState) rl.Color {
	switch s {
	case StateStatic:
		return rl.Gray
	case StateSleeping:
		return rl.Yellow
	default:
		return rl.Green
	}
}

func drawBoundsWires(b BoundingBox, color rl.Color) {
	rl.DrawCubeWiresV(b.Center(), b.Size(), color)
}
