// Interactive viewer for the collision world: animated bodies, tree
// bounds and contact manifolds drawn as gizmos. Toggle layers with
// T (tree), L (leaves), B (body bounds) and C (contacts).
package main

import (
	"math/rand"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"collide3d/internal/collision"
	"collide3d/internal/config"
)

type mover struct {
	body   collision.BodyIndex
	origin rl.Vector3
	phase  float32
	radius float32
}

func main() {
	rl.InitWindow(1280, 720, "bvh viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	camera := rl.Camera3D{
		Position:   rl.Vector3{X: 18, Y: 14, Z: 18},
		Target:     rl.Vector3{Y: 1},
		Up:         rl.Vector3{Y: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	tuning := config.Default()
	w := collision.NewWorld(tuning)
	rng := rand.New(rand.NewSource(1))

	w.AddBody(collision.NewAlignedBoxShape(rl.Vector3{Y: -0.5}, rl.Vector3{X: 24, Y: 1, Z: 24}), collision.StateStatic, false)

	var movers []mover
	for i := 0; i < 24; i++ {
		origin := rl.Vector3{
			X: rng.Float32()*16 - 8,
			Y: rng.Float32()*4 + 1,
			Z: rng.Float32()*16 - 8,
		}
		shape := collision.NewAlignedBoxShape(origin, rl.Vector3{X: 1, Y: 1, Z: 1})
		movers = append(movers, mover{
			body:   w.AddBody(shape, collision.StateDynamic, false),
			origin: origin,
			phase:  rng.Float32() * 6.28,
			radius: rng.Float32()*3 + 1,
		})
	}

	opts := collision.DebugDrawOptions{
		LeafBounds:      true,
		ContactSurfaces: true,
	}

	var elapsed float32
	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		elapsed += dt
		rl.UpdateCamera(&camera, rl.CameraOrbital)

		if rl.IsKeyPressed(rl.KeyT) {
			opts.TreeBounds = !opts.TreeBounds
		}
		if rl.IsKeyPressed(rl.KeyL) {
			opts.LeafBounds = !opts.LeafBounds
		}
		if rl.IsKeyPressed(rl.KeyB) {
			opts.BodyBounds = !opts.BodyBounds
		}
		if rl.IsKeyPressed(rl.KeyC) {
			opts.ContactSurfaces = !opts.ContactSurfaces
		}

		for _, m := range movers {
			box := w.Body(m.body).Shape.(*collision.BoxShape)
			box.Center = rl.Vector3{
				X: m.origin.X + math32.Cos(elapsed*0.5+m.phase)*m.radius,
				Y: m.origin.Y,
				Z: m.origin.Z + math32.Sin(elapsed*0.5+m.phase)*m.radius,
			}
			w.UpdateBody(m.body)
		}
		w.Step()

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		rl.BeginMode3D(camera)

		rl.DrawGrid(24, 1)
		for _, m := range movers {
			box := w.Body(m.body).Shape.(*collision.BoxShape)
			rl.DrawCubeV(box.Center, rl.Vector3{X: 1, Y: 1, Z: 1}, rl.Fade(rl.Blue, 0.3))
		}
		w.DrawDebug(opts)

		rl.EndMode3D()
		rl.DrawText("T tree  L leaves  B bodies  C contacts", 10, 10, 20, rl.DarkGray)
		rl.DrawFPS(10, 36)
		rl.EndDrawing()
	}
}
