// Stress test comparing tree-accelerated broad phase against a naive
// O(n²) sweep, verifying they agree on the candidate pair set.
package main

import (
	"fmt"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"collide3d/internal/collision"
	"collide3d/internal/config"
)

func main() {
	tuning := config.Default()

	testCounts := []int{100, 500, 1000, 2000, 5000, 10000}
	for _, count := range testCounts {
		testBroadPhase(count, tuning)
	}
}

func testBroadPhase(count int, tuning config.Tuning) {
	rng := rand.New(rand.NewSource(42)) // consistent results

	// Spawn in a cube, size scales with count to keep density reasonable
	spawnSize := float32(50.0) + float32(count)/100.0

	w := collision.NewWorld(tuning)
	var bodies []collision.BodyIndex
	for i := 0; i < count; i++ {
		center := rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: rng.Float32()*spawnSize - spawnSize/2,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		side := 1 + rng.Float32() // 1 to 2 per side
		shape := collision.NewAlignedBoxShape(center, rl.Vector3{X: side, Y: side, Z: side})
		bodies = append(bodies, w.AddBody(shape, collision.StateDynamic, false))
	}

	// Warm up
	w.Step()

	treeStart := time.Now()
	const iterations = 10
	for i := 0; i < iterations; i++ {
		w.Step()
	}
	treeTime := time.Since(treeStart) / iterations
	treePairs := w.ContactCount()

	// Naive O(n²) over the same bodies
	bruteStart := time.Now()
	var brutePairs int
	for iter := 0; iter < iterations; iter++ {
		brutePairs = 0
		for i := 0; i < len(bodies); i++ {
			a := w.Body(bodies[i])
			for j := i + 1; j < len(bodies); j++ {
				b := w.Body(bodies[j])
				if !a.Bounds.Overlaps(b.Bounds) {
					continue
				}
				if _, _, ok := collision.TestShapes(a.Shape, b.Shape); ok {
					brutePairs++
				}
			}
		}
	}
	bruteTime := time.Since(bruteStart) / iterations

	status := "OK"
	if treePairs != brutePairs {
		status = "MISMATCH"
	}

	speedup := float64(bruteTime) / float64(treeTime)
	fmt.Printf("%5d bodies: tree %8v (%5d contacts, height %2d) | naive %10v (%5d pairs) | %.1fx speedup | %s\n",
		count, treeTime.Round(time.Microsecond), treePairs, w.Tree().Height(),
		bruteTime.Round(time.Microsecond), brutePairs, speedup, status)
}
