// Package config loads collision-world tuning values from a YAML file.
// All values have working defaults; a missing file is not an error so
// the library stays usable without any on-disk configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the numeric knobs of the collision world. The defaults
// are calibrated for worlds sized in meters with unit-scale bodies.
type Tuning struct {
	// BoundsMargin inflates tight body bounds into the extended bounds
	// used for tree placement, so small motions don't restructure the tree.
	BoundsMargin float32 `yaml:"bounds_margin"`

	// LeafCapacity is the maximum bodies per tree leaf before a split.
	LeafCapacity int `yaml:"leaf_capacity"`

	// ClipTolerance governs colinearity, parallelism and degenerate-case
	// branching in the contact generator.
	ClipTolerance float32 `yaml:"clip_tolerance"`

	// RebalanceInterval is how many ticks pass between tree rebalances.
	RebalanceInterval int `yaml:"rebalance_interval"`

	// Sleep thresholds, matching the rigidbody sleep model: a body below
	// SleepVelocity for SleepTime seconds is put to sleep.
	SleepVelocity float32 `yaml:"sleep_velocity"`
	SleepTime     float32 `yaml:"sleep_time"`
}

// Default returns the tuning used when no config file is present.
func Default() Tuning {
	return Tuning{
		BoundsMargin:      0.2,
		LeafCapacity:      1,
		ClipTolerance:     1e-4,
		RebalanceInterval: 8,
		SleepVelocity:     0.3,
		SleepTime:         0.3,
	}
}

// Load reads tuning from a YAML file. A missing file returns Default()
// with no error; a malformed file returns Default() and the parse error.
func Load(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), nil
	}
	t := Default()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Default(), fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return t, nil
}

// Save writes tuning to a YAML file.
func Save(path string, t Tuning) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
