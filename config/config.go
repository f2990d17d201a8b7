// Package config provides configuration loading and access for the rope engine.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine and host configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Rope      RopeConfig      `yaml:"rope"`
	Winding   WindingConfig   `yaml:"winding"`
	Post      PostConfig      `yaml:"post"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Feeder    FeederConfig    `yaml:"feeder"`
	Cutter    CutterConfig    `yaml:"cutter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is a YAML-friendly 3-component vector, written as [x, y, z].
type Vec3 [3]float64

// ScreenConfig holds display settings for the graphical front ends.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds integrator and solver parameters.
type PhysicsConfig struct {
	DT         float64 `yaml:"dt"`
	Gravity    Vec3    `yaml:"gravity"`
	UseGravity bool    `yaml:"use_gravity"`
	Damping    float64 `yaml:"damping"`    // Velocity retention per tick, in (0,1]
	Iterations int     `yaml:"iterations"` // Constraint relaxation passes per tick
}

// RopeConfig holds the length budget of a rope instance.
type RopeConfig struct {
	ParticlesPerMeter float64 `yaml:"particles_per_meter"`
	StartLength       float64 `yaml:"start_length"`
	MinLength         float64 `yaml:"min_length"`
	MaxLength         float64 `yaml:"max_length"`
	AutoExtend        bool    `yaml:"auto_extend"` // Reserve capacity for max_wind_turns
	MaxWindTurns      float64 `yaml:"max_wind_turns"`
	PinRoot           bool    `yaml:"pin_root"`
	Material          string  `yaml:"material"`
	TailTemplate      string  `yaml:"tail_template"` // Empty = no tail template, cuts are rejected
}

// WindingConfig holds the post-relative winding state machine tuning.
// Angles are in degrees unless noted.
type WindingConfig struct {
	GripRadius      float64 `yaml:"grip_radius"`
	UseGripRadius   bool    `yaml:"use_grip_radius"`
	CaptureBand     float64 `yaml:"capture_band"`
	EndMargin       float64 `yaml:"end_margin"`
	CommitDeg       float64 `yaml:"commit_deg"`
	DeadbandDeg     float64 `yaml:"deadband_deg"`
	MaxStepDeg      float64 `yaml:"max_step_deg"`
	Direction       int     `yaml:"direction"`     // +1 winds counter-clockwise about the post axis, -1 clockwise
	AxialAdvance    int     `yaml:"axial_advance"` // +1 coils climb the axis, -1 descend
	Pitch           float64 `yaml:"pitch"`         // Axial advance per full turn
	DirectionLock   bool    `yaml:"direction_lock"`
	ReverseFlipDeg  float64 `yaml:"reverse_flip_deg"`
	NearZeroDeg     float64 `yaml:"near_zero_deg"`
	ReleaseDeg      float64 `yaml:"release_deg"`
	ExitTolerance   float64 `yaml:"exit_tolerance"`
	ReleaseCooldown float64 `yaml:"release_cooldown"` // Seconds
	DeepenDetentDeg float64 `yaml:"deepen_detent_deg"`
}

// PostConfig describes the winding post used by the demo scene.
type PostConfig struct {
	Center   Vec3    `yaml:"center"`
	Axis     Vec3    `yaml:"axis"`
	HalfSpan float64 `yaml:"half_span"`
	Radius   float64 `yaml:"radius"`
}

// MeshConfig holds tube mesh parameters.
type MeshConfig struct {
	Sides  int     `yaml:"sides"`
	Radius float64 `yaml:"radius"`
}

// FeederConfig holds the feeder collaborator settings used by the scene.
type FeederConfig struct {
	Rate   float64 `yaml:"rate"`   // Meters per second of visible length change
	Target float64 `yaml:"target"` // 0 = keep the start length
}

// CutterConfig holds the cutting tool rules applied by the scene.
type CutterConfig struct {
	EndGuard    int     `yaml:"end_guard"` // Reject cuts at or within this many particles of either end
	MaxDistance float64 `yaml:"max_distance"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RestLength   float64 // 1 / particles_per_meter
	ArcPerRadian float64 // Helix arc length per radian around the configured post
	TurnLength   float64 // Helix arc length of one full turn
	Capacity     int     // Hard particle capacity of a fresh rope
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the engine cannot clamp into shape.
func (c *Config) validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Rope.ParticlesPerMeter <= 0 {
		return fmt.Errorf("rope.particles_per_meter must be positive, got %v", c.Rope.ParticlesPerMeter)
	}
	if c.Physics.Damping <= 0 || c.Physics.Damping > 1 {
		return fmt.Errorf("physics.damping must be in (0,1], got %v", c.Physics.Damping)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Physics.Iterations < 1 {
		c.Physics.Iterations = 1
	}
	if c.Winding.Direction >= 0 {
		c.Winding.Direction = 1
	} else {
		c.Winding.Direction = -1
	}
	if c.Winding.AxialAdvance >= 0 {
		c.Winding.AxialAdvance = 1
	} else {
		c.Winding.AxialAdvance = -1
	}
	if c.Mesh.Sides < 3 {
		c.Mesh.Sides = 3
	}
	if c.Rope.MaxLength < c.Rope.MinLength {
		c.Rope.MaxLength = c.Rope.MinLength
	}

	c.Derived.RestLength = 1.0 / c.Rope.ParticlesPerMeter

	risePerRadian := c.Winding.Pitch / (2 * math.Pi)
	c.Derived.ArcPerRadian = math.Sqrt(c.Post.Radius*c.Post.Radius + risePerRadian*risePerRadian)
	c.Derived.TurnLength = 2 * math.Pi * c.Derived.ArcPerRadian

	// A capture can start with the longest lead, so the wind budget sits
	// on top of it.
	budget := math.Max(c.Rope.StartLength, c.Rope.MaxLength)
	if c.Rope.AutoExtend {
		budget += c.Rope.MaxWindTurns * c.Derived.TurnLength
	}
	c.Derived.Capacity = int(math.Ceil(budget*c.Rope.ParticlesPerMeter)) + 1
	if c.Derived.Capacity < 2 {
		c.Derived.Capacity = 2
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
