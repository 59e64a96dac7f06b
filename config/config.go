// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Agent     AgentConfig     `yaml:"agent"`
	Flow      FlowConfig      `yaml:"flow"`
	Grid      GridConfig      `yaml:"grid"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulation domain size.
type WorldConfig struct {
	Width  float64 `yaml:"width"`  // Domain width in world units (0 = use screen width)
	Height float64 `yaml:"height"` // Domain height in world units (0 = use screen height)
}

// PhysicsConfig holds time stepping parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // Fixed step used by headless runs
}

// AgentConfig holds agent motion, collision and population parameters.
type AgentConfig struct {
	Radius        float64 `yaml:"radius"`
	Drag          float64 `yaml:"drag"`           // Fraction of velocity lost per second
	MaxSpeed      float64 `yaml:"max_speed"`      // World units per second
	Stiffness     float64 `yaml:"stiffness"`      // Collision response per unit penetration per second
	SplitInterval float64 `yaml:"split_interval"` // Seconds between split attempts (0 = never)
	SplitChance   float64 `yaml:"split_chance"`   // Probability a split attempt succeeds
	SplitSpeed    float64 `yaml:"split_speed"`    // Separation speed of a split pair
	Initial       int     `yaml:"initial"`        // Agents seeded at start
	Max           int     `yaml:"max"`            // Population cap for spawns and splits
}

// FlowConfig holds flow field parameters.
type FlowConfig struct {
	Resolution float64 `yaml:"resolution"`  // World units between lattice vertices
	NoiseScale float64 `yaml:"noise_scale"` // Spatial noise frequency
	TimeSpeed  float64 `yaml:"time_speed"`  // Noise time units per second
	Strength   float64 `yaml:"strength"`    // Peak flow acceleration
	Seed       int64   `yaml:"seed"`        // 0 = derive from simulation seed
}

// GridConfig selects the grid's ownership model.
type GridConfig struct {
	OwnsFlowField   bool `yaml:"owns_flow_field"`    // Grid advances and applies the field
	CullOutOfBounds bool `yaml:"cull_out_of_bounds"` // Grid removes agents that leave the domain
}

// SpawnConfig holds boundary spawn parameters.
type SpawnConfig struct {
	Interval    float64 `yaml:"interval"`     // Seconds between spawn rounds (0 = disabled)
	PerInterval int     `yaml:"per_interval"` // Spawn attempts per round
	Speed       float64 `yaml:"speed"`        // Initial speed along the local flow
}

// CameraConfig holds lens motion parameters.
type CameraConfig struct {
	Zoom           float64 `yaml:"zoom"`            // Camera zoom at lens zoom factor 1
	TranslateSpeed float64 `yaml:"translate_speed"` // World units per second
	ZoomSpeed      float64 `yaml:"zoom_speed"`      // Zoom factor per second
	RotateSpeed    float64 `yaml:"rotate_speed"`    // Radians per second
	ZoomMin        float64 `yaml:"zoom_min"`
	ZoomMax        float64 `yaml:"zoom_max"`
	ZoomThreshold  float64 `yaml:"zoom_threshold"`  // Smaller zoom changes are skipped
	AngleDelta     float64 `yaml:"angle_delta"`     // Largest rotation per refocus
	AngleThreshold float64 `yaml:"angle_threshold"` // Smaller rotations are skipped
	FocusThreshold float64 `yaml:"focus_threshold"` // Shorter focus moves are skipped
	FocusPadding   float64 `yaml:"focus_padding"`   // Margin beyond the visible radius
	DelayInitial   float64 `yaml:"delay_initial"`   // Seconds before the first refocus
	DelayMin       float64 `yaml:"delay_min"`
	DelayMax       float64 `yaml:"delay_max"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	WorldW    float64 // Effective world width
	WorldH    float64 // Effective world height
	CellSize  float64 // 2 * Agent.Radius
}

// ErrInvalid is returned by Validate for configurations the simulation cannot run.
var ErrInvalid = errors.New("invalid config")

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

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config.
// Call again after mutating fields programmatically.
func (c *Config) ComputeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// World dimensions default to screen size if not specified
	c.Derived.WorldW = c.World.Width
	if c.Derived.WorldW == 0 {
		c.Derived.WorldW = float64(c.Screen.Width)
	}
	c.Derived.WorldH = c.World.Height
	if c.Derived.WorldH == 0 {
		c.Derived.WorldH = float64(c.Screen.Height)
	}

	c.Derived.CellSize = 2 * c.Agent.Radius
}

// Validate rejects parameters that would produce a degenerate simulation.
func (c *Config) Validate() error {
	switch {
	case c.Derived.WorldW <= 0 || c.Derived.WorldH <= 0:
		return fmt.Errorf("%w: world size %vx%v", ErrInvalid, c.Derived.WorldW, c.Derived.WorldH)
	case c.Agent.Radius <= 0:
		return fmt.Errorf("%w: agent radius %v", ErrInvalid, c.Agent.Radius)
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics dt %v", ErrInvalid, c.Physics.DT)
	case c.Flow.Resolution <= 0:
		return fmt.Errorf("%w: flow resolution %v", ErrInvalid, c.Flow.Resolution)
	case c.Agent.Initial < 0 || c.Agent.Max < 0:
		return fmt.Errorf("%w: negative population limits", ErrInvalid)
	case c.Agent.Stiffness < 0:
		return fmt.Errorf("%w: agent stiffness %v", ErrInvalid, c.Agent.Stiffness)
	case c.Agent.Drag < 0:
		return fmt.Errorf("%w: agent drag %v", ErrInvalid, c.Agent.Drag)
	case c.Camera.TranslateSpeed <= 0 || c.Camera.ZoomSpeed <= 0 || c.Camera.RotateSpeed <= 0:
		return fmt.Errorf("%w: camera speeds must be positive", ErrInvalid)
	case c.Camera.ZoomMin <= 0 || c.Camera.ZoomMax < c.Camera.ZoomMin:
		return fmt.Errorf("%w: camera zoom range [%v, %v]", ErrInvalid, c.Camera.ZoomMin, c.Camera.ZoomMax)
	case c.Camera.DelayMin < 0 || c.Camera.DelayMax < c.Camera.DelayMin:
		return fmt.Errorf("%w: camera delay range [%v, %v]", ErrInvalid, c.Camera.DelayMin, c.Camera.DelayMax)
	}
	return nil
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
