// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Domain     DomainConfig     `yaml:"domain"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Time       TimeConfig       `yaml:"time"`
	Material   MaterialConfig   `yaml:"material"`
	Gravity    GravityConfig    `yaml:"gravity"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Limits     LimitsConfig     `yaml:"limits"`
	Turbulence TurbulenceConfig `yaml:"turbulence"`
	Pointer    PointerConfig    `yaml:"pointer"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Render     RenderConfig     `yaml:"render"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Stream     StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the desktop viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DomainConfig holds the grid resolution and its placement in world space.
// The grid cube [0, grid_size]^3 maps onto a world cube of edge world_size
// centered on the origin.
type DomainConfig struct {
	GridSize  int     `yaml:"grid_size"`
	WorldSize float64 `yaml:"world_size"`
}

// ParticlesConfig holds particle store parameters.
type ParticlesConfig struct {
	Max            int        `yaml:"max"`
	Active         int        `yaml:"active"`
	Activation     string     `yaml:"activation"`      // stale | reseed
	DensityBlend   float64    `yaml:"density_blend"`   // 1 = instantaneous, <1 = exponential smoothing
	DirectionBlend float64    `yaml:"direction_blend"` // smoothing factor for the render direction hint
	Seed           int64      `yaml:"seed"`
	RegionMin      [3]float64 `yaml:"region_min"` // seeding box, fractions of grid_size
	RegionMax      [3]float64 `yaml:"region_max"`
	Jitter         float64    `yaml:"jitter"` // initial velocity jitter magnitude
}

// TimeConfig holds timestep parameters.
type TimeConfig struct {
	DTScale   float64 `yaml:"dt_scale"`   // simulation time units per wall-clock second
	MaxDelta  float64 `yaml:"max_delta"`  // wall-clock delta is clamped to this before scaling
	TimeScale float64 `yaml:"time_scale"` // initial per-frame multiplier
}

// MaterialConfig holds the constitutive model parameters.
type MaterialConfig struct {
	Stiffness        float64 `yaml:"stiffness"`
	RestDensity      float64 `yaml:"rest_density"`
	DynamicViscosity float64 `yaml:"dynamic_viscosity"`
}

// GravityConfig holds gravity parameters.
type GravityConfig struct {
	Mode     string     `yaml:"mode"` // back | down | center | device
	Strength float64    `yaml:"strength"`
	Device   [3]float64 `yaml:"device"` // initial device vector, in units of strength
}

// BoundaryConfig holds soft wall and clamp parameters, all in grid cells.
type BoundaryConfig struct {
	WallThickness float64 `yaml:"wall_thickness"`
	WallStiffness float64 `yaml:"wall_stiffness"`
	MarginLow     float64 `yaml:"margin_low"`
	MarginHigh    float64 `yaml:"margin_high"`
}

// LimitsConfig holds saturation limits that keep the state finite.
type LimitsConfig struct {
	MaxPressure     float64 `yaml:"max_pressure"`
	MaxDisplacement float64 `yaml:"max_displacement"` // cells per step
	MassEpsilon     float64 `yaml:"mass_epsilon"`
}

// TurbulenceConfig holds turbulence field parameters.
type TurbulenceConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Speed     float64 `yaml:"speed"`
	Scale     float64 `yaml:"scale"` // spatial frequency in 1/cells
	Seed      int64   `yaml:"seed"`
}

// PointerConfig holds pointer interaction parameters.
type PointerConfig struct {
	Radius   float64 `yaml:"radius"`   // grid cells
	Strength float64 `yaml:"strength"` // >0 attracts, <0 repels
	Persist  bool    `yaml:"persist"`  // false = pointer expires after each frame
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers   int    `yaml:"workers"`   // 0 = GOMAXPROCS
	Scatter   string `yaml:"scatter"`   // atomic | serial
	Threshold int    `yaml:"threshold"` // below this many work items a stage runs inline
}

// RenderConfig holds rendering-hint parameters.
type RenderConfig struct {
	Palette    string  `yaml:"palette"`
	ColorSpeed float64 `yaml:"color_speed"` // speed mapped to the end of the palette
	PointSize  float64 `yaml:"point_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // frames between stats records
	PerfWindow  int `yaml:"perf_window"`
}

// StreamConfig holds WebSocket streaming parameters.
type StreamConfig struct {
	Addr string `yaml:"addr"`
	FPS  int    `yaml:"fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridSize32    float32 // Domain.GridSize as float32
	CellWorldSize float32 // world units per grid cell
	WorldOrigin   float32 // world coordinate of grid coordinate 0 on every axis
	Workers       int     // requested worker count, 0 = GOMAXPROCS
	Serial        bool    // Parallel.Scatter == "serial"
	ReseedOnRaise bool    // Particles.Activation == "reseed"
	MaxDisplace32 float32
	MassEpsilon32 float32
	MaxPressure32 float32
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

// Default returns the embedded defaults with derived values computed.
func Default() *Config {
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects parameter combinations that cannot produce a valid frame.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	for name, v := range c.floatFields() {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxFloat32 {
			return invalid("%s = %g is not a finite float32", name, v)
		}
	}
	if c.Domain.GridSize < 8 {
		return invalid("domain.grid_size %d < 8", c.Domain.GridSize)
	}
	if c.Domain.WorldSize <= 0 {
		return invalid("domain.world_size must be positive")
	}
	if c.Particles.Max < 0 {
		return invalid("particles.max must be non-negative")
	}
	if c.Particles.Active < 0 || c.Particles.Active > c.Particles.Max {
		return invalid("particles.active %d outside [0, %d]", c.Particles.Active, c.Particles.Max)
	}
	switch c.Particles.Activation {
	case "stale", "reseed":
	default:
		return invalid("particles.activation %q", c.Particles.Activation)
	}
	if c.Particles.DensityBlend <= 0 || c.Particles.DensityBlend > 1 {
		return invalid("particles.density_blend must be in (0, 1]")
	}
	if c.Particles.DirectionBlend <= 0 || c.Particles.DirectionBlend > 1 {
		return invalid("particles.direction_blend must be in (0, 1]")
	}
	for a := 0; a < 3; a++ {
		lo, hi := c.Particles.RegionMin[a], c.Particles.RegionMax[a]
		if lo < 0 || hi > 1 || lo > hi {
			return invalid("particles seeding region axis %d [%g, %g]", a, lo, hi)
		}
	}
	if c.Time.DTScale <= 0 || c.Time.MaxDelta <= 0 {
		return invalid("time.dt_scale and time.max_delta must be positive")
	}
	if c.Time.TimeScale < 0 {
		return invalid("time.time_scale must be non-negative")
	}
	if c.Material.RestDensity <= 0 {
		return invalid("material.rest_density must be positive")
	}
	if c.Material.Stiffness < 0 || c.Material.DynamicViscosity < 0 {
		return invalid("material.stiffness and material.dynamic_viscosity must be non-negative")
	}
	switch c.Gravity.Mode {
	case "back", "down", "center", "device":
	default:
		return invalid("gravity.mode %q", c.Gravity.Mode)
	}
	if c.Boundary.MarginLow < 0.5 {
		return invalid("boundary.margin_low %g < 0.5", c.Boundary.MarginLow)
	}
	if c.Boundary.MarginHigh <= 1.5 {
		return invalid("boundary.margin_high %g <= 1.5", c.Boundary.MarginHigh)
	}
	if c.Boundary.WallThickness < 0 || c.Boundary.WallStiffness < 0 {
		return invalid("boundary wall parameters must be non-negative")
	}
	if c.Limits.MaxPressure <= 0 || c.Limits.MaxDisplacement <= 0 || c.Limits.MaxDisplacement > 1 {
		return invalid("limits.max_pressure must be positive and limits.max_displacement in (0, 1]")
	}
	if c.Limits.MassEpsilon <= 0 {
		return invalid("limits.mass_epsilon must be positive")
	}
	if c.Turbulence.Amplitude < 0 || c.Turbulence.Speed < 0 || c.Turbulence.Scale <= 0 {
		return invalid("turbulence amplitude/speed must be non-negative and scale positive")
	}
	if c.Pointer.Radius <= 0 {
		return invalid("pointer.radius must be positive")
	}
	switch c.Parallel.Scatter {
	case "atomic", "serial":
	default:
		return invalid("parallel.scatter %q", c.Parallel.Scatter)
	}
	if c.Parallel.Workers < 0 {
		return invalid("parallel.workers must be non-negative")
	}
	return nil
}

// floatFields lists every float parameter by its YAML key. The simulation
// runs in float32, so each must stay finite after narrowing.
func (c *Config) floatFields() map[string]float64 {
	f := map[string]float64{
		"domain.world_size":          c.Domain.WorldSize,
		"particles.density_blend":    c.Particles.DensityBlend,
		"particles.direction_blend":  c.Particles.DirectionBlend,
		"particles.jitter":           c.Particles.Jitter,
		"time.dt_scale":              c.Time.DTScale,
		"time.max_delta":             c.Time.MaxDelta,
		"time.time_scale":            c.Time.TimeScale,
		"material.stiffness":         c.Material.Stiffness,
		"material.rest_density":      c.Material.RestDensity,
		"material.dynamic_viscosity": c.Material.DynamicViscosity,
		"gravity.strength":           c.Gravity.Strength,
		"boundary.wall_thickness":    c.Boundary.WallThickness,
		"boundary.wall_stiffness":    c.Boundary.WallStiffness,
		"boundary.margin_low":        c.Boundary.MarginLow,
		"boundary.margin_high":       c.Boundary.MarginHigh,
		"limits.max_pressure":        c.Limits.MaxPressure,
		"limits.max_displacement":    c.Limits.MaxDisplacement,
		"limits.mass_epsilon":        c.Limits.MassEpsilon,
		"turbulence.amplitude":       c.Turbulence.Amplitude,
		"turbulence.speed":           c.Turbulence.Speed,
		"turbulence.scale":           c.Turbulence.Scale,
		"pointer.radius":             c.Pointer.Radius,
		"pointer.strength":           c.Pointer.Strength,
		"render.color_speed":         c.Render.ColorSpeed,
		"render.point_size":          c.Render.PointSize,
	}
	for a := 0; a < 3; a++ {
		f[fmt.Sprintf("particles.region_min[%d]", a)] = c.Particles.RegionMin[a]
		f[fmt.Sprintf("particles.region_max[%d]", a)] = c.Particles.RegionMax[a]
		f[fmt.Sprintf("gravity.device[%d]", a)] = c.Gravity.Device[a]
	}
	return f
}

// ComputeDerived calculates values derived from loaded config.
func (c *Config) ComputeDerived() {
	c.Derived.GridSize32 = float32(c.Domain.GridSize)
	c.Derived.CellWorldSize = float32(c.Domain.WorldSize / float64(c.Domain.GridSize))
	c.Derived.WorldOrigin = float32(-c.Domain.WorldSize / 2)
	c.Derived.Workers = c.Parallel.Workers
	c.Derived.Serial = c.Parallel.Scatter == "serial"
	c.Derived.ReseedOnRaise = c.Particles.Activation == "reseed"
	c.Derived.MaxDisplace32 = float32(c.Limits.MaxDisplacement)
	c.Derived.MassEpsilon32 = float32(c.Limits.MassEpsilon)
	c.Derived.MaxPressure32 = float32(c.Limits.MaxPressure)
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
