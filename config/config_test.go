package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Particles.Active > cfg.Particles.Max {
		t.Errorf("default active %d > max %d", cfg.Particles.Active, cfg.Particles.Max)
	}
	if want := float32(-cfg.Domain.WorldSize / 2); cfg.Derived.WorldOrigin != want {
		t.Errorf("WorldOrigin = %v, want %v", cfg.Derived.WorldOrigin, want)
	}
	if want := float32(cfg.Domain.WorldSize / float64(cfg.Domain.GridSize)); cfg.Derived.CellWorldSize != want {
		t.Errorf("CellWorldSize = %v, want %v", cfg.Derived.CellWorldSize, want)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"active above max", func(c *Config) { c.Particles.Active = c.Particles.Max + 1 }},
		{"zero rest density", func(c *Config) { c.Material.RestDensity = 0 }},
		{"negative rest density", func(c *Config) { c.Material.RestDensity = -1 }},
		{"margin high at 1.5", func(c *Config) { c.Boundary.MarginHigh = 1.5 }},
		{"unknown gravity mode", func(c *Config) { c.Gravity.Mode = "sideways" }},
		{"unknown scatter", func(c *Config) { c.Parallel.Scatter = "lockfree" }},
		{"unknown activation", func(c *Config) { c.Particles.Activation = "lazy" }},
		{"nan max pressure", func(c *Config) { c.Limits.MaxPressure = math.NaN() }},
		{"infinite stiffness", func(c *Config) { c.Material.Stiffness = math.Inf(1) }},
		{"time scale overflows float32", func(c *Config) { c.Time.TimeScale = 1e39 }},
		{"nan device gravity", func(c *Config) { c.Gravity.Device[1] = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadOverridesOnlyNamedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "material:\n  stiffness: 7.5\nparticles:\n  active: 100\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Material.Stiffness != 7.5 {
		t.Errorf("stiffness = %v, want 7.5", cfg.Material.Stiffness)
	}
	if cfg.Particles.Active != 100 {
		t.Errorf("active = %d, want 100", cfg.Particles.Active)
	}
	if cfg.Material.RestDensity != def.Material.RestDensity {
		t.Errorf("rest_density = %v, want default %v", cfg.Material.RestDensity, def.Material.RestDensity)
	}
	if cfg.Particles.Max != def.Particles.Max || cfg.Gravity.Mode != def.Gravity.Mode {
		t.Errorf("unnamed keys changed: max %d mode %q", cfg.Particles.Max, cfg.Gravity.Mode)
	}
}

func TestLoadRejectsNaNFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  max_pressure: .nan\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load with .nan = %v, want ErrInvalid", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
