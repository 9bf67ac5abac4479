package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/flow/mpm"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeParticleStats(t *testing.T) {
	ps := []mpm.Particle{
		{Velocity: mgl32.Vec3{1, 0, 0}, Mass: 1, Density: 0.5},
		{Velocity: mgl32.Vec3{0, 2, 0}, Mass: 1, Density: 1.5},
		{Velocity: mgl32.Vec3{0, 0, 3}, Mass: 2, Density: 1.0},
	}
	s := ComputeParticleStats(ps)

	// 0.5*1*1 + 0.5*1*4 + 0.5*2*9
	if math.Abs(s.KineticEnergy-11.5) > 1e-9 {
		t.Errorf("kinetic energy = %v, want 11.5", s.KineticEnergy)
	}
	if math.Abs(s.SpeedMean-2) > 1e-9 {
		t.Errorf("speed mean = %v, want 2", s.SpeedMean)
	}
	if s.SpeedMax != 3 {
		t.Errorf("speed max = %v, want 3", s.SpeedMax)
	}
	if s.SpeedP50 != 2 {
		t.Errorf("speed p50 = %v, want 2", s.SpeedP50)
	}
	if math.Abs(s.DensityMean-1) > 1e-9 {
		t.Errorf("density mean = %v, want 1", s.DensityMean)
	}
	// population std of {0.5, 1.5, 1.0}
	if want := math.Sqrt(1.0 / 6.0); math.Abs(s.DensityStd-want) > 1e-9 {
		t.Errorf("density std = %v, want %v", s.DensityStd, want)
	}
	if s.TotalMass != 4 {
		t.Errorf("total mass = %v, want 4", s.TotalMass)
	}
}

func TestComputeParticleStatsEmpty(t *testing.T) {
	if s := ComputeParticleStats(nil); s != (ParticleStats{}) {
		t.Errorf("empty set stats = %+v, want zero", s)
	}
}

func TestCollectorFlushResetsWindow(t *testing.T) {
	c := NewCollector(10)
	c.RecordSanitized(3)
	c.RecordSanitized(2)
	c.RecordControlReject()

	if c.ShouldFlush(9) {
		t.Error("flush requested before window end")
	}
	if !c.ShouldFlush(10) {
		t.Error("flush not requested at window end")
	}

	ps := []mpm.Particle{{Mass: 1, Density: 1}}
	stats := c.Flush(10, 1.5, ps, 1)
	if stats.Sanitized != 5 || stats.ControlRejects != 1 {
		t.Errorf("counters = (%d, %d), want (5, 1)", stats.Sanitized, stats.ControlRejects)
	}
	if stats.Active != 1 || stats.ParticleMass != 1 || stats.GridMass != 1 {
		t.Errorf("stats = %+v", stats)
	}

	next := c.Flush(20, 3, ps, 1)
	if next.WindowStartFrame != 10 || next.Sanitized != 0 {
		t.Errorf("second window = %+v, want start 10 and zero counters", next)
	}
}
