package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flow/mpm"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTime          float64 `csv:"sim_time"`

	// Particle counts at window end
	Active int `csv:"active"`

	// Events during window
	Sanitized      int `csv:"sanitized"`
	ControlRejects int `csv:"control_rejects"`

	// Kinematics (sampled at window end)
	KineticEnergy float64 `csv:"kinetic_energy"`
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedP50      float64 `csv:"speed_p50"`
	SpeedP90      float64 `csv:"speed_p90"`
	SpeedMax      float64 `csv:"speed_max"`

	// Density distribution (sampled at window end)
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityMax  float64 `csv:"density_max"`

	// Mass bookkeeping: grid mass after the last P2G against particle mass
	ParticleMass float64 `csv:"particle_mass"`
	GridMass     float64 `csv:"grid_mass"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ParticleStats summarizes the kinematic state of a particle set.
type ParticleStats struct {
	KineticEnergy float64
	SpeedMean     float64
	SpeedP50      float64
	SpeedP90      float64
	SpeedMax      float64
	DensityMean   float64
	DensityStd    float64
	DensityMax    float64
	TotalMass     float64
}

// ComputeParticleStats calculates speed and density distributions over ps.
func ComputeParticleStats(ps []mpm.Particle) ParticleStats {
	n := len(ps)
	if n == 0 {
		return ParticleStats{}
	}

	speeds := make([]float64, n)
	densities := make([]float64, n)
	masses := make([]float64, n)
	var ke float64
	for i := range ps {
		v := float64(ps[i].Speed())
		m := float64(ps[i].Mass)
		speeds[i] = v
		densities[i] = float64(ps[i].Density)
		masses[i] = m
		ke += 0.5 * m * v * v
	}

	var s ParticleStats
	s.KineticEnergy = ke
	s.TotalMass = floats.Sum(masses)
	s.SpeedMean = stat.Mean(speeds, nil)
	s.SpeedMax = floats.Max(speeds)
	s.DensityMean, s.DensityStd = stat.PopMeanStdDev(densities, nil)
	s.DensityMax = floats.Max(densities)

	sort.Float64s(speeds)
	s.SpeedP50 = Percentile(speeds, 0.50)
	s.SpeedP90 = Percentile(speeds, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("active", s.Active),
		slog.Int("sanitized", s.Sanitized),
		slog.Int("control_rejects", s.ControlRejects),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("particle_mass", s.ParticleMass),
		slog.Float64("grid_mass", s.GridMass),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTime,
		"active", s.Active,
		"sanitized", s.Sanitized,
		"control_rejects", s.ControlRejects,
		"kinetic_energy", s.KineticEnergy,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"density_mean", s.DensityMean,
		"density_std", s.DensityStd,
		"density_max", s.DensityMax,
		"grid_mass", s.GridMass,
	)
}
