package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation frame, in pipeline order.
const (
	PhaseClear      = "clear"
	PhaseP2GMass    = "p2g_mass"
	PhaseP2GStress  = "p2g_stress"
	PhaseGridUpdate = "grid_update"
	PhaseG2P        = "g2p"
)

// Phases lists every pipeline phase in execution order.
var Phases = []string{PhaseClear, PhaseP2GMass, PhaseP2GStress, PhaseGridUpdate, PhaseG2P}

// StepSample holds timing data for one pipeline step.
type StepSample struct {
	Total  time.Duration
	Phases map[string]time.Duration
}

// PerfCollector keeps step timings over a ring of the last windowSize
// steps. It is not safe for concurrent use; the simulator records from the
// goroutine that calls Advance.
type PerfCollector struct {
	ring   []StepSample
	next   int
	filled int

	current    map[string]time.Duration
	stepStart  time.Time
	phaseStart time.Time
	phase      string

	// Render frame timing (viewer only)
	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:    make([]StepSample, windowSize),
		current: make(map[string]time.Duration),
	}
}

// StartStep begins timing a pipeline step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.current = make(map[string]time.Duration, len(Phases))
	p.phase = ""
}

// StartPhase closes the running phase, if any, and starts the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndStep closes the running phase and stores the step in the ring.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""

	p.ring[p.next] = StepSample{Total: now.Sub(p.stepStart), Phases: p.current}
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a rendered frame; the gap to the previous call is the
// frame duration.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the steps in the window.
type PerfStats struct {
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	// Per phase: mean, worst case and share of the mean step
	PhaseAvg map[string]time.Duration
	PhaseMax map[string]time.Duration
	PhasePct map[string]float64

	StepsPerSecond float64

	// Render frame timing (viewer only)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhaseMax:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i, sample := range p.ring[:p.filled] {
		total += sample.Total
		if i == 0 || sample.Total < s.MinStep {
			s.MinStep = sample.Total
		}
		s.MaxStep = max(s.MaxStep, sample.Total)
		for phase, d := range sample.Phases {
			sums[phase] += d
			s.PhaseMax[phase] = max(s.PhaseMax[phase], d)
		}
	}

	n := time.Duration(p.filled)
	s.AvgStep = total / n
	for phase, sum := range sums {
		avg := sum / n
		s.PhaseAvg[phase] = avg
		if s.AvgStep > 0 {
			s.PhasePct[phase] = float64(avg) / float64(s.AvgStep) * 100
		}
	}
	if s.AvgStep > 0 {
		s.StepsPerSecond = float64(time.Second) / float64(s.AvgStep)
	}
	return s
}

// Slowest returns the pipeline phase with the largest share of the step,
// or "" when nothing was recorded.
func (s PerfStats) Slowest() string {
	var name string
	var best float64
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > best {
			name, best = phase, pct
		}
	}
	return name
}

// LogStats logs the window summary with one attribute per pipeline phase.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStep.Microseconds(),
		"max_step_us", s.MaxStep.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
		"slowest", s.Slowest(),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("min_step_us", s.MinStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		attrs = append(attrs,
			slog.Float64(phase+"_pct", s.PhasePct[phase]),
			slog.Int64(phase+"_max_us", s.PhaseMax[phase].Microseconds()),
		)
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd     int64   `csv:"window_end"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	FPS           float64 `csv:"fps"`
	Slowest       string  `csv:"slowest"`
	ClearPct      float64 `csv:"clear_pct"`
	P2GMassPct    float64 `csv:"p2g_mass_pct"`
	P2GStressPct  float64 `csv:"p2g_stress_pct"`
	GridUpdatePct float64 `csv:"grid_update_pct"`
	G2PPct        float64 `csv:"g2p_pct"`
}

// ToCSV flattens the summary for the window ending at frame windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgStepUS:     s.AvgStep.Microseconds(),
		MinStepUS:     s.MinStep.Microseconds(),
		MaxStepUS:     s.MaxStep.Microseconds(),
		StepsPerSec:   s.StepsPerSecond,
		FPS:           s.FPS,
		Slowest:       s.Slowest(),
		ClearPct:      s.PhasePct[PhaseClear],
		P2GMassPct:    s.PhasePct[PhaseP2GMass],
		P2GStressPct:  s.PhasePct[PhaseP2GStress],
		GridUpdatePct: s.PhasePct[PhaseGridUpdate],
		G2PPct:        s.PhasePct[PhaseG2P],
	}
}
