package simulator

import (
	"math"
	"math/rand"
	"sync"
)

// ----------- Simulation constants -----------
const (
	AmbientC        = 25.0 // ambient temperature °C
	RampUpCPerSec   = 0.5  // °C per second while heating toward target
	RampDownCPerSec = 0.8  // °C per second while cooling toward target
	NoiseC          = 0.15 // ± sensor jitter per tick
	MinTargetC      = -40.0
	MaxTargetC      = 125.0 // DS18B20 range
)

// Thermal is a probe temperature ramping toward a settable target.
type Thermal struct {
	mu      sync.Mutex
	current float64
	target  float64
	noise   float64
	rng     *rand.Rand
}

// NewThermal starts at ambient. noise <= 0 disables jitter.
func NewThermal(target, noise float64, seed int64) *Thermal {
	return &Thermal{
		current: AmbientC,
		target:  clampTarget(target),
		noise:   noise,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Step advances the model by elapsed seconds and returns the new reading.
func (t *Thermal) Step(elapsed float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elapsed > 0 {
		switch {
		case t.current < t.target:
			t.current = math.Min(t.current+RampUpCPerSec*elapsed, t.target)
		case t.current > t.target:
			t.current = math.Max(t.current-RampDownCPerSec*elapsed, t.target)
		}
	}
	v := t.current
	if t.noise > 0 {
		v += (t.rng.Float64()*2 - 1) * t.noise
	}
	return math.Round(v*100) / 100
}

func (t *Thermal) SetTarget(c float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = clampTarget(c)
	return t.target
}

// Jump moves the probe straight to c, e.g. to trip an alarm in a demo.
func (t *Thermal) Jump(c float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = clampTarget(c)
}

func (t *Thermal) State() (current, target float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.target
}

func clampTarget(c float64) float64 {
	if math.IsNaN(c) {
		return AmbientC
	}
	return math.Max(MinTargetC, math.Min(c, MaxTargetC))
}
