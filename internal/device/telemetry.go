package device

import (
	"math"
	"sync"
	"time"

	"thermometer_alarm/internal/models"
)

// DefaultWindowSize is the number of readings kept for the live chart.
const DefaultWindowSize = 20

// Edge is an alert-state transition caused by one reading.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

// AlertActuator is driven on alert transitions.
type AlertActuator interface {
	Raise() bool
	Clear() bool
}

// Observation is the outcome of one telemetry value.
type Observation struct {
	Reading  models.Reading
	Recorded bool
	Edge     Edge
}

// Telemetry keeps the rolling window, the export log and the alert state.
type Telemetry struct {
	mu        sync.Mutex
	capacity  int
	threshold float64
	recording bool
	latest    *float64
	armed     bool
	window    []models.Reading
	log       []models.Reading

	actuator AlertActuator
	now      func() time.Time
}

func NewTelemetry(capacity int, threshold float64, actuator AlertActuator) *Telemetry {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Telemetry{
		capacity:  capacity,
		threshold: threshold,
		window:    make([]models.Reading, 0, capacity+1),
		actuator:  actuator,
		now:       time.Now,
	}
}

// Observe handles one temperature value. Values are only recorded (and only
// move the alert state) while recording is on; the latest value is always kept.
func (t *Telemetry) Observe(value float64) Observation {
	t.mu.Lock()
	v := value
	t.latest = &v
	r := models.Reading{Time: t.now().UTC(), TemperatureC: value, ThresholdC: t.threshold}
	if !t.recording {
		t.mu.Unlock()
		return Observation{Reading: r}
	}

	t.window = append(t.window, r)
	if len(t.window) > t.capacity {
		t.window = append(t.window[:0], t.window[len(t.window)-t.capacity:]...)
	}
	t.log = append(t.log, r)

	edge := EdgeNone
	switch {
	case value >= t.threshold && !t.armed:
		t.armed = true
		edge = EdgeRising
	case value < t.threshold && t.armed:
		t.armed = false
		edge = EdgeFalling
	}
	t.mu.Unlock()

	// actuator runs outside the lock; it may write to the socket
	if t.actuator != nil {
		switch edge {
		case EdgeRising:
			t.actuator.Raise()
		case EdgeFalling:
			t.actuator.Clear()
		}
	}
	return Observation{Reading: r, Recorded: true, Edge: edge}
}

// SetThreshold replaces the alert threshold. The alert state is re-evaluated
// on the next recorded reading.
func (t *Telemetry) SetThreshold(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidThreshold
	}
	t.mu.Lock()
	t.threshold = v
	t.mu.Unlock()
	return nil
}

func (t *Telemetry) Threshold() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold
}

// SetRecording switches recording and reports whether the value changed.
func (t *Telemetry) SetRecording(on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recording == on {
		return false
	}
	t.recording = on
	return true
}

func (t *Telemetry) Recording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

func (t *Telemetry) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Latest returns the most recent value seen, recorded or not.
func (t *Telemetry) Latest() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		return 0, false
	}
	return *t.latest, true
}

// Clear empties the chart window and the export log.
func (t *Telemetry) Clear() {
	t.mu.Lock()
	t.window = t.window[:0]
	t.log = nil
	t.mu.Unlock()
}

// Window returns a copy of the rolling window, oldest first.
func (t *Telemetry) Window() []models.Reading {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Reading, len(t.window))
	copy(out, t.window)
	return out
}

// Export returns a copy of every reading recorded since the last Clear.
func (t *Telemetry) Export() []models.Reading {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Reading, len(t.log))
	copy(out, t.log)
	return out
}

func (t *Telemetry) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.log)
}
