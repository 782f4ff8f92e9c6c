package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenvalve/greenvalve/internal/model"
)

// Deadband is the minimum position change, in degrees, worth actuating.
// Smaller deltas are ignored to keep the servo from chattering when the
// state hovers near a rule boundary.
const Deadband = 10

// Commander physically moves the valve. In production it is the MQTT
// publisher the device listens on; tests plug in a recorder.
type Commander interface {
	Command(position int) error
}

// CommanderFunc adapts a function to the Commander interface.
type CommanderFunc func(position int) error

func (f CommanderFunc) Command(position int) error { return f(position) }

// Tracker owns the last-commanded valve position. It is the only writer
// of that state: the evaluation loop calls Evaluate, everything else may
// only read Position.
type Tracker struct {
	mu            sync.Mutex
	position      int
	lastEvaluated time.Time
	commander     Commander
	onChange      func(model.ValveStateEvent)
}

// NewTracker starts at position 0 (closed). onChange may be nil.
func NewTracker(commander Commander, onChange func(model.ValveStateEvent)) *Tracker {
	return &Tracker{
		position:  PositionClosed,
		commander: commander,
		onChange:  onChange,
	}
}

// Position returns the last-commanded position.
func (t *Tracker) Position() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Evaluate runs one tick: computes the target for the given state and
// commits it only when it differs from the current position by more than
// the deadband. It returns the target and whether the valve was moved.
func (t *Tracker) Evaluate(ph, soilMoisture float64) (int, bool, error) {
	target := Decide(ph, soilMoisture)
	moved, err := t.apply(target)
	return target, moved, err
}

// apply commits a target position, honoring the deadband.
func (t *Tracker) apply(target int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastEvaluated = time.Now()

	if abs(target-t.position) <= Deadband {
		return false, nil
	}

	prev := t.position
	if t.commander != nil {
		if err := t.commander.Command(target); err != nil {
			// Leave the tracked position as-is: the valve did not move.
			return false, err
		}
	}
	t.position = target

	if t.onChange != nil {
		t.onChange(model.ValveStateEvent{
			ID:        uuid.NewString(),
			Position:  target,
			Previous:  prev,
			Timestamp: time.Now().UTC(),
		})
	}
	return true, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
