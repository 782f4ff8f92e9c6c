package controller

import (
	"errors"
	"testing"

	"github.com/greenvalve/greenvalve/internal/model"
)

type recordingCommander struct {
	commands []int
	err      error
}

func (c *recordingCommander) Command(position int) error {
	if c.err != nil {
		return c.err
	}
	c.commands = append(c.commands, position)
	return nil
}

func TestTrackerStartsClosed(t *testing.T) {
	tr := NewTracker(&recordingCommander{}, nil)
	if tr.Position() != PositionClosed {
		t.Fatalf("initial position = %d, want 0", tr.Position())
	}
}

func TestTrackerDeadband(t *testing.T) {
	// ph 5.0 / soil 45 targets 45°; from 0 that clears the deadband.
	// A follow-up tick targeting the same position is a no-op.
	cmd := &recordingCommander{}
	var events []model.ValveStateEvent
	tr := NewTracker(cmd, func(e model.ValveStateEvent) { events = append(events, e) })

	target, moved, err := tr.Evaluate(5.0, 45)
	if err != nil || !moved || target != PositionQuarter {
		t.Fatalf("first tick: target=%d moved=%v err=%v", target, moved, err)
	}
	if tr.Position() != PositionQuarter {
		t.Fatalf("position after commit = %d, want %d", tr.Position(), PositionQuarter)
	}

	_, moved, _ = tr.Evaluate(5.0, 45)
	if moved {
		t.Fatal("same target must not re-command the servo")
	}

	if len(cmd.commands) != 1 || cmd.commands[0] != PositionQuarter {
		t.Fatalf("commands = %v, want exactly [45]", cmd.commands)
	}
	if len(events) != 1 {
		t.Fatalf("expected one change event, got %d", len(events))
	}
	if events[0].Position != PositionQuarter || events[0].Previous != PositionClosed {
		t.Fatalf("event = %+v", events[0])
	}
	if events[0].ID == "" || events[0].Timestamp.IsZero() {
		t.Fatalf("event missing id or timestamp: %+v", events[0])
	}
}

func TestTrackerSmallDeltaIsNoOp(t *testing.T) {
	cmd := &recordingCommander{}
	tr := NewTracker(cmd, nil)

	// From 0, a target of 5 is inside the deadband and must not actuate.
	if moved, err := tr.apply(5); moved || err != nil {
		t.Fatalf("|5-0| <= 10 must not actuate: moved=%v err=%v", moved, err)
	}
	// A target of 45 clears it.
	if moved, err := tr.apply(45); !moved || err != nil {
		t.Fatalf("|45-0| > 10 must actuate: moved=%v err=%v", moved, err)
	}
	if len(cmd.commands) != 1 || cmd.commands[0] != 45 {
		t.Fatalf("commands = %v, want [45]", cmd.commands)
	}
}

func TestTrackerCommandFailureKeepsPosition(t *testing.T) {
	cmd := &recordingCommander{err: errors.New("servo offline")}
	var events []model.ValveStateEvent
	tr := NewTracker(cmd, func(e model.ValveStateEvent) { events = append(events, e) })

	_, moved, err := tr.Evaluate(4.0, 10) // target 180
	if err == nil || moved {
		t.Fatalf("expected command failure, got moved=%v err=%v", moved, err)
	}
	if tr.Position() != PositionClosed {
		t.Fatalf("position must not advance past a failed command, got %d", tr.Position())
	}
	if len(events) != 0 {
		t.Fatalf("no event on a failed command, got %d", len(events))
	}
}

func TestValveEventReading(t *testing.T) {
	evt := model.ValveStateEvent{Position: 90}
	r := evt.Reading()
	if r.ServoPosition == nil || *r.ServoPosition != 90 {
		t.Fatalf("event reading = %+v", r)
	}
	if r.PH != nil || r.SoilMoisture != nil {
		t.Fatal("servo event reading must carry only the position")
	}
}
