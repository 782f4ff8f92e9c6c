package model

import "time"

// ValveStateEvent is emitted when the tracker commits a new servo position.
type ValveStateEvent struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"` // degrees, 0-180
	Previous  int       `json:"previous"`
	Timestamp time.Time `json:"timestamp"`
}

// Reading converts the event into a servo-stream record.
func (e ValveStateEvent) Reading() Reading {
	pos := e.Position
	return Reading{
		ServoPosition: &pos,
		ReceivedAt:    e.Timestamp,
	}
}
