package model

import "time"

// Reading is a single point-in-time observation from the field device.
// Numeric fields are pointers: a servo event carries only the position,
// a status message may carry nothing numeric at all, and absent fields
// must stay absent through storage and export.
type Reading struct {
	PH            *float64  `json:"ph,omitempty"`
	SoilMoisture  *float64  `json:"soil,omitempty"` // percent, 0-100
	Temperature   *float64  `json:"temperature,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
	ServoPosition *int      `json:"servo_position,omitempty"` // degrees, 0-180
	Topic         string    `json:"topic,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// IsZero reports whether the reading carries no data at all.
func (r Reading) IsZero() bool {
	return r.PH == nil && r.SoilMoisture == nil && r.Temperature == nil &&
		r.Humidity == nil && r.ServoPosition == nil && r.Topic == "" && r.ReceivedAt.IsZero()
}

// Float64 returns a pointer to v, for building readings inline.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
