package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenvalve/greenvalve/internal/model"
)

// DecodeError marks a malformed or implausible inbound payload. The
// message is dropped and logged, never retried.
type DecodeError struct {
	Topic string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode on %s: %v", e.Topic, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wirePayload is the on-the-wire shape published by the field device.
// The device's own timestamp is deliberately absent here: ReceivedAt is
// stamped on the ingesting side and never trusted from the sender.
type wirePayload struct {
	PH            *float64 `json:"ph"`
	SoilMoisture  *float64 `json:"soil"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	ServoPosition *int     `json:"servo_position"`
}

// Decode parses a raw payload from topic into a validated Reading,
// stamping ReceivedAt with now.
func Decode(payload []byte, topic string, now time.Time) (model.Reading, error) {
	var p wirePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.Reading{}, &DecodeError{Topic: topic, Err: err}
	}
	if p.SoilMoisture != nil && (*p.SoilMoisture < 0 || *p.SoilMoisture > 100) {
		return model.Reading{}, &DecodeError{Topic: topic, Err: fmt.Errorf("soil moisture %.2f out of range", *p.SoilMoisture)}
	}
	if p.ServoPosition != nil && (*p.ServoPosition < 0 || *p.ServoPosition > 180) {
		return model.Reading{}, &DecodeError{Topic: topic, Err: fmt.Errorf("servo position %d out of range", *p.ServoPosition)}
	}

	return model.Reading{
		PH:            p.PH,
		SoilMoisture:  p.SoilMoisture,
		Temperature:   p.Temperature,
		Humidity:      p.Humidity,
		ServoPosition: p.ServoPosition,
		Topic:         topic,
		ReceivedAt:    now.UTC(),
	}, nil
}
