package model

import "strings"

// Stream is a named append-only sequence of readings.
type Stream string

const (
	StreamSensors Stream = "sensors"
	StreamServo   Stream = "servo"
	StreamStatus  Stream = "status"
)

// ParseStream maps a user-supplied stream name to a Stream.
func ParseStream(s string) (Stream, bool) {
	switch Stream(strings.ToLower(strings.TrimSpace(s))) {
	case StreamSensors:
		return StreamSensors, true
	case StreamServo:
		return StreamServo, true
	case StreamStatus:
		return StreamStatus, true
	}
	return "", false
}

// StreamForTopic derives the destination stream from an MQTT topic.
// Substring match, first match wins: servo before status, anything
// else lands in the sensor stream.
func StreamForTopic(topic string) Stream {
	switch {
	case strings.Contains(topic, "servo"):
		return StreamServo
	case strings.Contains(topic, "status"):
		return StreamStatus
	default:
		return StreamSensors
	}
}
