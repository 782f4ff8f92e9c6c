package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greenvalve/greenvalve/internal/model"
	"github.com/greenvalve/greenvalve/internal/storage"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeConsumer struct {
	handler func(topic string, message mqtt.Message) error
}

func (c *fakeConsumer) ConsumeMessage(ctx context.Context) { <-ctx.Done() }
func (c *fakeConsumer) SetHandler(h func(topic string, message mqtt.Message) error) {
	c.handler = h
}

type fakePublisher struct {
	published []string
	topics    []string
}

func (p *fakePublisher) PublishMessage(message interface{}) error {
	p.published = append(p.published, message.(string))
	return nil
}

func (p *fakePublisher) PublishTo(topic string, qos byte, retained bool, message string) error {
	p.topics = append(p.topics, topic)
	p.published = append(p.published, message)
	return nil
}

func (p *fakePublisher) Close() {}

func TestServiceEvaluatesLatestReading(t *testing.T) {
	consumer := &fakeConsumer{}
	pub := &fakePublisher{}
	store := storage.NewMemoryStore(0)
	svc := NewService(consumer, pub, store, "greenhouse/servo", time.Hour)

	// Feed a reading that targets 180° (very dry).
	payload, _ := json.Marshal(model.Reading{
		PH:           model.Float64(5.0),
		SoilMoisture: model.Float64(10),
	})
	if err := consumer.handler("greenhouse/sensors", fakeMessage{topic: "greenhouse/sensors", payload: payload}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	svc.evaluateTick()

	if svc.Tracker().Position() != PositionFullOpen {
		t.Fatalf("position = %d, want 180", svc.Tracker().Position())
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one servo command published, got %d", len(pub.published))
	}
	if pub.topics[0] != "greenhouse/servo" {
		t.Fatalf("published on %q", pub.topics[0])
	}
	var cmd map[string]int
	if err := json.Unmarshal([]byte(pub.published[0]), &cmd); err != nil {
		t.Fatalf("command payload: %v", err)
	}
	if cmd["servo_position"] != 180 {
		t.Fatalf("command = %v", cmd)
	}

	// The transition is also recorded on the servo stream.
	got, err := store.Query(context.Background(), model.StreamServo, model.RangeQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ServoPosition == nil || *got[0].ServoPosition != 180 {
		t.Fatalf("servo stream = %+v", got)
	}
}

func TestServiceSkipsUnusableReadings(t *testing.T) {
	consumer := &fakeConsumer{}
	pub := &fakePublisher{}
	svc := NewService(consumer, pub, nil, "greenhouse/servo", time.Hour)

	// Garbage and servo-only payloads never reach the policy.
	_ = consumer.handler("greenhouse/sensors", fakeMessage{topic: "greenhouse/sensors", payload: []byte("garbage")})
	payload, _ := json.Marshal(model.Reading{ServoPosition: model.Int(90)})
	_ = consumer.handler("greenhouse/sensors", fakeMessage{topic: "greenhouse/sensors", payload: payload})

	svc.evaluateTick()

	if svc.Tracker().Position() != PositionClosed {
		t.Fatalf("position = %d, want 0 (no usable reading yet)", svc.Tracker().Position())
	}
	if len(pub.published) != 0 {
		t.Fatalf("nothing should have been commanded, got %v", pub.published)
	}
}
