package controller

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greenvalve/greenvalve/internal/model"
	"github.com/greenvalve/greenvalve/internal/storage"
	"github.com/greenvalve/greenvalve/pkg/broker"
)

// Service runs the valve control loop: an MQTT consumer caches the most
// recent sensor reading, a fixed ticker evaluates it against the policy.
// The two activities share only the latest-reading cell and the tracker's
// position, each with a single writer.
type Service struct {
	consumer   broker.IConsumer[model.Reading]
	publisher  broker.IPublisher
	tracker    *Tracker
	store      storage.Store // optional; records position changes when set
	period     time.Duration
	servoTopic string

	mu     sync.RWMutex
	latest *model.Reading
}

// NewService wires the control loop. store may be nil when the service
// runs on the device side without a local store; position changes are
// then only published on the servo topic.
func NewService(consumer broker.IConsumer[model.Reading], publisher broker.IPublisher,
	store storage.Store, servoTopic string, period time.Duration) *Service {
	if period <= 0 {
		period = 30 * time.Second
	}
	s := &Service{
		consumer:   consumer,
		publisher:  publisher,
		store:      store,
		period:     period,
		servoTopic: servoTopic,
	}
	s.tracker = NewTracker(
		CommanderFunc(s.commandValve),
		s.recordChange,
	)
	consumer.SetHandler(s.handleReading)
	return s
}

// Tracker exposes the valve tracker, mainly for health reporting.
func (s *Service) Tracker() *Tracker { return s.tracker }

// Start runs the consumer and the evaluation ticker until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluateTick()
		}
	}
}

func (s *Service) handleReading(topic string, msg mqtt.Message) error {
	var r model.Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		log.Printf("controller: bad payload on %s: %v", topic, err)
		return nil
	}
	if r.PH == nil && r.SoilMoisture == nil {
		return nil // nothing the policy can act on
	}
	s.mu.Lock()
	s.latest = &r
	s.mu.Unlock()
	return nil
}

func (s *Service) evaluateTick() {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil || latest.PH == nil || latest.SoilMoisture == nil {
		return
	}

	target, moved, err := s.tracker.Evaluate(*latest.PH, *latest.SoilMoisture)
	if err != nil {
		log.Printf("controller: command to %d° failed: %v", target, err)
		return
	}
	if moved {
		log.Printf("controller: valve moved to %d° (ph=%.2f soil=%.1f%%)",
			target, *latest.PH, *latest.SoilMoisture)
	}
}

// commandValve publishes the new position on the servo topic at QoS 1.
func (s *Service) commandValve(position int) error {
	payload, _ := json.Marshal(map[string]int{"servo_position": position})
	return s.publisher.PublishTo(s.servoTopic, 1, false, string(payload))
}

// recordChange appends the transition to the servo stream when a store
// is attached.
func (s *Service) recordChange(evt model.ValveStateEvent) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Append(ctx, model.StreamServo, evt.Reading()); err != nil {
		log.Printf("controller: record position change: %v", err)
	}
}
