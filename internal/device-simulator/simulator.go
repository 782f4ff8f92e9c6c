// Package simulator stands in for the greenhouse field device:
// it publishes synthetic sensor readings on a fixed period and mirrors
// servo commands back into its state.
package simulator

import (
	"context"
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greenvalve/greenvalve/internal/model"
	"github.com/greenvalve/greenvalve/pkg/broker"
)

type DeviceSimulator struct {
	generator *DataGenerator
	publisher broker.IPublisher
	consumer  broker.IConsumer[model.Reading]
	topic     string
}

// NewDeviceSimulator wires the generator to the broker. consumer should
// be subscribed to the servo topic so commanded positions feed back.
func NewDeviceSimulator(consumer broker.IConsumer[model.Reading], publisher broker.IPublisher,
	gen *DataGenerator, sensorTopic string) *DeviceSimulator {
	s := &DeviceSimulator{
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		topic:     sensorTopic,
	}
	consumer.SetHandler(s.handleServoCommand)
	return s
}

// Start runs the servo-command consumer and the publish loop until ctx
// is cancelled.
func (s *DeviceSimulator) Start(ctx context.Context, interval time.Duration) {
	go s.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			sample := s.generator.Next()
			payload, _ := json.Marshal(map[string]interface{}{
				"ph":             sample.PH,
				"soil":           sample.SoilMoisture,
				"temperature":    sample.Temperature,
				"humidity":       sample.Humidity,
				"servo_position": sample.ServoPosition,
			})
			if err := s.publisher.PublishMessage(string(payload)); err != nil {
				log.Printf("simulator: publish error: %v", err)
				continue
			}
			log.Printf("simulator: pub ph=%.2f soil=%.1f%% servo=%d°",
				sample.PH, sample.SoilMoisture, sample.ServoPosition)
		}
	}
}

func (s *DeviceSimulator) handleServoCommand(topic string, msg mqtt.Message) error {
	var cmd struct {
		ServoPosition *int `json:"servo_position"`
	}
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("simulator: bad servo command on %s: %v", topic, err)
		return nil
	}
	if cmd.ServoPosition == nil {
		return nil
	}
	s.generator.SetServo(*cmd.ServoPosition)
	log.Printf("simulator: servo set to %d°", *cmd.ServoPosition)
	return nil
}
