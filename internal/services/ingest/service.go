package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greenvalve/greenvalve/internal/model"
	"github.com/greenvalve/greenvalve/internal/storage"
	"github.com/greenvalve/greenvalve/pkg/broker"
	"github.com/greenvalve/greenvalve/pkg/dedup"
)

// Service consumes raw field messages, decodes them and appends the
// resulting readings to their stream. One bad message never stops the
// loop: decode failures are dropped and counted.
type Service struct {
	consumer broker.IConsumer[model.Reading]
	store    storage.Store
	deduper  *dedup.Deduper
	appendTO time.Duration
}

// NewService wires the consumer to the store. The deduper guards against
// QoS 1 redeliveries on the servo and status topics.
func NewService(consumer broker.IConsumer[model.Reading], store storage.Store) *Service {
	s := &Service{
		consumer: consumer,
		store:    store,
		deduper:  dedup.New(10*time.Minute, 20000),
		appendTO: 5 * time.Second,
	}
	consumer.SetHandler(s.handleMessage)
	return s
}

// Start runs the consume loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handleMessage(topic string, msg mqtt.Message) error {
	stream := model.StreamForTopic(topic)

	// Only servo and status ride QoS 1, so only they can be redelivered.
	// Sensor samples on QoS 0 may legitimately repeat byte-for-byte and
	// must all land.
	if stream != model.StreamSensors {
		h := sha256.Sum256(msg.Payload())
		if !s.deduper.ShouldProcess(string(stream) + ":" + hex.EncodeToString(h[:])) {
			duplicatesDropped.Inc()
			return nil
		}
	}

	r, err := Decode(msg.Payload(), topic, time.Now())
	if err != nil {
		decodeFailures.Inc()
		log.Printf("ingest: dropping message on %s: %v", topic, err)
		return nil // never poison the loop on a bad payload
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.appendTO)
	defer cancel()
	if err := s.store.Append(ctx, stream, r); err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			storeErrors.Inc()
		}
		log.Printf("ingest: append to %s failed: %v", stream, err)
		return err
	}

	messagesIngested.WithLabelValues(string(stream)).Inc()
	return nil
}
