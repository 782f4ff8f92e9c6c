package broker

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher sends messages to the broker. Fire and forget: delivery is
// best-effort at the QoS of the topic, the caller never retries.
type IPublisher interface {
	PublishMessage(message interface{}) error
	PublishTo(topic string, qos byte, retained bool, message string) error
	Close()
}

// Publisher publishes to a fixed default topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher builds a Publisher over a shared MQTT client.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
	}
}

// PublishMessage publishes a string payload to the default topic at QoS 0.
func (p *Publisher) PublishMessage(message interface{}) error {
	messageStr, ok := message.(string)
	if !ok {
		return fmt.Errorf("invalid message format, expected string")
	}
	return p.PublishTo(p.topic, 0, false, messageStr)
}

// PublishTo publishes to an explicit topic with explicit QoS.
func (p *Publisher) PublishTo(topic string, qos byte, retained bool, message string) error {
	token := p.client.Publish(topic, qos, retained, message)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}
	return nil
}

// Close disconnects the underlying MQTT client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Println("broker: publisher disconnected")
	}
}
