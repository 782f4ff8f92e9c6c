package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/greenvalve/greenvalve/internal/device-simulator"
	"github.com/greenvalve/greenvalve/pkg/broker"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mqCfg := &broker.Config{
		Host:     env("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     env("MQTT_USER", ""),
		Password: env("MQTT_PASS", ""),
		ClientID: env("MQTT_CLIENT_ID", "greenvalve-simulator"),
	}
	mqClient, err := broker.NewConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}

	sensorTopic := env("SENSOR_TOPIC", "greenhouse/sensors")
	servoTopic := env("SERVO_TOPIC", "greenhouse/servo")
	interval := time.Duration(envInt("PUBLISH_PERIOD_SEC", 10)) * time.Second

	gen := simulator.NewDataGenerator(time.Now().UnixNano())
	consumer := broker.NewConsumer(mqClient, servoTopic, nil)
	publisher := broker.NewPublisher(mqClient, sensorTopic)

	sim := simulator.NewDeviceSimulator(consumer, publisher, gen, sensorTopic)
	log.Printf("simulator: publishing on %s every %s", sensorTopic, interval)
	sim.Start(ctx, interval)

	log.Println("simulator: shutdown complete")
}
