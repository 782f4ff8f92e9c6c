package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/greenvalve/greenvalve/internal/services/controller"
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
		ClientID: env("MQTT_CLIENT_ID", "greenvalve-controller"),
	}
	mqClient, err := broker.NewConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}

	sensorTopic := env("SENSOR_TOPIC", "greenhouse/sensors")
	servoTopic := env("SERVO_TOPIC", "greenhouse/servo")
	period := time.Duration(envInt("EVAL_PERIOD_SEC", 30)) * time.Second

	consumer := broker.NewConsumer(mqClient, sensorTopic, nil)
	publisher := broker.NewPublisher(mqClient, servoTopic)

	// No local store on the device side: position changes travel over the
	// servo topic and the hub records them.
	svc := controller.NewService(consumer, publisher, nil, servoTopic, period)

	log.Printf("controller: evaluating %s every %s, commanding on %s", sensorTopic, period, servoTopic)
	svc.Start(ctx)

	log.Println("controller: shutdown complete")
}
