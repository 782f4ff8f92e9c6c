package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/greenvalve/greenvalve/internal/services/api"
	"github.com/greenvalve/greenvalve/internal/services/ingest"
	"github.com/greenvalve/greenvalve/internal/storage"
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

	// --- MQTT ---
	mqCfg := &broker.Config{
		Host:     env("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     env("MQTT_USER", ""),
		Password: env("MQTT_PASS", ""),
		ClientID: env("MQTT_CLIENT_ID", "greenvalve-hub"),
	}
	mqClient, err := broker.NewConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	// One subscription per topic so servo/status ride QoS 1.
	topics := []string{
		env("SENSOR_TOPIC", "greenhouse/sensors"),
		env("SERVO_TOPIC", "greenhouse/servo"),
		env("STATUS_TOPIC", "greenhouse/status"),
	}
	consumer := broker.NewMultiConsumer(mqClient, topics, nil)

	// --- Store: InfluxDB when configured, bounded in-memory otherwise ---
	var store storage.Store
	if influxURL := os.Getenv("INFLUX_URL"); influxURL != "" {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		s, err := storage.NewInfluxStore(initCtx, storage.InfluxConfig{
			URL:    influxURL,
			Token:  env("INFLUX_TOKEN", ""),
			Org:    env("INFLUX_ORG", "greenvalve"),
			Bucket: env("INFLUX_BUCKET", "readings"),
		})
		cancel()
		if err != nil {
			// Half-initialized is worse than down: abort startup.
			log.Fatalf("influx init failed: %v", err)
		}
		store = s
		log.Printf("hub: using InfluxDB store at %s", influxURL)
	} else {
		store = storage.NewMemoryStore(envInt("MEMORY_CAP", 0))
		log.Printf("hub: no INFLUX_URL set, using in-memory store")
	}
	defer store.Close()

	svc := ingest.NewService(consumer, store)

	// --- HTTP: query/export facade ---
	srv := &http.Server{
		Addr:              ":" + env("PORT", "8080"),
		Handler:           handlers.LoggingHandler(os.Stdout, api.NewServer(store).Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("hub: HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go svc.Start(ctx)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("hub: shutdown complete")
}
