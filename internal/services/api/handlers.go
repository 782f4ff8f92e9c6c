// Package api is the query/export facade over the store: range queries,
// latest reading, CSV export and a direct write endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"github.com/greenvalve/greenvalve/internal/model"
	"github.com/greenvalve/greenvalve/internal/storage"
)

// Server holds the store handle and the circuit breaker guarding reads.
type Server struct {
	store   storage.Store
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewServer builds the facade. The breaker opens after a run of failed
// store queries so a dead backend answers fast instead of stacking up
// timed-out requests.
func NewServer(store storage.Store) *Server {
	return &Server{
		store: store,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "store-query",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		timeout: 5 * time.Second,
	}
}

// Router wires all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/data", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/data", s.handleWrite).Methods(http.MethodPost)
	r.HandleFunc("/data/latest", s.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/data/export", s.handleExport).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	_, err := s.store.Latest(ctx, model.StreamSensors)
	ready := err == nil
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}

// GET /data?start&end&limit&stream — JSON, newest first.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, stream, err := parseRangeQuery(r, DefaultJSONLimit, model.SortDescending)
	if err != nil {
		writeClientError(w, err)
		return
	}

	readings, err := s.queryStore(r.Context(), stream, q)
	if err != nil {
		// Reads degrade to "no data"; the error is surfaced in a header.
		log.Printf("api: query %s failed: %v", stream, err)
		w.Header().Set("X-Error", "store-query-error")
	}
	if readings == nil {
		readings = []model.Reading{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Count    int             `json:"count"`
		Readings []model.Reading `json:"readings"`
	}{Count: len(readings), Readings: readings})
}

// GET /data/latest — the single most recent reading, or {} when none.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.breaker.Execute(func() (any, error) {
		return s.store.Latest(ctx, model.StreamSensors)
	})
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Printf("api: latest failed: %v", err)
		w.Header().Set("X-Error", "store-query-error")
		_, _ = w.Write([]byte("{}"))
		return
	}
	reading := res.(model.Reading)
	if reading.IsZero() {
		_, _ = w.Write([]byte("{}"))
		return
	}
	_ = json.NewEncoder(w).Encode(reading)
}

// GET /data/export — CSV, oldest first.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, stream, err := parseRangeQuery(r, DefaultExportLimit, model.SortAscending)
	if err != nil {
		writeClientError(w, err)
		return
	}

	readings, err := s.queryStore(r.Context(), stream, q)
	if err != nil {
		log.Printf("api: export %s failed: %v", stream, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", stream))
	if err := writeCSV(w, readings); err != nil {
		log.Printf("api: csv render: %v", err)
	}
}

// POST /data — one reading as a structured payload. ReceivedAt is
// stamped here, whatever the sender claims.
func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PH            *float64 `json:"ph"`
		SoilMoisture  *float64 `json:"soil"`
		Temperature   *float64 `json:"temperature"`
		Humidity      *float64 `json:"humidity"`
		ServoPosition *int     `json:"servo_position"`
		Topic         string   `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeClientError(w, fmt.Errorf("invalid payload: %w", err))
		return
	}

	reading := model.Reading{
		PH:            body.PH,
		SoilMoisture:  body.SoilMoisture,
		Temperature:   body.Temperature,
		Humidity:      body.Humidity,
		ServoPosition: body.ServoPosition,
		Topic:         body.Topic,
		ReceivedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	stream := model.StreamForTopic(body.Topic)
	if err := s.store.Append(ctx, stream, reading); err != nil {
		if errors.Is(err, storage.ErrNilRecord) {
			writeClientError(w, err)
			return
		}
		log.Printf("api: write to %s failed: %v", stream, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(reading)
}

func (s *Server) queryStore(ctx context.Context, stream model.Stream, q model.RangeQuery) ([]model.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.breaker.Execute(func() (any, error) {
		return s.store.Query(ctx, stream, q)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.Reading), nil
}

func writeClientError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
