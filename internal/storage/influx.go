package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/greenvalve/greenvalve/internal/model"
)

// InfluxConfig carries the InfluxDB connection parameters.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxStore is the durable backend. Each stream maps to a measurement
// in a single bucket; the record time is ReceivedAt.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

// NewInfluxStore connects to InfluxDB and pings it once. A failed ping is
// returned to the caller so startup can abort instead of running against
// a store that was never reachable.
func NewInfluxStore(ctx context.Context, cfg InfluxConfig) (*InfluxStore, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if ok, err := client.Ping(ctx); err != nil || !ok {
		client.Close()
		if err == nil {
			err = fmt.Errorf("ping not ok")
		}
		return nil, fmt.Errorf("influx at %s: %w: %w", cfg.URL, ErrUnavailable, err)
	}

	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *InfluxStore) Append(ctx context.Context, stream model.Stream, r model.Reading) error {
	if r.IsZero() {
		return ErrNilRecord
	}

	tags := map[string]string{}
	if r.Topic != "" {
		tags["topic"] = r.Topic
	}

	fields := map[string]interface{}{}
	if r.PH != nil {
		fields["ph"] = *r.PH
	}
	if r.SoilMoisture != nil {
		fields["soil"] = *r.SoilMoisture
	}
	if r.Temperature != nil {
		fields["temperature"] = *r.Temperature
	}
	if r.Humidity != nil {
		fields["humidity"] = *r.Humidity
	}
	if r.ServoPosition != nil {
		fields["servo_position"] = int64(*r.ServoPosition)
	}
	// Influx requires at least one field; status records may carry none.
	if len(fields) == 0 {
		fields["count"] = int64(1)
	}

	point := influxdb2.NewPoint(string(stream), tags, fields, r.ReceivedAt)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrUnavailable, stream, err)
	}
	return nil
}

func (s *InfluxStore) Query(ctx context.Context, stream model.Stream, q model.RangeQuery) ([]model.Reading, error) {
	q = q.Normalize(DefaultQueryLimit)

	res, err := s.queryAPI.Query(ctx, buildFlux(s.bucket, stream, q))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrUnavailable, stream, err)
	}
	defer func() { _ = res.Close() }()

	out := make([]model.Reading, 0, q.Limit)
	for res.Next() {
		rec := res.Record()
		r := model.Reading{ReceivedAt: rec.Time()}
		if v, ok := toFloat(rec.ValueByKey("ph")); ok {
			r.PH = &v
		}
		if v, ok := toFloat(rec.ValueByKey("soil")); ok {
			r.SoilMoisture = &v
		}
		if v, ok := toFloat(rec.ValueByKey("temperature")); ok {
			r.Temperature = &v
		}
		if v, ok := toFloat(rec.ValueByKey("humidity")); ok {
			r.Humidity = &v
		}
		if v, ok := toFloat(rec.ValueByKey("servo_position")); ok {
			pos := int(v)
			r.ServoPosition = &pos
		}
		if v, ok := rec.ValueByKey("topic").(string); ok {
			r.Topic = v
		}
		out = append(out, r)
	}
	if res.Err() != nil {
		return out, fmt.Errorf("%w: iterate %s: %w", ErrUnavailable, stream, res.Err())
	}
	return out, nil
}

func (s *InfluxStore) Latest(ctx context.Context, stream model.Stream) (model.Reading, error) {
	list, err := s.Query(ctx, stream, model.RangeQuery{Limit: 1, Sort: model.SortDescending})
	if err != nil || len(list) == 0 {
		return model.Reading{}, err
	}
	return list[0], nil
}

func (s *InfluxStore) Close() {
	s.client.Close()
}

// buildFlux renders the range/pivot/sort/limit pipeline. Flux range() has
// an exclusive stop, so the inclusive end bound becomes end+1ns.
func buildFlux(bucket string, stream model.Stream, q model.RangeQuery) string {
	start := "0"
	if q.Start != nil {
		start = q.Start.UTC().Format(time.RFC3339Nano)
	}
	stop := "now()"
	if q.End != nil {
		stop = q.End.Add(time.Nanosecond).UTC().Format(time.RFC3339Nano)
	}
	desc := q.Sort == model.SortDescending

	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: %t)
  |> limit(n: %d)
`, bucket, start, stop, string(stream), desc, q.Limit)
}

// toFloat coerces the value types the Influx client may hand back.
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
