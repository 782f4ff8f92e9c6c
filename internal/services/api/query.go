package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/greenvalve/greenvalve/internal/model"
)

// Query parameter defaults per caller. Each is clamped to the shared
// maximum independently.
const (
	DefaultJSONLimit   = 200
	DefaultExportLimit = 1000
)

// timeLayouts accepted for start/end. RFC3339 first; a bare date means
// midnight UTC of that day.
var timeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTimeParam(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", raw)
}

// parseRangeQuery extracts start/end/limit/stream from the request. An
// unparseable bound is a client error; an absent or non-positive limit
// silently falls back to defLimit.
func parseRangeQuery(r *http.Request, defLimit int, sort model.SortDirection) (model.RangeQuery, model.Stream, error) {
	q := r.URL.Query()
	out := model.RangeQuery{Sort: sort}

	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return out, "", fmt.Errorf("start: %w", err)
		}
		out.Start = &t
	}
	if raw := strings.TrimSpace(q.Get("end")); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return out, "", fmt.Errorf("end: %w", err)
		}
		out.End = &t
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			out.Limit = n // non-positive values fall through to the default
		}
	}

	stream := model.StreamSensors
	if raw := strings.TrimSpace(q.Get("stream")); raw != "" {
		s, ok := model.ParseStream(raw)
		if !ok {
			return out, "", fmt.Errorf("unknown stream %q", raw)
		}
		stream = s
	}

	return out.Normalize(defLimit), stream, nil
}
