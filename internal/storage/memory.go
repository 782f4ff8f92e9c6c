package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/greenvalve/greenvalve/internal/model"
)

// DefaultMemoryCap bounds each in-memory stream; the oldest records are
// dropped once the cap is reached.
const DefaultMemoryCap = 10000

// MemoryStore is the in-process backend used when no InfluxDB is
// configured. Append-only bounded buffers, one per stream, with the same
// query semantics as the durable backend.
type MemoryStore struct {
	mu      sync.RWMutex
	cap     int
	streams map[model.Stream][]model.Reading
}

// NewMemoryStore builds a MemoryStore holding at most capPerStream
// records per stream (DefaultMemoryCap when non-positive).
func NewMemoryStore(capPerStream int) *MemoryStore {
	if capPerStream <= 0 {
		capPerStream = DefaultMemoryCap
	}
	return &MemoryStore{
		cap:     capPerStream,
		streams: make(map[model.Stream][]model.Reading, 3),
	}
}

func (s *MemoryStore) Append(_ context.Context, stream model.Stream, r model.Reading) error {
	if r.IsZero() {
		return ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.streams[stream], r)
	if over := len(buf) - s.cap; over > 0 {
		buf = buf[over:]
	}
	s.streams[stream] = buf
	return nil
}

func (s *MemoryStore) Query(_ context.Context, stream model.Stream, q model.RangeQuery) ([]model.Reading, error) {
	q = q.Normalize(DefaultQueryLimit)

	s.mu.RLock()
	matched := make([]model.Reading, 0, len(s.streams[stream]))
	for _, r := range s.streams[stream] {
		if q.Matches(r.ReceivedAt) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	// Stable sort keeps the append order among equal timestamps.
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Sort == model.SortAscending {
			return matched[i].ReceivedAt.Before(matched[j].ReceivedAt)
		}
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) Latest(ctx context.Context, stream model.Stream) (model.Reading, error) {
	list, err := s.Query(ctx, stream, model.RangeQuery{Limit: 1, Sort: model.SortDescending})
	if err != nil || len(list) == 0 {
		return model.Reading{}, err
	}
	return list[0], nil
}

func (s *MemoryStore) Close() {}
