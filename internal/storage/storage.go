// Package storage holds the time-series store behind ingestion and the
// query facade: append-only per-stream records, ranged/sorted/limited
// reads. Two interchangeable backends exist, InfluxDB for deployments
// with a durable store and a bounded in-memory buffer for everything
// else. Both apply the same filter/sort/limit contract.
package storage

import (
	"context"
	"errors"

	"github.com/greenvalve/greenvalve/internal/model"
)

// DefaultQueryLimit applies when a caller passes a non-positive limit
// without a default of its own.
const DefaultQueryLimit = 500

var (
	// ErrNilRecord rejects an append of an empty record.
	ErrNilRecord = errors.New("storage: empty record")
	// ErrUnavailable means the backing store could not be reached. The
	// caller decides whether and when to retry; the store never does.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Store is the append/query surface over the three reading streams.
type Store interface {
	// Append writes one record to a stream. Fire and forget: it fails
	// only on an empty record or an unreachable backend.
	Append(ctx context.Context, stream model.Stream, r model.Reading) error
	// Query returns a finite, materialized slice of readings matching q.
	// Bounds are inclusive, sorting is by ReceivedAt, the limit is
	// applied after sorting.
	Query(ctx context.Context, stream model.Stream, q model.RangeQuery) ([]model.Reading, error)
	// Latest returns the most recent reading of a stream, or a zero
	// Reading when the stream is empty.
	Latest(ctx context.Context, stream model.Stream) (model.Reading, error)
	// Close releases backend resources.
	Close()
}
