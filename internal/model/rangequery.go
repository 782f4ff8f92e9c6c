package model

import "time"

// SortDirection orders query results by ReceivedAt.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// MaxQueryLimit is the hard cap on any range query, whatever the caller asks.
const MaxQueryLimit = 5000

// RangeQuery is a time-bounded, sorted, limited read over a stream.
// Start and End are inclusive when set.
type RangeQuery struct {
	Start *time.Time
	End   *time.Time
	Limit int
	Sort  SortDirection
}

// Normalize clamps Limit into [1, MaxQueryLimit], falling back to def when
// the requested limit is absent or non-positive, and defaults Sort to
// descending. A query is never unbounded.
func (q RangeQuery) Normalize(def int) RangeQuery {
	if def <= 0 || def > MaxQueryLimit {
		def = MaxQueryLimit
	}
	if q.Limit <= 0 {
		q.Limit = def
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if q.Sort != SortAscending && q.Sort != SortDescending {
		q.Sort = SortDescending
	}
	return q
}

// Matches reports whether t falls inside the query's time bounds.
func (q RangeQuery) Matches(t time.Time) bool {
	if q.Start != nil && t.Before(*q.Start) {
		return false
	}
	if q.End != nil && t.After(*q.End) {
		return false
	}
	return true
}
