// Package store defines the vector store consumed by the indexing engine and
// the query engine, with pgvector-backed and in-memory implementations.
package store

import (
	"context"
	"fmt"
)

// Payload carries the frame fields needed to render a stored point as a
// search result. It is a copy of the descriptor fields, not a reference.
type Payload struct {
	FrameID            string
	VideoID            string
	VideoTitle         string
	VideoURL           string
	FilePath           string
	FrameNumber        int
	TimestampSeconds   int
	TimestampFormatted string
}

// Point is the unit of storage: a content-addressed id, an embedding, and the
// payload. Upserting a point with an existing id overwrites it.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a point returned from a similarity search.
type ScoredPoint struct {
	Point
	Score float64
}

// Filter restricts which points an operation sees. All set fields must match
// (conjunction). Timestamp bounds are inclusive.
type Filter struct {
	VideoID      string
	MinTimestamp *int
	MaxTimestamp *int
}

// Matches reports whether a payload satisfies the filter.
func (f *Filter) Matches(p Payload) bool {
	if f == nil {
		return true
	}
	if f.VideoID != "" && p.VideoID != f.VideoID {
		return false
	}
	if f.MinTimestamp != nil && p.TimestampSeconds < *f.MinTimestamp {
		return false
	}
	if f.MaxTimestamp != nil && p.TimestampSeconds > *f.MaxTimestamp {
		return false
	}
	return true
}

// VideoStats is the per-video slice of collection statistics.
type VideoStats struct {
	Title      string `json:"title"`
	FrameCount int    `json:"frame_count"`
}

// Stats describes the indexed collection. It is computed on demand and never
// cached.
type Stats struct {
	TotalPoints int                   `json:"total_points"`
	TotalVideos int                   `json:"total_videos"`
	Videos      map[string]VideoStats `json:"videos"`
	VectorSize  int                   `json:"vector_size"`
	Distance    string                `json:"distance"`
}

// StoreError indicates a vector store backend failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// VectorStore is the storage contract. Implementations must support
// concurrent upserts, deletes, and searches. Delete-by-filter is not atomic
// relative to concurrent reads.
type VectorStore interface {
	// Upsert writes points, overwriting any existing point with the same id.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit points ranked by descending cosine
	// similarity to the query vector, ties broken by ascending point id.
	// A non-positive limit means no limit.
	Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error)

	// Scroll returns up to limit matching points without similarity ranking,
	// ordered by (timestamp_seconds, frame_number, id) ascending. The limit
	// caps results after ordering; a non-positive limit means no limit.
	Scroll(ctx context.Context, filter *Filter, limit int) ([]Point, error)

	// DeleteByFilter removes every matching point.
	DeleteByFilter(ctx context.Context, filter *Filter) error

	// Stats computes collection statistics.
	Stats(ctx context.Context) (*Stats, error)

	Close()
}
