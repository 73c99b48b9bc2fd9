package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore. It backs deployments that run
// without a database and the test suite. Contents do not survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	points map[uint64]Point
	dim    int
}

// NewMemoryStore creates an empty in-memory store for vectors of the given
// dimensionality.
func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{
		points: make(map[uint64]Point),
		dim:    dim,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dim {
			return &StoreError{Op: "upsert", Err: errDimMismatch(s.dim, len(p.Vector))}
		}
		s.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	if len(vector) != s.dim {
		return nil, &StoreError{Op: "search", Err: errDimMismatch(s.dim, len(vector))}
	}

	s.mu.RLock()
	var scored []ScoredPoint
	for _, p := range s.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		scored = append(scored, ScoredPoint{Point: p, Score: cosine(vector, p.Vector)})
	}
	s.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].ID < scored[j].ID
		}
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) Scroll(ctx context.Context, filter *Filter, limit int) ([]Point, error) {
	s.mu.RLock()
	var out []Point
	for _, p := range s.points {
		if filter.Matches(p.Payload) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Payload, out[j].Payload
		if a.TimestampSeconds != b.TimestampSeconds {
			return a.TimestampSeconds < b.TimestampSeconds
		}
		if a.FrameNumber != b.FrameNumber {
			return a.FrameNumber < b.FrameNumber
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteByFilter(ctx context.Context, filter *Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if filter.Matches(p.Payload) {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make(map[string]VideoStats)
	for _, p := range s.points {
		vs := videos[p.Payload.VideoID]
		if vs.Title == "" {
			vs.Title = p.Payload.VideoTitle
		}
		vs.FrameCount++
		videos[p.Payload.VideoID] = vs
	}

	return &Stats{
		TotalPoints: len(s.points),
		TotalVideos: len(videos),
		Videos:      videos,
		VectorSize:  s.dim,
		Distance:    "Cosine",
	}, nil
}

func (s *MemoryStore) Close() {}

// cosine computes cosine similarity between two vectors of equal length.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}

func errDimMismatch(want, got int) error {
	return fmt.Errorf("vector dimension mismatch: want %d, got %d", want, got)
}
