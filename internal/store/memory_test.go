package store

import (
	"context"
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func point(id uint64, videoID string, frameNumber, seconds int, vector []float32) Point {
	return Point{
		ID:     id,
		Vector: vector,
		Payload: Payload{
			FrameID:          "frame",
			VideoID:          videoID,
			FrameNumber:      frameNumber,
			TimestampSeconds: seconds,
		},
	}
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Point{point(1, "vidA", 1, 0, []float32{1, 0})}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Upsert(ctx, []Point{point(1, "vidA", 1, 0, []float32{0, 1})}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPoints != 1 {
		t.Errorf("TotalPoints = %d, want 1 after overwriting upsert", stats.TotalPoints)
	}

	got, err := s.Search(ctx, []float32{0, 1}, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Score < 0.999 {
		t.Errorf("expected overwritten vector to match the new direction, got %+v", got)
	}
}

func TestMemoryStoreUpsertRejectsWrongDimension(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.Upsert(context.Background(), []Point{point(1, "vidA", 1, 0, []float32{1, 0})})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("error type = %T, want *StoreError", err)
	}
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	// Two points share a direction (tie), one diverges.
	err := s.Upsert(ctx, []Point{
		point(30, "vidA", 3, 10, []float32{1, 0}),
		point(10, "vidA", 1, 0, []float32{1, 0}),
		point(20, "vidA", 2, 5, []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := s.Search(ctx, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("result count = %d, want 3", len(got))
	}
	// Ties break by ascending id; the orthogonal vector sorts last.
	if got[0].ID != 10 || got[1].ID != 30 || got[2].ID != 20 {
		t.Errorf("order = [%d %d %d], want [10 30 20]", got[0].ID, got[1].ID, got[2].ID)
	}

	limited, err := s.Search(ctx, []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited result count = %d, want 2", len(limited))
	}
}

func TestMemoryStoreFilterConjunction(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	err := s.Upsert(ctx, []Point{
		point(1, "vidA", 1, 0, []float32{1, 0}),
		point(2, "vidA", 2, 10, []float32{1, 0}),
		point(3, "vidB", 1, 10, []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	filter := &Filter{VideoID: "vidA", MinTimestamp: intPtr(5), MaxTimestamp: intPtr(15)}
	got, err := s.Search(ctx, []float32{1, 0}, 10, filter)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("filtered results = %+v, want only point 2", got)
	}
}

func TestMemoryStoreScrollOrderingAndBounds(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	var points []Point
	for i := 1; i <= 6; i++ {
		points = append(points, point(uint64(i), "vidA", i, (i-1)*5, []float32{1, 0}))
	}
	if err := s.Upsert(ctx, points); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Inclusive bounds: [10, 20] covers timestamps 10, 15, 20.
	filter := &Filter{VideoID: "vidA", MinTimestamp: intPtr(10), MaxTimestamp: intPtr(20)}
	got, err := s.Scroll(ctx, filter, 0)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("result count = %d, want 3", len(got))
	}
	for i, want := range []int{10, 15, 20} {
		if got[i].Payload.TimestampSeconds != want {
			t.Errorf("result %d timestamp = %d, want %d", i, got[i].Payload.TimestampSeconds, want)
		}
	}

	// Limit caps after ordering, so the earliest frames survive.
	limited, err := s.Scroll(ctx, nil, 2)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Payload.TimestampSeconds != 0 || limited[1].Payload.TimestampSeconds != 5 {
		t.Errorf("limited scroll returned wrong window: %+v", limited)
	}
}

func TestMemoryStoreDeleteByFilter(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	err := s.Upsert(ctx, []Point{
		point(1, "vidA", 1, 0, []float32{1, 0}),
		point(2, "vidA", 2, 5, []float32{1, 0}),
		point(3, "vidB", 1, 0, []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := s.DeleteByFilter(ctx, &Filter{VideoID: "vidA"}); err != nil {
		t.Fatalf("DeleteByFilter failed: %v", err)
	}

	got, err := s.Scroll(ctx, nil, 0)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(got) != 1 || got[0].Payload.VideoID != "vidB" {
		t.Errorf("surviving points = %+v, want only vidB", got)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore(4)
	ctx := context.Background()

	pts := []Point{
		{ID: 1, Vector: []float32{1, 0, 0, 0}, Payload: Payload{VideoID: "vidA", VideoTitle: "First", TimestampSeconds: 0}},
		{ID: 2, Vector: []float32{1, 0, 0, 0}, Payload: Payload{VideoID: "vidA", VideoTitle: "First", TimestampSeconds: 5}},
		{ID: 3, Vector: []float32{1, 0, 0, 0}, Payload: Payload{VideoID: "vidB", VideoTitle: "Second", TimestampSeconds: 0}},
	}
	if err := s.Upsert(ctx, pts); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPoints != 3 || stats.TotalVideos != 2 {
		t.Errorf("stats = {points %d videos %d}, want {3 2}", stats.TotalPoints, stats.TotalVideos)
	}
	if stats.VectorSize != 4 || stats.Distance != "Cosine" {
		t.Errorf("vector size/distance = %d/%s, want 4/Cosine", stats.VectorSize, stats.Distance)
	}
	if v := stats.Videos["vidA"]; v.FrameCount != 2 || v.Title != "First" {
		t.Errorf("vidA stats = %+v, want 2 frames titled First", v)
	}
}

func TestFilterMatches(t *testing.T) {
	p := Payload{VideoID: "vidA", TimestampSeconds: 10}

	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{"nil filter matches everything", nil, true},
		{"empty filter matches everything", &Filter{}, true},
		{"matching video", &Filter{VideoID: "vidA"}, true},
		{"other video", &Filter{VideoID: "vidB"}, false},
		{"inside range", &Filter{MinTimestamp: intPtr(10), MaxTimestamp: intPtr(10)}, true},
		{"below range", &Filter{MinTimestamp: intPtr(11)}, false},
		{"above range", &Filter{MaxTimestamp: intPtr(9)}, false},
		{"video and range must both match", &Filter{VideoID: "vidB", MinTimestamp: intPtr(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(p); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
