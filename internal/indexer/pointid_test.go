package indexer

import "testing"

func TestPointID(t *testing.T) {
	// Expected values computed independently from md5("<video_id>_<n>")
	// truncated to the first 8 hex digits.
	tests := []struct {
		videoID     string
		frameNumber int
		want        uint64
	}{
		{"abc12345678", 1, 3561003691},
		{"abc12345678", 3, 4282075203},
		{"XYZ", 3, 3877856372},
		{"default", 1, 2533716954},
		{"dQw4w9WgXcQ", 42, 3724298145},
	}
	for _, tt := range tests {
		if got := PointID(tt.videoID, tt.frameNumber); got != tt.want {
			t.Errorf("PointID(%q, %d) = %d, want %d", tt.videoID, tt.frameNumber, got, tt.want)
		}
	}
}

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("dQw4w9WgXcQ", 17)
	b := PointID("dQw4w9WgXcQ", 17)
	if a != b {
		t.Fatalf("same input produced different ids: %d vs %d", a, b)
	}
	if c := PointID("dQw4w9WgXcQ", 18); c == a {
		t.Errorf("adjacent frame numbers collided on id %d", a)
	}
	if c := PointID("otherVideo1", 17); c == a {
		t.Errorf("different videos collided on id %d", a)
	}
}
