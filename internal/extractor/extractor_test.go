package extractor

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/di37/video-rag-bot/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildDescriptors(t *testing.T) {
	info := &models.VideoInfo{
		ID:    "abc12345678",
		Title: "Test Video",
		URL:   "https://example.com/watch?v=abc12345678",
	}
	filenames := []string{
		"abc12345678_frame_0001.jpg",
		"abc12345678_frame_0002.jpg",
		"abc12345678_frame_0003.jpg",
	}

	frames := BuildDescriptors(filenames, info, 5)
	if len(frames) != 3 {
		t.Fatalf("descriptor count = %d, want 3", len(frames))
	}

	tests := []struct {
		idx           int
		frameNumber   int
		seconds       int
		formatted     string
		frameID       string
	}{
		{0, 1, 0, "00:00", "abc12345678_frame_0001"},
		{1, 2, 5, "00:05", "abc12345678_frame_0002"},
		{2, 3, 10, "00:10", "abc12345678_frame_0003"},
	}
	for _, tt := range tests {
		f := frames[tt.idx]
		if f.FrameNumber != tt.frameNumber {
			t.Errorf("frame %d number = %d, want %d", tt.idx, f.FrameNumber, tt.frameNumber)
		}
		if f.TimestampSeconds != tt.seconds {
			t.Errorf("frame %d seconds = %d, want %d", tt.idx, f.TimestampSeconds, tt.seconds)
		}
		if f.TimestampFormatted != tt.formatted {
			t.Errorf("frame %d formatted = %q, want %q", tt.idx, f.TimestampFormatted, tt.formatted)
		}
		if f.FrameID != tt.frameID {
			t.Errorf("frame %d id = %q, want %q", tt.idx, f.FrameID, tt.frameID)
		}
		if f.VideoID != info.ID || f.VideoTitle != info.Title || f.VideoURL != info.URL {
			t.Errorf("frame %d missing video fields: %+v", tt.idx, f)
		}
		if f.FilePath != "abc12345678_screenshots/"+f.Filename {
			t.Errorf("frame %d path = %q, want rooted in the screenshots dir", tt.idx, f.FilePath)
		}
	}
}

func TestBuildDescriptorsEmpty(t *testing.T) {
	frames := BuildDescriptors(nil, &models.VideoInfo{ID: "abc12345678"}, 5)
	if len(frames) != 0 {
		t.Errorf("descriptor count = %d, want 0", len(frames))
	}
}

func TestSamplerInterval(t *testing.T) {
	if got := NewSampler(t.TempDir(), 7, testLogger()).Interval(); got != 7 {
		t.Errorf("Interval = %d, want 7", got)
	}
	// Non-positive intervals fall back to the default.
	if got := NewSampler(t.TempDir(), 0, testLogger()).Interval(); got != 5 {
		t.Errorf("Interval = %d, want default 5", got)
	}
}

func TestSampleMissingVideoFile(t *testing.T) {
	s := NewSampler(t.TempDir(), 5, testLogger())
	_, err := s.Sample(context.Background(), "/nonexistent/video.mp4", &models.VideoInfo{ID: "abc12345678"})
	if err == nil {
		t.Error("expected error for missing video file")
	}
}
