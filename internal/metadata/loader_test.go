package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/di37/video-rag-bot/internal/models"
)

func writeRaw(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAllFramesMergesVideos(t *testing.T) {
	s := testStore(t)

	if err := s.Save(sampleMetadata("aaa11111111", "First", 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleMetadata("bbb22222222", "Second", 3)); err != nil {
		t.Fatal(err)
	}

	frames, err := s.LoadAllFrames()
	if err != nil {
		t.Fatalf("LoadAllFrames failed: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("frame count = %d, want 5", len(frames))
	}
	for _, f := range frames {
		if f.VideoID == "" || f.FrameID == "" || f.VideoTitle == "" {
			t.Errorf("frame missing video-level fields: %+v", f)
		}
	}
}

func TestLoadAllFramesLegacyPrecedence(t *testing.T) {
	s := testStore(t)

	// Per-video record for the sentinel id shadows the legacy file.
	perVideo := sampleMetadata(models.DefaultVideoID, "Per-Video Record", 2)
	if err := s.Save(perVideo); err != nil {
		t.Fatal(err)
	}
	writeRaw(t, s.Dir(), LegacyMetadataFile, `{
		"video_info": {"id": "", "title": "Legacy Record", "url": "https://example.com/v"},
		"frames": [
			{"frame_number": 1, "filename": "frame_0001.jpg", "path": "", "timestamp_seconds": 0, "timestamp_formatted": "00:00"},
			{"frame_number": 9, "filename": "frame_0009.jpg", "path": "", "timestamp_seconds": 40, "timestamp_formatted": "00:40"}
		]
	}`)

	frames, err := s.LoadAllFrames()
	if err != nil {
		t.Fatalf("LoadAllFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2 (legacy skipped)", len(frames))
	}
	for _, f := range frames {
		if f.VideoTitle != "Per-Video Record" {
			t.Errorf("frame sourced from %q, want the per-video record", f.VideoTitle)
		}
	}
}

func TestLoadAllFramesIncludesUnshadowedLegacy(t *testing.T) {
	s := testStore(t)

	if err := s.Save(sampleMetadata("aaa11111111", "Modern", 1)); err != nil {
		t.Fatal(err)
	}
	writeRaw(t, s.Dir(), LegacyMetadataFile, `{
		"video_info": {"id": "", "title": "Legacy Record", "url": "https://example.com/v"},
		"frames": [
			{"frame_number": 1, "filename": "frame_0001.jpg", "path": "", "timestamp_seconds": 0, "timestamp_formatted": "00:00"}
		]
	}`)

	frames, err := s.LoadAllFrames()
	if err != nil {
		t.Fatalf("LoadAllFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}

	var legacy *models.FrameDescriptor
	for i := range frames {
		if frames[i].VideoID == models.DefaultVideoID {
			legacy = &frames[i]
		}
	}
	if legacy == nil {
		t.Fatal("legacy frame missing from merged sequence")
	}
	if legacy.FrameID != "frame_0001" {
		t.Errorf("legacy frame id = %q, want bare frame_0001", legacy.FrameID)
	}
}

func TestLoadAllFramesDropsDuplicates(t *testing.T) {
	s := testStore(t)

	writeRaw(t, s.Dir(), "abc12345678_metadata.json", `{
		"video_info": {"id": "abc12345678", "title": "Video", "url": "https://example.com/v"},
		"frames": [
			{"frame_number": 1, "filename": "a.jpg", "path": "", "timestamp_seconds": 0, "timestamp_formatted": "00:00"},
			{"frame_number": 1, "filename": "b.jpg", "path": "", "timestamp_seconds": 0, "timestamp_formatted": "00:00"},
			{"frame_number": 2, "filename": "c.jpg", "path": "", "timestamp_seconds": 5, "timestamp_formatted": "00:05"}
		]
	}`)

	frames, err := s.LoadAllFrames()
	if err != nil {
		t.Fatalf("LoadAllFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2 after duplicate drop", len(frames))
	}
	if frames[0].Filename != "a.jpg" {
		t.Errorf("kept filename = %q, want first occurrence a.jpg", frames[0].Filename)
	}
}

func TestLoadAllFramesSkipsMalformedFiles(t *testing.T) {
	s := testStore(t)

	writeRaw(t, s.Dir(), "broken12345_metadata.json", `{not json`)
	if err := s.Save(sampleMetadata("abc12345678", "Good", 2)); err != nil {
		t.Fatal(err)
	}

	frames, err := s.LoadAllFrames()
	if err != nil {
		t.Fatalf("LoadAllFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("frame count = %d, want 2 from the readable record", len(frames))
	}
}

func TestLoadVideoFramesNormalizesPaths(t *testing.T) {
	s := testStore(t)

	abs := filepath.Join(string(filepath.Separator), "data", "frames", "x.jpg")
	writeRaw(t, s.Dir(), "abc12345678_metadata.json", `{
		"video_info": {"id": "abc12345678", "title": "Video", "url": "https://example.com/v"},
		"frames": [
			{"frame_number": 1, "filename": "abc12345678_frame_0001.jpg", "path": "", "timestamp_seconds": 0, "timestamp_formatted": "00:00"},
			{"frame_number": 2, "filename": "abc12345678_frame_0002.jpg", "path": "abc12345678_screenshots/abc12345678_frame_0002.jpg", "timestamp_seconds": 5, "timestamp_formatted": "00:05"},
			{"frame_number": 3, "filename": "abc12345678_frame_0003.jpg", "path": "`+filepath.ToSlash(abs)+`", "timestamp_seconds": 10, "timestamp_formatted": "00:10"}
		]
	}`)

	frames, err := s.LoadVideoFrames("abc12345678")
	if err != nil {
		t.Fatalf("LoadVideoFrames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(frames))
	}

	shots := s.ScreenshotsDir("abc12345678")
	if want := filepath.Join(shots, "abc12345678_frame_0001.jpg"); frames[0].FilePath != want {
		t.Errorf("empty path normalized to %q, want %q", frames[0].FilePath, want)
	}
	if want := filepath.Join(shots, "abc12345678_frame_0002.jpg"); frames[1].FilePath != want {
		t.Errorf("relative path normalized to %q, want %q", frames[1].FilePath, want)
	}
	if frames[2].FilePath != abs {
		t.Errorf("absolute path rewritten to %q, want untouched", frames[2].FilePath)
	}
}

func TestLoadVideoFramesMissingVideo(t *testing.T) {
	s := testStore(t)
	if _, err := s.LoadVideoFrames("nosuchvideo"); err == nil {
		t.Error("expected error for missing video")
	}
}
