// Package metadata owns the per-video metadata records on disk: one
// <video_id>_metadata.json per processed video under the videos directory,
// plus an optional legacy single-video video_metadata.json.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/di37/video-rag-bot/internal/models"
)

const (
	metadataSuffix = "_metadata.json"

	// LegacyMetadataFile is the single-video metadata form predating
	// per-video records. Its frames carry no video id.
	LegacyMetadataFile = "video_metadata.json"
)

// ErrVideoNotFound indicates no metadata record exists for a video id.
var ErrVideoNotFound = errors.New("video not found")

// Store reads and writes video metadata records.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a metadata store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the videos directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) metadataPath(videoID string) string {
	return filepath.Join(s.dir, videoID+metadataSuffix)
}

// ScreenshotsDir returns the directory holding a video's frame images.
func (s *Store) ScreenshotsDir(videoID string) string {
	if videoID == models.DefaultVideoID {
		return filepath.Join(s.dir, "screenshots")
	}
	return filepath.Join(s.dir, videoID+"_screenshots")
}

// Exists reports whether a metadata record exists for the video id.
func (s *Store) Exists(videoID string) bool {
	_, err := os.Stat(s.metadataPath(videoID))
	return err == nil
}

// Save writes the metadata record for a video, creating the videos directory
// if needed.
func (s *Store) Save(meta *models.VideoMetadata) error {
	if meta.VideoInfo.ID == "" {
		return fmt.Errorf("cannot save metadata without a video id")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create videos directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	path := s.metadataPath(meta.VideoInfo.ID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", path, err)
	}
	return nil
}

// Get loads the metadata record for a video id.
func (s *Store) Get(videoID string) (*models.VideoMetadata, error) {
	meta, err := s.readFile(s.metadataPath(videoID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}
		return nil, err
	}
	return meta, nil
}

// Delete removes a video's metadata record, its screenshots directory, and
// any leftover downloaded video files. Missing pieces are not errors.
func (s *Store) Delete(videoID string) error {
	if err := os.Remove(s.metadataPath(videoID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata for %s: %w", videoID, err)
	}
	if err := os.RemoveAll(s.ScreenshotsDir(videoID)); err != nil {
		return fmt.Errorf("failed to delete screenshots for %s: %w", videoID, err)
	}

	for _, ext := range []string{"mp4", "webm", "mkv", "avi"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, videoID+"_*."+ext))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				s.logger.Warn("failed to delete leftover video file", "path", m, "error", err)
			}
		}
	}
	return nil
}

// List returns summaries of all processed videos, newest first.
func (s *Store) List() ([]models.VideoSummary, error) {
	files, err := s.metadataFiles()
	if err != nil {
		return nil, err
	}

	var videos []models.VideoSummary
	for _, path := range files {
		meta, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable metadata file", "path", path, "error", err)
			continue
		}
		info := meta.VideoInfo
		desc := info.Description
		if len(desc) > 200 {
			desc = desc[:200] + "..."
		}
		videos = append(videos, models.VideoSummary{
			ID:            videoIDOf(info),
			Title:         titleOf(info),
			URL:           info.URL,
			Duration:      info.DurationSeconds,
			FramesCount:   len(meta.Frames),
			ProcessedDate: info.ProcessedDate,
			Uploader:      info.Uploader,
			Description:   desc,
		})
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].ProcessedDate > videos[j].ProcessedDate
	})
	return videos, nil
}

// FramePath resolves a frame id to the image file on disk, handling both the
// legacy frame_NNNN form and the namespaced <video_id>_frame_NNNN form.
func (s *Store) FramePath(frameID string) (string, error) {
	if strings.HasPrefix(frameID, "frame_") {
		return filepath.Join(s.ScreenshotsDir(models.DefaultVideoID), frameID+".jpg"), nil
	}
	videoID, _, ok := strings.Cut(frameID, "_frame_")
	if !ok {
		return "", fmt.Errorf("invalid frame id %q", frameID)
	}
	return filepath.Join(s.ScreenshotsDir(videoID), frameID+".jpg"), nil
}

// metadataFiles lists per-video metadata paths plus the legacy file when it
// exists, in deterministic order.
func (s *Store) metadataFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+metadataSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	sort.Strings(matches)

	// The glob also catches the legacy file; keep it out of the per-video
	// set so precedence handling stays in one place.
	files := matches[:0]
	legacy := filepath.Join(s.dir, LegacyMetadataFile)
	for _, m := range matches {
		if m != legacy {
			files = append(files, m)
		}
	}
	if _, err := os.Stat(legacy); err == nil {
		files = append(files, legacy)
	}
	return files, nil
}

func (s *Store) readFile(path string) (*models.VideoMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta models.VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return &meta, nil
}

// isLegacy reports whether the path is the legacy single-video file.
func (s *Store) isLegacy(path string) bool {
	return path == filepath.Join(s.dir, LegacyMetadataFile)
}

func videoIDOf(info models.VideoInfo) string {
	if info.ID == "" {
		return models.DefaultVideoID
	}
	return info.ID
}

func titleOf(info models.VideoInfo) string {
	if info.Title == "" {
		return "Unknown Video"
	}
	return info.Title
}
