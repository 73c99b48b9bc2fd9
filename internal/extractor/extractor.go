// Package extractor samples still frames from a downloaded video with ffmpeg
// and produces the frame descriptors the indexing engine consumes.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/di37/video-rag-bot/internal/models"
)

// ErrExtraction wraps frame sampling failures.
var ErrExtraction = errors.New("frame extraction failed")

// Sampler extracts frames at a fixed interval into
// <dir>/<video_id>_screenshots/.
type Sampler struct {
	dir      string
	interval int
	logger   *slog.Logger
}

// NewSampler creates a sampler writing under dir, taking one frame every
// interval seconds.
func NewSampler(dir string, interval int, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = 5
	}
	return &Sampler{dir: dir, interval: interval, logger: logger}
}

// Interval returns the sampling interval in seconds.
func (s *Sampler) Interval() int {
	return s.interval
}

// Sample extracts frames from the video file and returns their descriptors in
// capture order. Frame numbers are 1-based and timestamps derive from the
// sampling interval.
func (s *Sampler) Sample(ctx context.Context, videoPath string, info *models.VideoInfo) ([]models.FrameDescriptor, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: video file does not exist at %q", ErrExtraction, videoPath)
	}

	screenshotsDir := filepath.Join(s.dir, info.ID+"_screenshots")
	if err := os.MkdirAll(screenshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create screenshots directory: %v", ErrExtraction, err)
	}

	s.logger.Info("extracting frames",
		"video_id", info.ID, "interval_seconds", s.interval, "dir", screenshotsDir)

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", s.interval),
		"-q:v", "2",
		filepath.Join(screenshotsDir, fmt.Sprintf("%s_frame_%%04d.jpg", info.ID)),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrExtraction, err, tail(string(output), 512))
	}

	files, err := os.ReadDir(screenshotsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read screenshots directory: %v", ErrExtraction, err)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(strings.ToLower(f.Name()), ".jpg") {
			names = append(names, f.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no frames produced for %q", ErrExtraction, videoPath)
	}
	sort.Strings(names)

	frames := BuildDescriptors(names, info, s.interval)
	s.logger.Info("extracted frames", "video_id", info.ID, "count", len(frames))
	return frames, nil
}

// BuildDescriptors turns an ordered list of frame filenames into descriptors.
// The i-th file becomes frame number i+1 at timestamp i*interval.
func BuildDescriptors(filenames []string, info *models.VideoInfo, interval int) []models.FrameDescriptor {
	frames := make([]models.FrameDescriptor, 0, len(filenames))
	for i, name := range filenames {
		seconds := i * interval
		frames = append(frames, models.FrameDescriptor{
			FrameID:            models.FrameID(info.ID, i+1),
			FrameNumber:        i + 1,
			Filename:           name,
			FilePath:           fmt.Sprintf("%s_screenshots/%s", info.ID, name),
			TimestampSeconds:   seconds,
			TimestampFormatted: models.FormatTimestamp(seconds),
			VideoID:            info.ID,
			VideoTitle:         info.Title,
			VideoURL:           info.URL,
		})
	}
	return frames
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
