package metadata

import (
	"path/filepath"
	"strings"

	"github.com/di37/video-rag-bot/internal/models"
)

// LoadAllFrames merges every metadata record into one ordered frame sequence
// spanning all videos.
//
// Precedence: the legacy single-video file is included only when its video id
// does not already appear among the per-video records. A (video_id,
// frame_number) pair appearing in more than one source keeps its first-loaded
// occurrence; later duplicates are dropped with a warning.
func (s *Store) LoadAllFrames() ([]models.FrameDescriptor, error) {
	files, err := s.metadataFiles()
	if err != nil {
		return nil, err
	}
	s.logger.Info("loading frame metadata", "files", len(files))

	type frameKey struct {
		videoID     string
		frameNumber int
	}
	seen := make(map[frameKey]bool)
	loadedVideos := make(map[string]bool)

	var frames []models.FrameDescriptor
	for _, path := range files {
		meta, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable metadata file", "path", path, "error", err)
			continue
		}

		videoID := videoIDOf(meta.VideoInfo)
		if s.isLegacy(path) && loadedVideos[videoID] {
			s.logger.Warn("skipping legacy metadata: video already indexed per-video", "video_id", videoID)
			continue
		}
		loadedVideos[videoID] = true

		for _, frame := range s.framesOf(meta, videoID) {
			key := frameKey{videoID: frame.VideoID, frameNumber: frame.FrameNumber}
			if seen[key] {
				s.logger.Warn("dropping duplicate frame",
					"video_id", frame.VideoID, "frame_number", frame.FrameNumber, "source", path)
				continue
			}
			seen[key] = true
			frames = append(frames, frame)
		}
	}

	s.logger.Info("loaded frame metadata", "frames", len(frames), "videos", len(loadedVideos))
	return frames, nil
}

// LoadVideoFrames returns the frame sequence of one video, normalized the
// same way as LoadAllFrames.
func (s *Store) LoadVideoFrames(videoID string) ([]models.FrameDescriptor, error) {
	meta, err := s.Get(videoID)
	if err != nil {
		return nil, err
	}
	return s.framesOf(meta, videoIDOf(meta.VideoInfo)), nil
}

// framesOf fills in the video-level fields each descriptor needs to stand
// alone, and normalizes file paths under the videos root.
func (s *Store) framesOf(meta *models.VideoMetadata, videoID string) []models.FrameDescriptor {
	info := meta.VideoInfo
	frames := make([]models.FrameDescriptor, 0, len(meta.Frames))
	for _, frame := range meta.Frames {
		if frame.VideoID == "" {
			frame.VideoID = videoID
		}
		frame.FrameID = models.FrameID(frame.VideoID, frame.FrameNumber)
		frame.VideoTitle = titleOf(info)
		frame.VideoURL = info.URL
		frame.FilePath = s.normalizePath(frame)
		frames = append(frames, frame)
	}
	return frames
}

// normalizePath resolves a frame's image path relative to the videos root so
// descriptors from every source are directly usable by the indexing engine.
func (s *Store) normalizePath(frame models.FrameDescriptor) string {
	path := frame.FilePath
	if filepath.IsAbs(path) {
		return path
	}
	if path == "" {
		return filepath.Join(s.ScreenshotsDir(frame.VideoID), frame.Filename)
	}
	// Already rooted at the videos dir.
	if strings.HasPrefix(path, s.dir+string(filepath.Separator)) || strings.HasPrefix(path, s.dir+"/") {
		return path
	}

	filename := frame.Filename
	if filename == "" {
		filename = filepath.Base(path)
	}
	if frame.VideoID == models.DefaultVideoID {
		// Legacy records store paths relative to the videos dir.
		return filepath.Join(s.dir, filepath.FromSlash(path))
	}
	return filepath.Join(s.ScreenshotsDir(frame.VideoID), filename)
}
