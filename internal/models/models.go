package models

import "fmt"

// DefaultVideoID is the sentinel id assigned to frames loaded from the legacy
// single-video metadata file, which carries no video id of its own.
const DefaultVideoID = "default"

// FrameDescriptor describes one sampled frame of a processed video.
// Descriptors are written once by the frame sampler and never mutated.
type FrameDescriptor struct {
	FrameID            string `json:"frame_id,omitempty"`
	FrameNumber        int    `json:"frame_number"`
	Filename           string `json:"filename"`
	FilePath           string `json:"path"`
	TimestampSeconds   int    `json:"timestamp_seconds"`
	TimestampFormatted string `json:"timestamp_formatted"`
	VideoID            string `json:"video_id,omitempty"`
	VideoTitle         string `json:"video_title,omitempty"`
	VideoURL           string `json:"video_url,omitempty"`
}

// ID returns the canonical frame id. Frames belonging to the legacy sentinel
// video keep the bare frame_NNNN form so previously stored assets stay addressable.
func (f FrameDescriptor) ID() string {
	if f.FrameID != "" {
		return f.FrameID
	}
	return FrameID(f.VideoID, f.FrameNumber)
}

// FrameID builds the canonical frame id for a (video, frame number) pair.
func FrameID(videoID string, frameNumber int) string {
	if videoID == "" || videoID == DefaultVideoID {
		return fmt.Sprintf("frame_%04d", frameNumber)
	}
	return fmt.Sprintf("%s_frame_%04d", videoID, frameNumber)
}

// VideoInfo is the video_info block of a per-video metadata record.
type VideoInfo struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title"`
	URL                  string  `json:"url"`
	DurationSeconds      float64 `json:"duration_seconds"`
	Uploader             string  `json:"uploader"`
	UploadDate           string  `json:"upload_date,omitempty"`
	ViewCount            int64   `json:"view_count,omitempty"`
	Description          string  `json:"description,omitempty"`
	FrameIntervalSeconds int     `json:"frame_interval_seconds"`
	ProcessedDate        string  `json:"processed_date"`
	ScreenshotsDir       string  `json:"screenshots_dir,omitempty"`
}

// VideoMetadata is the system-of-record for one processed video: the video
// info plus the ordered list of its sampled frames.
type VideoMetadata struct {
	VideoInfo VideoInfo         `json:"video_info"`
	Frames    []FrameDescriptor `json:"frames"`
}

// VideoSummary is the listing view of a processed video.
type VideoSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Duration      float64 `json:"duration"`
	FramesCount   int     `json:"frames_count"`
	ProcessedDate string  `json:"processed_date"`
	Uploader      string  `json:"uploader"`
	Description   string  `json:"description"`
}

// SearchResult is the uniform projection returned by every query modality.
// Score is nil for range scans and listings, where no similarity is computed.
type SearchResult struct {
	FrameID          string   `json:"frame_id"`
	VideoID          string   `json:"video_id"`
	VideoTitle       string   `json:"video_title"`
	Timestamp        string   `json:"timestamp"`
	TimestampSeconds int      `json:"timestamp_seconds"`
	FilePath         string   `json:"file_path"`
	Score            *float64 `json:"score,omitempty"`
	WatchURL         string   `json:"watch_url"`
}

// WatchURL builds a source URL that jumps straight to the frame's timestamp.
func WatchURL(videoURL string, seconds int) string {
	return fmt.Sprintf("%s?t=%d", videoURL, seconds)
}
