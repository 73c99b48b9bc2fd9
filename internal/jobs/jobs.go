// Package jobs coordinates the ingestion pipeline per video id: acquisition,
// frame sampling, and indexing, with live progress tracking.
package jobs

import (
	"errors"
	"time"
)

// State is a job's position in the ingestion state machine.
type State string

const (
	StateQueued            State = "queued"
	StateDownloading       State = "downloading"
	StateExtractingFrames  State = "extracting_frames"
	StateIndexing          State = "indexing"
	StateCompleted         State = "completed"
	StateIndexedWithErrors State = "indexed_with_errors"
	StateFailed            State = "failed"
)

// Terminal reports whether the state ends a job run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateIndexedWithErrors, StateFailed:
		return true
	}
	return false
}

var (
	// ErrJobActive indicates a non-terminal job already exists for the video id.
	ErrJobActive = errors.New("a job is already active for this video")

	// ErrJobNotFound indicates no tracked job and no processed video for the id.
	ErrJobNotFound = errors.New("job not found")
)

// Job is the tracked status of one ingestion run. It is a status cache with a
// bounded lifetime, not the system of record: after a terminal job entry is
// purged, the video's metadata record is what proves it was processed.
type Job struct {
	VideoID    string    `json:"video_id"`
	State      State     `json:"state"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	finishedAt time.Time
}

// snapshot returns a copy safe to hand to callers.
func (j *Job) snapshot() Job {
	return Job{
		VideoID:   j.VideoID,
		State:     j.State,
		Progress:  j.Progress,
		Message:   j.Message,
		CreatedAt: j.CreatedAt,
	}
}
