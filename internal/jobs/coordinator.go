package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/di37/video-rag-bot/internal/indexer"
	"github.com/di37/video-rag-bot/internal/metadata"
	"github.com/di37/video-rag-bot/internal/models"
)

// Acquirer fetches video content from a source URL.
type Acquirer interface {
	VideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
	Download(ctx context.Context, url string, info *models.VideoInfo) (string, error)
}

// Sampler extracts frames from a downloaded video file.
type Sampler interface {
	Sample(ctx context.Context, videoPath string, info *models.VideoInfo) ([]models.FrameDescriptor, error)
	Interval() int
}

// Indexer commits frame descriptors to the vector store.
type Indexer interface {
	Index(ctx context.Context, frames []models.FrameDescriptor, batchSize int) (*indexer.Report, error)
}

// Options tunes coordinator behavior.
type Options struct {
	// Retention is how long terminal job entries stay queryable. Zero means 5 minutes.
	Retention time.Duration
	// DownloadTimeout bounds the acquisition step. Zero means no bound.
	DownloadTimeout time.Duration
	// ExtractTimeout bounds the sampling step. Zero means no bound.
	ExtractTimeout time.Duration
	// BatchSize is passed to the indexer.
	BatchSize int
	// KeepVideoFile retains the downloaded video after frames are extracted.
	KeepVideoFile bool
}

// Coordinator runs at most one ingestion job per video id, each progressing
// through its state machine independently of the others.
type Coordinator struct {
	acquirer Acquirer
	sampler  Sampler
	indexer  Indexer
	meta     *metadata.Store
	opts     Options
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewCoordinator creates a job coordinator.
func NewCoordinator(acquirer Acquirer, sampler Sampler, idx Indexer, meta *metadata.Store, opts Options, logger *slog.Logger) *Coordinator {
	if opts.Retention <= 0 {
		opts.Retention = 5 * time.Minute
	}
	return &Coordinator{
		acquirer: acquirer,
		sampler:  sampler,
		indexer:  idx,
		meta:     meta,
		opts:     opts,
		logger:   logger,
		jobs:     make(map[string]*Job),
	}
}

// Start begins ingesting the video at url. It resolves the video id, rejects
// a second job for an id with a non-terminal one (returning the existing
// job's view), and short-circuits to Completed when the video is already
// processed. The returned job is a point-in-time snapshot.
func (c *Coordinator) Start(ctx context.Context, url string) (Job, error) {
	info, err := c.acquirer.VideoInfo(ctx, url)
	if err != nil {
		return Job{}, err
	}
	videoID := info.ID

	c.mu.Lock()
	if existing, ok := c.jobs[videoID]; ok && !existing.State.Terminal() {
		snap := existing.snapshot()
		c.mu.Unlock()
		return snap, ErrJobActive
	}

	if c.meta.Exists(videoID) {
		job := &Job{
			VideoID:    videoID,
			State:      StateCompleted,
			Progress:   100,
			Message:    "Video already processed",
			CreatedAt:  time.Now(),
			finishedAt: time.Now(),
		}
		c.jobs[videoID] = job
		snap := job.snapshot()
		c.mu.Unlock()
		return snap, nil
	}

	job := &Job{
		VideoID:   videoID,
		State:     StateQueued,
		Progress:  0,
		Message:   "Queued",
		CreatedAt: time.Now(),
	}
	c.jobs[videoID] = job
	snap := job.snapshot()
	c.mu.Unlock()

	go c.run(url, info)
	return snap, nil
}

// Status returns the tracked job for a video id. When no entry exists, a
// persisted metadata record still answers as Completed: the job table is a
// cache with a retention window, not the system of record.
func (c *Coordinator) Status(videoID string) (Job, error) {
	c.mu.Lock()
	job, ok := c.jobs[videoID]
	if ok {
		snap := job.snapshot()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	if c.meta.Exists(videoID) {
		return Job{
			VideoID:  videoID,
			State:    StateCompleted,
			Progress: 100,
			Message:  "Video processing completed",
		}, nil
	}
	return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, videoID)
}

// Forget drops the tracked job entry for a video id, if any. Used when a
// video is deleted so a stale Completed entry does not linger.
func (c *Coordinator) Forget(videoID string) {
	c.mu.Lock()
	delete(c.jobs, videoID)
	c.mu.Unlock()
}

// run drives one job through the pipeline. It owns all state transitions for
// its video id; transitions are strictly sequential.
func (c *Coordinator) run(url string, info *models.VideoInfo) {
	videoID := info.ID
	logger := c.logger.With("video_id", videoID)
	ctx := context.Background()

	c.transition(videoID, StateDownloading, 10, "Downloading video...")
	videoPath, err := c.download(ctx, url, info)
	if err != nil {
		logger.Error("download failed", "error", err)
		c.fail(videoID, err, "Download")
		return
	}

	c.transition(videoID, StateExtractingFrames, 40, "Extracting frames...")
	frames, err := c.extract(ctx, videoPath, info)
	if err != nil {
		logger.Error("frame extraction failed", "error", err)
		c.fail(videoID, err, "Frame extraction")
		return
	}
	c.progress(videoID, 60, fmt.Sprintf("Extracted %d frames", len(frames)))

	info.FrameIntervalSeconds = c.sampler.Interval()
	info.ProcessedDate = time.Now().Format(time.RFC3339)
	if err := c.meta.Save(&models.VideoMetadata{VideoInfo: *info, Frames: frames}); err != nil {
		logger.Error("failed to persist metadata", "error", err)
		c.fail(videoID, err, "Metadata")
		return
	}

	if !c.opts.KeepVideoFile {
		if err := os.Remove(videoPath); err != nil {
			logger.Warn("could not delete video file", "path", videoPath, "error", err)
		}
	}

	c.transition(videoID, StateIndexing, 80, "Indexing frames...")

	// Reload through the metadata store so indexed descriptors carry
	// normalized, directly readable file paths.
	indexable, err := c.meta.LoadVideoFrames(videoID)
	if err != nil {
		indexable = frames
	}

	report, err := c.indexer.Index(ctx, indexable, c.opts.BatchSize)
	switch {
	case err != nil:
		logger.Error("indexing failed", "error", err)
		c.terminal(videoID, StateIndexedWithErrors,
			fmt.Sprintf("Downloaded but indexing failed: %v", err))
	case report.SkippedCount() > 0:
		logger.Warn("indexing finished with skipped frames",
			"indexed", report.Indexed, "skipped", report.SkippedCount())
		c.terminal(videoID, StateIndexedWithErrors,
			fmt.Sprintf("Indexed %d of %d frames (%d skipped)",
				report.Indexed, report.Submitted, report.SkippedCount()))
	default:
		logger.Info("job completed", "frames", report.Indexed)
		c.terminal(videoID, StateCompleted,
			fmt.Sprintf("Successfully processed %d frames", report.Indexed))
	}
}

func (c *Coordinator) download(ctx context.Context, url string, info *models.VideoInfo) (string, error) {
	if c.opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.DownloadTimeout)
		defer cancel()
	}
	path, err := c.acquirer.Download(ctx, url, info)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("download timed out after %s", c.opts.DownloadTimeout)
	}
	return path, err
}

func (c *Coordinator) extract(ctx context.Context, videoPath string, info *models.VideoInfo) ([]models.FrameDescriptor, error) {
	if c.opts.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ExtractTimeout)
		defer cancel()
	}
	frames, err := c.sampler.Sample(ctx, videoPath, info)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("frame extraction timed out after %s", c.opts.ExtractTimeout)
	}
	return frames, err
}

// transition moves a job to a new state. Progress never decreases within a run.
func (c *Coordinator) transition(videoID string, state State, progress int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[videoID]
	if !ok {
		return
	}
	job.State = state
	if progress > job.Progress {
		job.Progress = progress
	}
	job.Message = message
	if state.Terminal() {
		job.finishedAt = time.Now()
	}
}

func (c *Coordinator) progress(videoID string, progress int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[videoID]
	if !ok {
		return
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.Message = message
}

func (c *Coordinator) terminal(videoID string, state State, message string) {
	c.transition(videoID, state, 100, message)
}

func (c *Coordinator) fail(videoID string, err error, step string) {
	c.transition(videoID, StateFailed, 100, fmt.Sprintf("%s failed: %v", step, err))
}

// RunJanitor purges terminal job entries older than the retention window
// until ctx is cancelled. Purging only touches the tracking table; metadata
// records and indexed points are untouched.
func (c *Coordinator) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.purge(time.Now())
		}
	}
}

// purge removes terminal entries whose retention window has elapsed.
func (c *Coordinator) purge(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, job := range c.jobs {
		if job.State.Terminal() && now.Sub(job.finishedAt) >= c.opts.Retention {
			c.logger.Debug("purging job entry", "video_id", id, "state", job.State)
			delete(c.jobs, id)
		}
	}
}
