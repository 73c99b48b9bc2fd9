// Package indexer converts frame descriptors into vector store points with
// stable identity and commits them in batches.
package indexer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/di37/video-rag-bot/internal/embeddings"
	"github.com/di37/video-rag-bot/internal/models"
	"github.com/di37/video-rag-bot/internal/store"
)

// DefaultBatchSize is the number of frames flushed to the vector store per
// upsert call when the caller does not specify one.
const DefaultBatchSize = 32

// SkippedFrame records one frame that could not be indexed and why.
type SkippedFrame struct {
	FrameID string `json:"frame_id"`
	Reason  string `json:"reason"`
}

// Report summarizes an indexing run: how many frames were submitted, how many
// landed in the store, and which were skipped.
type Report struct {
	Submitted int            `json:"submitted"`
	Indexed   int            `json:"indexed"`
	Skipped   []SkippedFrame `json:"skipped,omitempty"`
}

// SkippedCount returns the number of skipped frames.
func (r *Report) SkippedCount() int {
	return len(r.Skipped)
}

// Engine indexes frames into a vector store.
type Engine struct {
	store    store.VectorStore
	provider embeddings.Provider
	logger   *slog.Logger
	workers  int
}

// New creates an indexing engine. workers bounds concurrent embedding calls
// within a batch.
func New(vs store.VectorStore, provider embeddings.Provider, workers int, logger *slog.Logger) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		store:    vs,
		provider: provider,
		logger:   logger,
		workers:  workers,
	}
}

// Index embeds and upserts the given frames in batches of batchSize.
//
// A frame whose embedding fails is skipped and recorded in the report; it
// never aborts the run. A vector store failure is fatal: batches flushed
// before it remain committed, the error is returned alongside the report for
// what was committed.
func (e *Engine) Index(ctx context.Context, frames []models.FrameDescriptor, batchSize int) (*Report, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	report := &Report{Submitted: len(frames)}
	e.logger.Info("indexing frames", "count", len(frames), "batch_size", batchSize)

	for start := 0; start < len(frames); start += batchSize {
		end := start + batchSize
		if end > len(frames) {
			end = len(frames)
		}
		batch := frames[start:end]

		points := e.embedBatch(ctx, batch, report)
		if len(points) == 0 {
			continue
		}
		if err := e.store.Upsert(ctx, points); err != nil {
			e.logger.Error("batch upsert failed", "batch_start", start, "error", err)
			return report, err
		}
		report.Indexed += len(points)
	}

	e.logger.Info("indexing complete",
		"submitted", report.Submitted, "indexed", report.Indexed, "skipped", report.SkippedCount())
	return report, nil
}

// embedBatch embeds one batch of frames, parallelized across the engine's
// workers. Points come back in frame order; failed frames are appended to the
// report's skip list.
func (e *Engine) embedBatch(ctx context.Context, batch []models.FrameDescriptor, report *Report) []store.Point {
	type slot struct {
		point store.Point
		err   error
	}
	slots := make([]slot, len(batch))

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				frame := batch[i]
				vector, err := e.provider.EmbedImage(ctx, frame.FilePath)
				if err != nil {
					slots[i].err = err
					continue
				}
				slots[i].point = store.Point{
					ID:     PointID(frame.VideoID, frame.FrameNumber),
					Vector: vector,
					Payload: store.Payload{
						FrameID:            frame.ID(),
						VideoID:            frame.VideoID,
						VideoTitle:         frame.VideoTitle,
						VideoURL:           frame.VideoURL,
						FilePath:           frame.FilePath,
						FrameNumber:        frame.FrameNumber,
						TimestampSeconds:   frame.TimestampSeconds,
						TimestampFormatted: frame.TimestampFormatted,
					},
				}
			}
		}()
	}
	for i := range batch {
		work <- i
	}
	close(work)
	wg.Wait()

	points := make([]store.Point, 0, len(batch))
	for i, s := range slots {
		if s.err != nil {
			e.logger.Warn("skipping frame: embedding failed",
				"frame_id", batch[i].ID(), "error", s.err)
			report.Skipped = append(report.Skipped, SkippedFrame{
				FrameID: batch[i].ID(),
				Reason:  s.err.Error(),
			})
			continue
		}
		points = append(points, s.point)
	}
	return points
}

// DeleteVideo removes every indexed point belonging to the video. The bulk
// delete is best-effort, not a transaction: a concurrent search may observe a
// partially deleted video.
func (e *Engine) DeleteVideo(ctx context.Context, videoID string) error {
	e.logger.Info("deleting indexed frames", "video_id", videoID)
	return e.store.DeleteByFilter(ctx, &store.Filter{VideoID: videoID})
}

// Stats reports collection statistics straight from the vector store.
func (e *Engine) Stats(ctx context.Context) (*store.Stats, error) {
	return e.store.Stats(ctx)
}
