// Package query answers multi-modal retrieval requests against the vector
// store: text similarity, image similarity, time-range scans, and whole-video
// listings, each optionally scoped to one video.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"

	"github.com/di37/video-rag-bot/internal/embeddings"
	"github.com/di37/video-rag-bot/internal/models"
	"github.com/di37/video-rag-bot/internal/store"
)

// DefaultLimit caps similarity searches when the caller does not specify one.
const DefaultLimit = 5

// DefaultScanLimit caps range scans and video listings.
const DefaultScanLimit = 100

// ErrValidation indicates a malformed query.
var ErrValidation = errors.New("invalid query")

// Engine dispatches queries to similarity search or range scan and projects
// results into the uniform SearchResult shape.
type Engine struct {
	store    store.VectorStore
	provider embeddings.Provider
	logger   *slog.Logger
}

// New creates a query engine.
func New(vs store.VectorStore, provider embeddings.Provider, logger *slog.Logger) *Engine {
	return &Engine{store: vs, provider: provider, logger: logger}
}

// SearchByText finds the frames most similar to a natural-language query,
// ordered by descending score with ties broken by ascending point id.
func (e *Engine) SearchByText(ctx context.Context, text string, limit int, videoID string) ([]models.SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: search text is empty", ErrValidation)
	}
	vector, err := e.provider.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return e.similarity(ctx, vector, limit, videoID, true)
}

// SearchByImage finds the frames most similar to a reference image. A failure
// to embed the image fails soft: it logs and returns no results.
func (e *Engine) SearchByImage(ctx context.Context, path string, limit int, videoID string) ([]models.SearchResult, error) {
	vector, err := e.provider.EmbedImage(ctx, path)
	if err != nil {
		e.logger.Warn("image query embedding failed", "path", path, "error", err)
		return nil, nil
	}
	return e.similarity(ctx, vector, limit, videoID, true)
}

// SearchByTimeRange returns frames whose timestamp lies in [start, end]
// seconds inclusive, ordered by ascending timestamp with ties broken by
// ascending frame number. No embedding is computed.
func (e *Engine) SearchByTimeRange(ctx context.Context, startSeconds, endSeconds, limit int, videoID string) ([]models.SearchResult, error) {
	if startSeconds < 0 || endSeconds < startSeconds {
		return nil, fmt.Errorf("%w: time range [%d, %d] is invalid", ErrValidation, startSeconds, endSeconds)
	}
	filter := &store.Filter{
		VideoID:      videoID,
		MinTimestamp: &startSeconds,
		MaxTimestamp: &endSeconds,
	}
	return e.scan(ctx, filter, limit)
}

// SearchByVideo lists a video's frames in timestamp order.
func (e *Engine) SearchByVideo(ctx context.Context, videoID string, limit int) ([]models.SearchResult, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", ErrValidation)
	}
	return e.scan(ctx, &store.Filter{VideoID: videoID}, limit)
}

// RandomFrames samples frames by searching with a random unit vector. Scores
// are meaningless for exploration and omitted from the projection.
func (e *Engine) RandomFrames(ctx context.Context, limit int, videoID string) ([]models.SearchResult, error) {
	vector := make([]float32, e.provider.Dim())
	for i := range vector {
		vector[i] = rand.Float32()
	}
	return e.similarity(ctx, vector, limit, videoID, false)
}

func (e *Engine) similarity(ctx context.Context, vector []float32, limit int, videoID string, withScore bool) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var filter *store.Filter
	if videoID != "" {
		filter = &store.Filter{VideoID: videoID}
	}

	scored, err := e.store.Search(ctx, vector, limit, filter)
	if err != nil {
		return nil, err
	}

	// The store contract already orders results; normalize anyway so every
	// backend yields identical output.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].ID < scored[j].ID
		}
		return scored[i].Score > scored[j].Score
	})

	results := make([]models.SearchResult, 0, len(scored))
	for _, sp := range scored {
		r := project(sp.Payload)
		if withScore {
			score := sp.Score
			r.Score = &score
		}
		results = append(results, r)
	}
	return results, nil
}

func (e *Engine) scan(ctx context.Context, filter *store.Filter, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	points, err := e.store.Scroll(ctx, filter, limit)
	if err != nil {
		return nil, err
	}

	sort.Slice(points, func(i, j int) bool {
		a, b := points[i].Payload, points[j].Payload
		if a.TimestampSeconds != b.TimestampSeconds {
			return a.TimestampSeconds < b.TimestampSeconds
		}
		return a.FrameNumber < b.FrameNumber
	})

	results := make([]models.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, project(p.Payload))
	}
	return results, nil
}

// project maps a stored payload to the uniform result record.
func project(p store.Payload) models.SearchResult {
	return models.SearchResult{
		FrameID:          p.FrameID,
		VideoID:          p.VideoID,
		VideoTitle:       p.VideoTitle,
		Timestamp:        p.TimestampFormatted,
		TimestampSeconds: p.TimestampSeconds,
		FilePath:         p.FilePath,
		WatchURL:         models.WatchURL(p.VideoURL, p.TimestampSeconds),
	}
}
