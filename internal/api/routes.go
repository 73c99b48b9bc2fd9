package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/di37/video-rag-bot/internal/downloader"
	"github.com/di37/video-rag-bot/internal/jobs"
	"github.com/di37/video-rag-bot/internal/metadata"
	"github.com/di37/video-rag-bot/internal/models"
	"github.com/di37/video-rag-bot/internal/query"
	"github.com/di37/video-rag-bot/internal/store"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Recovery(s.logger))
	r.Use(Logging(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/frame/{frameID}", s.handleFrame)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
		r.Get("/videos", s.handleListVideos)
		r.Delete("/videos/{videoID}", s.handleDeleteVideo)
		r.Get("/videos/{videoID}/frames", s.handleVideoFrames)
		r.Post("/download", s.handleDownload)
		r.Get("/download/status/{videoID}", s.handleDownloadStatus)
		r.Post("/frames/{frameID}/describe", s.handleDescribe)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		UptimeS: int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleSearch dispatches on search_type: "text" embeds the query, "time"
// scans a timestamp range given as MM:SS bounds.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	var (
		results []models.SearchResult
		err     error
	)
	switch req.SearchType {
	case "", "text":
		results, err = s.query.SearchByText(r.Context(), req.Query, req.Limit, req.VideoID)
	case "time":
		var start, end int
		start, err = models.ParseTimestamp(req.StartTime)
		if err == nil {
			end, err = models.ParseTimestamp(req.EndTime)
		}
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "validation")
			return
		}
		results, err = s.query.SearchByTimeRange(r.Context(), start, end, req.Limit, req.VideoID)
	default:
		WriteError(w, http.StatusBadRequest, "search_type must be text or time", "validation")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.indexer.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.meta.List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if videos == nil {
		videos = []models.VideoSummary{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"videos": videos,
		"count":  len(videos),
	})
}

// handleDeleteVideo removes a video everywhere: indexed points first, then the
// on-disk record, then the job table entry so a stale Completed status does
// not survive the delete.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if !s.meta.Exists(videoID) {
		WriteError(w, http.StatusNotFound, "video not found: "+videoID, "not_found")
		return
	}

	if err := s.indexer.DeleteVideo(r.Context(), videoID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.meta.Delete(videoID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.coord.Forget(videoID)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Video deleted",
		"video_id": videoID,
	})
}

func (s *Server) handleVideoFrames(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := s.query.SearchByVideo(r.Context(), videoID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"video_id": videoID,
		"frames":   results,
		"count":    len(results),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		WriteError(w, http.StatusBadRequest, "url is required", "bad_request")
		return
	}

	job, err := s.coord.Start(r.Context(), req.URL)
	if errors.Is(err, jobs.ErrJobActive) {
		WriteJSON(w, http.StatusConflict, DownloadResponse{
			Success: false,
			Message: "A job is already processing this video",
			VideoID: job.VideoID,
			Status:  string(job.State),
		})
		return
	}
	if err != nil {
		var acqErr *downloader.AcquisitionError
		if errors.As(err, &acqErr) {
			WriteError(w, http.StatusUnprocessableEntity, acqErr.Error(), string(acqErr.Reason))
			return
		}
		s.writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, DownloadResponse{
		Success: true,
		Message: job.Message,
		VideoID: job.VideoID,
		Status:  string(job.State),
	})
}

func (s *Server) handleDownloadStatus(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	job, err := s.coord.Status(videoID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, JobToResponse(job))
}

// handleFrame serves a stored frame image by frame id.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frameID := chi.URLParam(r, "frameID")
	path, err := s.meta.FramePath(frameID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "bad_request")
		return
	}
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "frame not found: "+frameID, "not_found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	if s.describer == nil {
		WriteError(w, http.StatusServiceUnavailable, "no vision model configured", "unavailable")
		return
	}
	frameID := chi.URLParam(r, "frameID")
	path, err := s.meta.FramePath(frameID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "bad_request")
		return
	}
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "frame not found: "+frameID, "not_found")
		return
	}

	description, err := s.describer.Describe(r.Context(), path)
	if err != nil {
		s.logger.Error("frame description failed", "frame_id", frameID, "error", err)
		WriteError(w, http.StatusBadGateway, "vision model request failed", "upstream")
		return
	}
	WriteJSON(w, http.StatusOK, DescribeResponse{FrameID: frameID, Description: description})
}

// writeDomainError maps domain errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var storeErr *store.StoreError
	switch {
	case errors.Is(err, query.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error(), "validation")
	case errors.Is(err, jobs.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, metadata.ErrVideoNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.As(err, &storeErr):
		s.logger.Error("vector store failure", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "vector store unavailable", "store_unavailable")
	default:
		s.logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, err.Error(), "internal")
	}
}
