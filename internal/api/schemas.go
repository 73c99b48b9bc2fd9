package api

import (
	"encoding/json"
	"net/http"

	"github.com/di37/video-rag-bot/internal/jobs"
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"` // text, image, time
	Limit      int    `json:"limit"`
	StartTime  string `json:"start_time,omitempty"` // MM:SS, time search only
	EndTime    string `json:"end_time,omitempty"`
	VideoID    string `json:"video_id,omitempty"`
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL string `json:"url"`
}

// DownloadResponse acknowledges a job submission.
type DownloadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VideoID string `json:"video_id"`
	Status  string `json:"status,omitempty"`
}

// JobResponse is the status view of an ingestion job.
type JobResponse struct {
	VideoID  string `json:"video_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// JobToResponse projects a job snapshot for callers.
func JobToResponse(j jobs.Job) JobResponse {
	return JobResponse{
		VideoID:  j.VideoID,
		Status:   string(j.State),
		Message:  j.Message,
		Progress: j.Progress,
	}
}

// DescribeResponse is the result of POST /api/frames/{id}/describe.
type DescribeResponse struct {
	FrameID     string `json:"frame_id"`
	Description string `json:"description"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}
