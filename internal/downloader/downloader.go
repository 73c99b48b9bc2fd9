// Package downloader acquires video content from a source URL via yt-dlp.
package downloader

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/di37/video-rag-bot/internal/models"
)

// Reason classifies why a video could not be acquired.
type Reason string

const (
	ReasonPrivate  Reason = "private"
	ReasonPremium  Reason = "premium"
	ReasonLive     Reason = "live"
	ReasonBlocked  Reason = "blocked"
	ReasonNotFound Reason = "not_found"
	ReasonOther    Reason = "other"
)

// AcquisitionError reports a failed acquisition with a classified reason.
type AcquisitionError struct {
	Reason Reason
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed (%s): %v", e.Reason, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// VideoIDFromURL extracts the 11-character video id from a watch URL, falling
// back to an md5 prefix of the URL so every source gets a stable id.
func VideoIDFromURL(url string) string {
	if m := videoIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:11]
}

// YTDLP downloads videos by shelling out to yt-dlp.
type YTDLP struct {
	dir    string
	logger *slog.Logger
}

// NewYTDLP creates a downloader writing into dir.
func NewYTDLP(dir string, logger *slog.Logger) *YTDLP {
	return &YTDLP{dir: dir, logger: logger}
}

// ytdlpInfo is the subset of yt-dlp's --dump-json output we consume.
type ytdlpInfo struct {
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	Uploader     string  `json:"uploader"`
	UploadDate   string  `json:"upload_date"`
	ViewCount    int64   `json:"view_count"`
	Description  string  `json:"description"`
	Availability string  `json:"availability"`
	IsLive       bool    `json:"is_live"`
}

// VideoInfo fetches video information without downloading and verifies the
// video is acquirable.
func (d *YTDLP) VideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "yt-dlp", "--dump-json", "--no-warnings", url)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, &AcquisitionError{
			Reason: classifyReason(stderr.String()),
			Err:    fmt.Errorf("yt-dlp info failed: %v: %s", err, firstLine(stderr.String())),
		}
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, &AcquisitionError{Reason: ReasonOther, Err: fmt.Errorf("failed to parse yt-dlp output: %w", err)}
	}

	switch {
	case info.Availability == "private":
		return nil, &AcquisitionError{Reason: ReasonPrivate, Err: fmt.Errorf("video is private")}
	case info.Availability == "premium_only":
		return nil, &AcquisitionError{Reason: ReasonPremium, Err: fmt.Errorf("video requires a premium subscription")}
	case info.IsLive:
		return nil, &AcquisitionError{Reason: ReasonLive, Err: fmt.Errorf("cannot download live streams")}
	}

	desc := info.Description
	if len(desc) > 500 {
		desc = desc[:500]
	}
	return &models.VideoInfo{
		ID:              VideoIDFromURL(url),
		Title:           orUnknown(info.Title, "Unknown Title"),
		URL:             url,
		DurationSeconds: info.Duration,
		Uploader:        orUnknown(info.Uploader, "Unknown"),
		UploadDate:      info.UploadDate,
		ViewCount:       info.ViewCount,
		Description:     desc,
	}, nil
}

// Download fetches the video and returns the path of the downloaded file.
func (d *YTDLP) Download(ctx context.Context, url string, info *models.VideoInfo) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", &AcquisitionError{Reason: ReasonOther, Err: err}
	}

	safeTitle := sanitizeTitle(info.Title)
	template := filepath.Join(d.dir, fmt.Sprintf("%s_%s.%%(ext)s", info.ID, safeTitle))

	d.logger.Info("downloading video", "video_id", info.ID, "title", info.Title)
	start := time.Now()

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--no-warnings",
		"--no-playlist",
		"--retries", "3",
		"-o", template,
		url,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &AcquisitionError{
			Reason: classifyReason(stderr.String()),
			Err:    fmt.Errorf("yt-dlp download failed: %v: %s", err, firstLine(stderr.String())),
		}
	}

	for _, ext := range []string{"mp4", "webm", "mkv"} {
		path := strings.Replace(template, "%(ext)s", ext, 1)
		if _, err := os.Stat(path); err == nil {
			d.logger.Info("download complete", "video_id", info.ID, "path", path, "took", time.Since(start))
			return path, nil
		}
	}
	return "", &AcquisitionError{Reason: ReasonOther, Err: fmt.Errorf("downloaded video file not found")}
}

// classifyReason maps yt-dlp error output to an acquisition reason.
func classifyReason(stderr string) Reason {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "private video"), strings.Contains(lower, "video is private"):
		return ReasonPrivate
	case strings.Contains(lower, "premium"), strings.Contains(lower, "members-only"), strings.Contains(lower, "join this channel"):
		return ReasonPremium
	case strings.Contains(lower, "live event"), strings.Contains(lower, "is live"), strings.Contains(lower, "live stream"):
		return ReasonLive
	case strings.Contains(lower, "403"), strings.Contains(lower, "forbidden"), strings.Contains(lower, "not available in your country"):
		return ReasonBlocked
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"), strings.Contains(lower, "does not exist"):
		return ReasonNotFound
	default:
		return ReasonOther
	}
}

var unsafeTitle = regexp.MustCompile(`[^\w\s-]`)
var collapseDashes = regexp.MustCompile(`[-\s]+`)

// sanitizeTitle makes a video title safe for use in a filename.
func sanitizeTitle(title string) string {
	s := unsafeTitle.ReplaceAllString(title, "")
	s = strings.TrimSpace(s)
	s = collapseDashes.ReplaceAllString(s, "-")
	if s == "" {
		s = "video"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
