package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/jobs"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <url>",
		Short: "Download, sample, and index a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			coord := newCoordinator(a)
			job, err := coord.Start(ctx, args[0])
			if errors.Is(err, jobs.ErrJobActive) {
				return fmt.Errorf("a job is already active for video %s", job.VideoID)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Video ID: %s\n", job.VideoID)

			return waitForJob(ctx, coord, job.VideoID)
		},
	}
	return cmd
}

// waitForJob polls the job until it reaches a terminal state, echoing each
// status message once.
func waitForJob(ctx context.Context, coord *jobs.Coordinator, videoID string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastMessage string
	for {
		job, err := coord.Status(videoID)
		if err != nil {
			return err
		}
		if job.Message != lastMessage {
			fmt.Printf("[%3d%%] %s\n", job.Progress, job.Message)
			lastMessage = job.Message
		}
		if job.State.Terminal() {
			if job.State == jobs.StateFailed {
				return fmt.Errorf("ingestion failed: %s", job.Message)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
