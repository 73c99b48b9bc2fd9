package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/models"
)

func newReindexCmd() *cobra.Command {
	var videoID string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed and upsert frames from stored metadata",
		Long: `Rebuild the vector store from the on-disk metadata records. Point ids
derive from video id and frame number, so reindexing overwrites existing
entries instead of duplicating them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var frames []models.FrameDescriptor
			if videoID != "" {
				frames, err = a.meta.LoadVideoFrames(videoID)
			} else {
				frames, err = a.meta.LoadAllFrames()
			}
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				fmt.Println("No frames to index.")
				return nil
			}

			report, err := a.indexer.Index(ctx, frames, a.cfg.Indexing.BatchSize)
			if report != nil {
				fmt.Printf("Indexed %d of %d frames (%d skipped)\n",
					report.Indexed, report.Submitted, report.SkippedCount())
				for _, sk := range report.Skipped {
					fmt.Printf("  skipped %s: %s\n", sk.FrameID, sk.Reason)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&videoID, "video", "", "reindex only this video id")
	return cmd
}
