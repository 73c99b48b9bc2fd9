package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newVideosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List processed videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			videos, err := a.meta.List()
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Println("No processed videos.")
				return nil
			}
			for _, v := range videos {
				fmt.Printf("%s  %s\n", v.ID, v.Title)
				fmt.Printf("    frames: %d  uploader: %s  processed: %s\n",
					v.FramesCount, v.Uploader, v.ProcessedDate)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.indexer.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed frames: %d\n", stats.TotalPoints)
			fmt.Printf("Videos:         %d\n", stats.TotalVideos)
			fmt.Printf("Vector size:    %d (%s)\n", stats.VectorSize, stats.Distance)

			ids := make([]string, 0, len(stats.Videos))
			for id := range stats.Videos {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				v := stats.Videos[id]
				fmt.Printf("  %s  %s (%d frames)\n", id, v.Title, v.FrameCount)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <video_id>",
		Short: "Delete a video's indexed frames and local files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			videoID := args[0]
			if err := a.indexer.DeleteVideo(ctx, videoID); err != nil {
				return err
			}
			if err := a.meta.Delete(videoID); err != nil {
				return err
			}
			fmt.Printf("Deleted video %s\n", videoID)
			return nil
		},
	}
}
