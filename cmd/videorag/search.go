package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/models"
)

func newSearchCmd() *cobra.Command {
	var (
		imagePath string
		timeRange string
		videoID   string
		limit     int
		random    bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed frames",
		Long: `Search indexed frames by text similarity, by reference image, by time
range, or sample random frames.

  videorag search "person writing on a whiteboard"
  videorag search --image ./reference.jpg
  videorag search --time 01:30-02:45 --video dQw4w9WgXcQ
  videorag search --random`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var results []models.SearchResult
			switch {
			case random:
				results, err = a.query.RandomFrames(ctx, limit, videoID)
			case imagePath != "":
				results, err = a.query.SearchByImage(ctx, imagePath, limit, videoID)
			case timeRange != "":
				var start, end int
				start, end, err = parseTimeRange(timeRange)
				if err != nil {
					return err
				}
				results, err = a.query.SearchByTimeRange(ctx, start, end, limit, videoID)
			case len(args) == 1:
				results, err = a.query.SearchByText(ctx, args[0], limit, videoID)
			default:
				return fmt.Errorf("provide a text query or one of --image, --time, --random")
			}
			if err != nil {
				return err
			}

			printResults(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "search by reference image file")
	cmd.Flags().StringVar(&timeRange, "time", "", "search by time range, MM:SS-MM:SS")
	cmd.Flags().StringVar(&videoID, "video", "", "restrict search to one video id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results")
	cmd.Flags().BoolVar(&random, "random", false, "sample random frames")
	return cmd
}

// parseTimeRange splits "MM:SS-MM:SS" into start and end seconds.
func parseTimeRange(s string) (int, int, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time range %q: expected MM:SS-MM:SS", s)
	}
	start, err := models.ParseTimestamp(startStr)
	if err != nil {
		return 0, 0, err
	}
	end, err := models.ParseTimestamp(endStr)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func printResults(results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No matching frames found.")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [%s] %s\n", i+1, r.Timestamp, r.VideoTitle)
		if r.Score != nil {
			fmt.Printf("   score: %.4f\n", *r.Score)
		}
		fmt.Printf("   frame: %s\n", r.FrameID)
		if r.WatchURL != "" {
			fmt.Printf("   watch: %s\n", r.WatchURL)
		}
	}
}
