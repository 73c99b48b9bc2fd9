package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/indexer"
)

func newPointIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "point-id <video_id> <frame_number>",
		Short: "Print the stored point id for a frame",
		Long: `Print the deterministic point id derived from a video id and frame
number. Useful for cross-checking entries against another deployment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frameNumber, err := strconv.Atoi(args[1])
			if err != nil || frameNumber < 0 {
				return fmt.Errorf("invalid frame number %q", args[1])
			}
			fmt.Println(indexer.PointID(args[0], frameNumber))
			return nil
		},
	}
}
