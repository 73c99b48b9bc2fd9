package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/analyzer"
	"github.com/di37/video-rag-bot/internal/logging"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <frame_id>",
		Short: "Describe a stored frame with the vision model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			frameID := args[0]
			path, err := a.meta.FramePath(frameID)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("frame image not found: %s", path)
			}

			describer, err := analyzer.New(ctx, a.cfg.Ollama.BaseURL, a.cfg.Ollama.VisionModel,
				logging.WithComponent(a.logger, "analyzer"))
			if err != nil {
				return err
			}

			description, err := describer.Describe(ctx, path)
			if err != nil {
				return err
			}
			fmt.Println(description)
			return nil
		},
	}
}
