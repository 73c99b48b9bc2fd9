package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/analyzer"
	"github.com/di37/video-rag-bot/internal/api"
	"github.com/di37/video-rag-bot/internal/downloader"
	"github.com/di37/video-rag-bot/internal/extractor"
	"github.com/di37/video-rag-bot/internal/jobs"
	"github.com/di37/video-rag-bot/internal/logging"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if port > 0 {
				a.cfg.Server.Port = port
			}

			coord := newCoordinator(a)
			go coord.RunJanitor(ctx)

			var describer *analyzer.Describer
			if a.cfg.Ollama.VisionModel != "" {
				describer, err = analyzer.New(ctx, a.cfg.Ollama.BaseURL, a.cfg.Ollama.VisionModel,
					logging.WithComponent(a.logger, "analyzer"))
				if err != nil {
					a.logger.Warn("vision model unavailable, describe endpoint disabled", "error", err)
					describer = nil
				}
			}

			server := api.NewServer(a.cfg.Server.Port, a.query, coord, a.indexer, a.meta, describer,
				logging.WithComponent(a.logger, "api"))

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

// newCoordinator wires the ingestion pipeline around the app's shared components.
func newCoordinator(a *app) *jobs.Coordinator {
	dl := downloader.NewYTDLP(a.cfg.Videos.Dir, logging.WithComponent(a.logger, "downloader"))
	sampler := extractor.NewSampler(a.cfg.Videos.Dir, a.cfg.Videos.FrameIntervalSeconds,
		logging.WithComponent(a.logger, "extractor"))

	return jobs.NewCoordinator(dl, sampler, a.indexer, a.meta, jobs.Options{
		Retention:       a.cfg.JobRetention(),
		DownloadTimeout: a.cfg.DownloadTimeout(),
		ExtractTimeout:  a.cfg.ExtractTimeout(),
		BatchSize:       a.cfg.Indexing.BatchSize,
		KeepVideoFile:   a.cfg.Videos.KeepVideoFile,
	}, logging.WithComponent(a.logger, "jobs"))
}
