// Command videorag indexes video frames into a vector store and answers
// multi-modal queries over them, as a CLI or an HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/di37/video-rag-bot/internal/config"
	"github.com/di37/video-rag-bot/internal/embeddings"
	"github.com/di37/video-rag-bot/internal/indexer"
	"github.com/di37/video-rag-bot/internal/logging"
	"github.com/di37/video-rag-bot/internal/metadata"
	"github.com/di37/video-rag-bot/internal/query"
	"github.com/di37/video-rag-bot/internal/store"
)

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "videorag",
		Short: "Search video content by meaning",
		Long: `videorag downloads videos, samples frames, embeds them into a shared
text-image vector space, and answers semantic, image, and time-range queries
over the indexed frames.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.videorag/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newVideosCmd(),
		newStatsCmd(),
		newDeleteCmd(),
		newReindexCmd(),
		newDescribeCmd(),
		newPointIDCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired components most commands need.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    store.VectorStore
	provider *embeddings.OllamaProvider
	meta     *metadata.Store
	indexer  *indexer.Engine
	query    *query.Engine
}

// newApp loads configuration and wires the component graph. With a database
// connection string configured the pgvector store is used; otherwise the
// in-memory store, which does not survive restarts.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.New(cfg.LogLevel)

	var vs store.VectorStore
	if cfg.Database.ConnectionString != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.ConnectionString, cfg.Ollama.EmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to vector store: %w", err)
		}
		vs = pg
	} else {
		logger.Warn("no database configured, using in-memory vector store")
		vs = store.NewMemoryStore(cfg.Ollama.EmbeddingDim)
	}

	provider := embeddings.NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel, cfg.Ollama.EmbeddingDim)
	meta := metadata.NewStore(cfg.Videos.Dir, logging.WithComponent(logger, "metadata"))
	idx := indexer.New(vs, provider, cfg.Indexing.Workers, logging.WithComponent(logger, "indexer"))
	qe := query.New(vs, provider, logging.WithComponent(logger, "query"))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    vs,
		provider: provider,
		meta:     meta,
		indexer:  idx,
		query:    qe,
	}, nil
}

func (a *app) close() {
	a.store.Close()
}
