package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"FeedAnnotator/internal/channel"
	"FeedAnnotator/internal/config"
	"FeedAnnotator/internal/infrastructure/backend"
	"FeedAnnotator/internal/infrastructure/llm"
	"FeedAnnotator/internal/infrastructure/readability"
	"FeedAnnotator/internal/infrastructure/storage"
	"FeedAnnotator/internal/infrastructure/vector"
	"FeedAnnotator/internal/logging"
	"FeedAnnotator/internal/ports"
)

// Application wires the scoring host: the verdict store, the analysis
// model, and the vector index behind a native-messaging channel on stdio.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable host instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Run serves channel requests on stdin/stdout until the browser closes the
// stream.
func (a *Application) Run(ctx context.Context) error {
	store, err := storage.Open(a.cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open verdict store: %w", err)
	}
	defer store.Close()

	var scorer ports.Scorer
	var summarizer ports.Summarizer
	if a.cfg.LLM.APIKey != "" {
		client := llm.NewClient(a.cfg.LLM)
		scorer = client
		summarizer = client
	} else {
		a.logger.Warn("no llm api key; analyze and summarize disabled")
	}

	var index ports.VectorIndex
	if a.cfg.Vector.URL != "" {
		embedder := llm.NewEmbeddingsClient(a.cfg.Embeddings)
		store, err := vector.New(ctx, vector.Config{
			URL:        a.cfg.Vector.URL,
			Collection: a.cfg.Vector.Collection,
		}, embedder)
		if err != nil {
			// Search degrades; scoring still works.
			a.logger.Warn("vector store unavailable", "error", err)
		} else {
			index = store
		}
	}

	service := backend.New(backend.Deps{
		Store:      store,
		Scorer:     scorer,
		Summarizer: summarizer,
		Fetcher:    readability.NewFetcher(0),
		Index:      index,
		Logger:     a.logger.With("component", "backend"),
	})

	a.logger.Info("scoring host ready", "db", a.cfg.Storage.Path)
	return channel.Serve(ctx, os.Stdin, os.Stdout, service)
}
