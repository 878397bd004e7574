package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/corpus/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// A client is constructed per embedding model on first use and reused for
// subsequent calls.
type Embedder struct {
	config *ai.Config
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*openai.LLM
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the provided configuration.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		config:  config,
		logger:  slog.Default().With("component", "openai-embedder"),
		clients: make(map[string]*openai.LLM),
	}, nil
}

// client returns the cached client for the model, constructing it on first use.
func (e *Embedder) client(model string) (*openai.LLM, error) {
	if model == "" {
		model = e.config.DefaultModel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[model]; ok {
		return c, nil
	}

	c, err := openai.New(
		openai.WithBaseURL(e.config.Host),
		openai.WithToken(e.config.Token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	e.clients[model] = c
	return c, nil
}

// Embed generates vector embeddings for the given texts using the named
// model. Provider failures are classified into ai.ErrOversize and
// ai.ErrTransient for the pipeline to dispatch on.
func (e *Embedder) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	e.logger.Debug("generating embeddings", "count", len(texts), "model", model)

	client, err := e.client(model)
	if err != nil {
		return nil, ai.ClassifyError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	embeddings, err := client.CreateEmbedding(callCtx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, ai.ClassifyError(err)
	}

	return embeddings, nil
}
