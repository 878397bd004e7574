package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/corpus/ai"
)

const (
	// DefaultMaxBatchChars is the default per-batch input budget. The
	// embedding service's payload limit is undocumented; this stays safely
	// under the rejections observed in practice.
	DefaultMaxBatchChars = 15000

	// DefaultMaxRetries bounds transient-failure retries per batch.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the base delay for exponential backoff.
	DefaultRetryBaseDelay = time.Second

	// DefaultConcurrency bounds how many batches embed at once.
	DefaultConcurrency = 4
)

// Batch is one embedded unit of work. Start is the offset of the batch's
// first text in the original input; concatenating Vectors across batches in
// slice order yields one vector per input text, in input order.
type Batch struct {
	Start   int
	Texts   []string
	Vectors [][]float32
}

// Batcher embeds ordered text chunks through a downstream embedding service
// while adapting to its payload size limit. Batches rejected as oversize
// are halved and retried recursively; transient failures are retried with
// backoff; input order is preserved in the output unconditionally.
type Batcher struct {
	embedder       ai.Embedder
	maxBatchChars  int
	maxRetries     int
	retryBaseDelay time.Duration
	concurrency    int
	logger         *slog.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher) error

// WithMaxBatchChars sets the per-batch input character budget.
func WithMaxBatchChars(chars int) BatcherOption {
	return func(b *Batcher) error {
		if chars <= 0 {
			return fmt.Errorf("max batch chars must be positive, got %d", chars)
		}
		b.maxBatchChars = chars
		return nil
	}
}

// WithMaxRetries sets the transient-failure retry budget per batch.
func WithMaxRetries(retries int) BatcherOption {
	return func(b *Batcher) error {
		if retries <= 0 {
			return ErrInvalidMaxAttempts
		}
		b.maxRetries = retries
		return nil
	}
}

// WithRetryBaseDelay sets the base delay for exponential backoff.
func WithRetryBaseDelay(delay time.Duration) BatcherOption {
	return func(b *Batcher) error {
		if delay <= 0 {
			return fmt.Errorf("retry base delay must be positive")
		}
		b.retryBaseDelay = delay
		return nil
	}
}

// WithConcurrency bounds how many batches are embedded concurrently.
func WithConcurrency(n int) BatcherOption {
	return func(b *Batcher) error {
		if n < 1 {
			n = 1
		}
		b.concurrency = n
		return nil
	}
}

// WithBatcherLogger sets a custom logger. Default is slog.Default().
func WithBatcherLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatcher creates a batcher over the given embedder.
func NewBatcher(embedder ai.Embedder, opts ...BatcherOption) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	b := &Batcher{
		embedder:       embedder,
		maxBatchChars:  DefaultMaxBatchChars,
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		concurrency:    DefaultConcurrency,
		logger:         slog.Default().With("component", "batcher"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// EmbedAll embeds the texts and returns the batches in input order. The
// concatenation of batch vectors equals one embedding per input text, in
// the original order; splitting and retrying never reorder or drop entries.
//
// Batches run concurrently under a bounded limit. Cancellation is
// cooperative: it is observed between batches, not mid-call.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string, model string) ([]Batch, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	parts := b.partition(texts)
	batches := make([]Batch, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	start := 0
	for i, part := range parts {
		batches[i] = Batch{Start: start, Texts: part}
		start += len(part)

		g.Go(func() error {
			// Cooperative cancellation check before each batch.
			if err := gctx.Err(); err != nil {
				return err
			}
			vectors, err := b.embedSplit(gctx, part, model)
			if err != nil {
				return err
			}
			batches[i].Vectors = vectors
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

// partition greedily groups texts into batches whose total length stays
// within the character budget. A text longer than the budget forms a batch
// of its own; whether it embeds is for the oversize handling to discover.
func (b *Batcher) partition(texts []string) [][]string {
	var parts [][]string
	var current []string
	chars := 0

	for _, text := range texts {
		if len(current) > 0 && chars+len(text) > b.maxBatchChars {
			parts = append(parts, current)
			current = nil
			chars = 0
		}
		current = append(current, text)
		chars += len(text)
	}
	if len(current) > 0 {
		parts = append(parts, current)
	}
	return parts
}

// embedSplit embeds one batch, recursively halving it when the service
// rejects the payload as oversize. A batch of one that is still oversize
// is a terminal failure: it cannot be split further.
func (b *Batcher) embedSplit(ctx context.Context, texts []string, model string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = b.embedder.Embed(ctx, texts, model)
		return embedErr
	}, b.maxRetries, b.retryBaseDelay)

	if err == nil {
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d, received %d",
				ErrResultMismatch, len(texts), len(vectors))
		}
		return vectors, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	if errors.Is(err, ai.ErrOversize) {
		if len(texts) == 1 {
			return nil, fmt.Errorf("%w: %d chars", ErrUnsplittableChunk, len(texts[0]))
		}
		b.logger.Debug("batch rejected as oversize, splitting",
			"size", len(texts), "model", model)

		mid := len(texts) / 2
		left, err := b.embedSplit(ctx, texts[:mid], model)
		if err != nil {
			return nil, err
		}
		right, err := b.embedSplit(ctx, texts[mid:], model)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}

	return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
}
