package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// Embed generates vector embeddings for the given texts using the named
	// model. The returned slice contains one embedding per input text, in
	// input order.
	//
	// Errors are classified: a payload-size rejection satisfies
	// errors.Is(err, ErrOversize); a retriable backend failure satisfies
	// errors.Is(err, ErrTransient).
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
}
