// Package embeddings maps images and text strings into a shared vector space.
package embeddings

import (
	"context"
	"fmt"
)

// Provider embeds images and text into vectors of a single fixed
// dimensionality. Implementations must be deterministic for the same input
// and model.
type Provider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, path string) ([]float32, error)
	Dim() int
}

// EncodingError reports a failure to embed one input. It is a per-item error:
// callers isolate it rather than aborting a whole batch.
type EncodingError struct {
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %q: %v", e.Input, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
