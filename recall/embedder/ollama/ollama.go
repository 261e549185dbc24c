// Package ollama embeds text through the same Ollama server that serves
// generation, via its /api/embeddings endpoint.
package ollama

import (
	"context"

	"github.com/becomeliminal/memochat/llm/ollama"
)

// DefaultModel is a small embedding model commonly pulled alongside chat
// models.
const DefaultModel = "nomic-embed-text"

// Embedder converts text to vectors using an Ollama embedding model.
type Embedder struct {
	client     *ollama.Client
	model      string
	dimensions int
}

// New creates an embedder backed by the given client. An empty model falls
// back to DefaultModel. Dimensions are reported lazily after the first
// successful call, since they depend on the served model.
func New(client *ollama.Client, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{client: client, model: model}
}

// Embed returns the embedding vector for one text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, e.model, text)
	if err != nil {
		return nil, err
	}
	e.dimensions = len(vec)
	return vec, nil
}

// Dimensions returns the size of the last embedding produced, or 0 before
// the first call.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
