// Package recall provides semantic recall of past conversation exchanges.
//
// The pipeline already feeds the full session history to the response stage,
// so recall earns its keep on long sessions: exchanges that scrolled past the
// extraction window can still resurface when the current message is
// semantically close to them. Recall is optional and best-effort: every
// failure is logged and absorbed, never surfaced to a turn.
//
// Architecture (Store / Embedder / Manager split):
//   - Store: vector storage backend, namespaced per session
//   - Embedder: text-to-vector conversion
//   - Manager: orchestrates retrieval formatting and recording
package recall

import (
	"context"
	"time"
)

// Exchange is one recorded user/assistant round trip.
type Exchange struct {
	ID             string
	SessionID      string
	UserMessage    string
	AssistantReply string
	CreatedAt      time.Time

	// Embedding is set before the exchange reaches the Store.
	Embedding []float32

	// Similarity is populated on query results.
	Similarity float32
}

// Store is the vector storage backend.
type Store interface {
	// Store saves an exchange. The embedding must already be set.
	Store(ctx context.Context, ex *Exchange) error

	// Query returns exchanges for the session ordered by similarity to the
	// given embedding, highest first.
	Query(ctx context.Context, sessionID string, embedding []float32, limit int) ([]*Exchange, error)

	// Close releases resources.
	Close() error
}

// Embedder converts text to embedding vectors. It is an implementation
// detail of the Manager; the pipeline engine never sees it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds Manager configuration.
type Config struct {
	// Enabled toggles recall on. Default off: short sessions get nothing
	// out of it and it costs one embedding call per turn.
	Enabled bool

	// MinSimilarity filters retrieved exchanges [0.0-1.0].
	MinSimilarity float64

	// MaxRecalled caps how many exchanges one retrieval may inject.
	MaxRecalled int
}

// DefaultConfig mirrors the defaults used in local development.
var DefaultConfig = &Config{
	Enabled:       false,
	MinSimilarity: 0.5,
	MaxRecalled:   5,
}
