// Package chromem wraps chromem-go, a pure Go embedded vector database, as
// a recall.Store. Everything lives in process memory, matching the session
// store's lifetime.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/memochat/recall"
)

// Store keeps one chromem collection per session for namespace isolation.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// New creates an empty in-memory store.
func New() (*Store, error) {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (s *Store) getOrCreateCollection(sessionID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[sessionID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := s.collections[sessionID]; exists {
		return col, nil
	}

	col, err := s.db.CreateCollection(
		fmt.Sprintf("session_%s", sessionID),
		nil, // embeddings are provided by the caller
		nil, // default cosine distance
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[sessionID] = col
	return col, nil
}

// Store saves an exchange with its embedding.
func (s *Store) Store(ctx context.Context, ex *recall.Exchange) error {
	col, err := s.getOrCreateCollection(ex.SessionID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        ex.ID,
		Content:   ex.FormatForEmbedding(),
		Embedding: ex.Embedding,
		Metadata: map[string]string{
			"session_id":      ex.SessionID,
			"user_message":    ex.UserMessage,
			"assistant_reply": ex.AssistantReply,
			"created_at":      ex.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves exchanges by vector similarity, highest first.
func (s *Store) Query(ctx context.Context, sessionID string, embedding []float32, limit int) ([]*recall.Exchange, error) {
	col, err := s.getOrCreateCollection(sessionID)
	if err != nil {
		return nil, err
	}

	// chromem-go requires nResults <= collection size, so back off until a
	// query succeeds or the collection turns out to be empty.
	var results []chromem.Result
	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		results, err = col.QueryEmbedding(ctx, embedding, currentLimit, nil, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	exchanges := make([]*recall.Exchange, 0, len(results))
	for i, result := range results {
		ex, err := exchangeFromResult(result)
		if err != nil {
			log.Printf("[CHROMEM] Skipping result #%d: %v", i+1, err)
			continue
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

// Close releases resources. chromem-go keeps everything in memory, so there
// is nothing to release.
func (s *Store) Close() error {
	return nil
}

func exchangeFromResult(result chromem.Result) (*recall.Exchange, error) {
	createdAt, err := time.Parse(time.RFC3339, result.Metadata["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &recall.Exchange{
		ID:             result.ID,
		SessionID:      result.Metadata["session_id"],
		UserMessage:    result.Metadata["user_message"],
		AssistantReply: result.Metadata["assistant_reply"],
		CreatedAt:      createdAt,
		Embedding:      result.Embedding,
		Similarity:     result.Similarity,
	}, nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
