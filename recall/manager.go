package recall

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manager orchestrates recall operations over a Store and an Embedder.
type Manager struct {
	store    Store
	embedder Embedder
	config   *Config
}

// NewManager creates a Manager. A nil config falls back to DefaultConfig.
func NewManager(store Store, embedder Embedder, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	return &Manager{store: store, embedder: embedder, config: config}
}

// Retrieve finds exchanges relevant to the current message and returns them
// formatted for prompt injection. An empty string means nothing relevant.
func (m *Manager) Retrieve(ctx context.Context, sessionID, userMessage string) (string, error) {
	if !m.config.Enabled {
		return "", nil
	}

	embedding, err := m.embedder.Embed(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	limit := m.config.MaxRecalled
	if limit <= 0 {
		limit = DefaultConfig.MaxRecalled
	}
	exchanges, err := m.store.Query(ctx, sessionID, embedding, limit)
	if err != nil {
		return "", fmt.Errorf("query store: %w", err)
	}

	log.Printf("[RECALL] Retrieved %d exchanges for query: %q", len(exchanges), truncateLog(userMessage, 50))

	var kept []*Exchange
	for _, ex := range exchanges {
		if float64(ex.Similarity) >= m.config.MinSimilarity {
			kept = append(kept, ex)
		}
	}
	if len(kept) == 0 {
		return "", nil
	}
	return formatExchanges(kept), nil
}

// Record stores one completed exchange under the session's namespace.
func (m *Manager) Record(ctx context.Context, sessionID, userMessage, assistantReply string) error {
	if !m.config.Enabled {
		return nil
	}
	if strings.TrimSpace(userMessage) == "" || strings.TrimSpace(assistantReply) == "" {
		return nil
	}

	ex := &Exchange{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		UserMessage:    userMessage,
		AssistantReply: assistantReply,
		CreatedAt:      time.Now(),
	}

	embedding, err := m.embedder.Embed(ctx, ex.FormatForEmbedding())
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}
	ex.Embedding = embedding

	if err := m.store.Store(ctx, ex); err != nil {
		return fmt.Errorf("store exchange: %w", err)
	}
	log.Printf("[RECALL] Recorded exchange for session %s", sessionID)
	return nil
}

// FormatForEmbedding returns the text representation used for embedding.
func (ex *Exchange) FormatForEmbedding() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", ex.UserMessage, ex.AssistantReply)
}

func formatExchanges(exchanges []*Exchange) string {
	var b strings.Builder
	b.WriteString("Relevant earlier exchanges from this conversation:\n")
	for i, ex := range exchanges {
		fmt.Fprintf(&b, "%d. User said: %q and you replied: %q\n",
			i+1, truncateLog(ex.UserMessage, 200), truncateLog(ex.AssistantReply, 200))
	}
	return b.String()
}

func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
