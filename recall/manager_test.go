package recall_test

import (
	"context"
	"strings"
	"testing"

	"github.com/becomeliminal/memochat/recall"
	"github.com/becomeliminal/memochat/recall/embedder/mock"
	"github.com/becomeliminal/memochat/recall/store/chromem"
)

func newTestManager(t *testing.T) *recall.Manager {
	t.Helper()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	config := &recall.Config{
		Enabled:       true,
		MinSimilarity: -1.0, // keep everything: mock embeddings have no real similarity
		MaxRecalled:   5,
	}
	return recall.NewManager(store, mock.New(), config)
}

func TestManagerRecordAndRetrieve(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	if err := manager.Record(ctx, "session1", "My name is Anna", "Nice to meet you, Anna!"); err != nil {
		t.Fatalf("Failed to record exchange: %v", err)
	}

	formatted, err := manager.Retrieve(ctx, "session1", "What was my name again?")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if formatted == "" {
		t.Fatal("Expected a non-empty recall block")
	}
	if !strings.Contains(formatted, "My name is Anna") {
		t.Errorf("Expected recall block to contain the recorded exchange, got: %q", formatted)
	}
}

func TestManagerSessionNamespacing(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	if err := manager.Record(ctx, "session1", "I like tea", "Noted!"); err != nil {
		t.Fatalf("Failed to record exchange: %v", err)
	}

	// A different session must not see session1's exchanges.
	formatted, err := manager.Retrieve(ctx, "session2", "What do I like?")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if formatted != "" {
		t.Errorf("Expected no recall for a different session, got: %q", formatted)
	}
}

func TestManagerDisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	manager := recall.NewManager(store, mock.New(), nil) // DefaultConfig: disabled

	if err := manager.Record(ctx, "session1", "hello", "hi"); err != nil {
		t.Fatalf("Record should be a no-op when disabled: %v", err)
	}
	formatted, err := manager.Retrieve(ctx, "session1", "hello")
	if err != nil {
		t.Fatalf("Retrieve should be a no-op when disabled: %v", err)
	}
	if formatted != "" {
		t.Errorf("Expected empty recall when disabled, got: %q", formatted)
	}
}

func TestManagerSkipsEmptyExchanges(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	if err := manager.Record(ctx, "session1", "   ", "reply"); err != nil {
		t.Fatalf("Blank user message should be skipped, not fail: %v", err)
	}
	formatted, err := manager.Retrieve(ctx, "session1", "anything")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if formatted != "" {
		t.Errorf("Expected nothing recorded, got: %q", formatted)
	}
}
