package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/memochat/config"
	"github.com/becomeliminal/memochat/engine"
	"github.com/becomeliminal/memochat/llm"
	"github.com/becomeliminal/memochat/llm/anthropic"
	"github.com/becomeliminal/memochat/llm/ollama"
	"github.com/becomeliminal/memochat/recall"
	ollamaembed "github.com/becomeliminal/memochat/recall/embedder/ollama"
	chromemstore "github.com/becomeliminal/memochat/recall/store/chromem"
	"github.com/becomeliminal/memochat/server"
	"github.com/becomeliminal/memochat/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			handler, err := wireServer(cfg)
			if err != nil {
				return err
			}

			log.Printf("[SERVER] Listening on %s (provider: %s)", cfg.Addr, cfg.Provider)
			log.Printf("[SERVER] Chat API available at http://localhost%s/api/chat", cfg.Addr)
			return http.ListenAndServe(cfg.Addr, handler)
		},
	}
}

// wireServer is the composition root: it builds the concrete clients, the
// engine, the store and the transport from configuration.
func wireServer(cfg *config.Config) (http.Handler, error) {
	chat, extraction, err := buildClients(cfg)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithExtractionClient(extraction),
		engine.WithCallTimeout(cfg.CallTimeout),
	}

	if cfg.Recall.Enabled {
		store, err := chromemstore.New()
		if err != nil {
			return nil, fmt.Errorf("wire recall store: %w", err)
		}
		embedClient := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, 0)
		manager := recall.NewManager(store, ollamaembed.New(embedClient, cfg.Recall.EmbeddingModel), &recall.Config{
			Enabled:       true,
			MinSimilarity: cfg.Recall.MinSimilarity,
			MaxRecalled:   cfg.Recall.MaxRecalled,
		})
		engineOpts = append(engineOpts, engine.WithRecall(manager))
		log.Printf("[RECALL] Enabled with embedding model %s", cfg.Recall.EmbeddingModel)
	}

	limiter, err := server.NewLimiter(cfg.RatePerMinute)
	if err != nil {
		return nil, fmt.Errorf("wire limiter: %w", err)
	}

	eng := engine.New(chat, engineOpts...)
	srv := server.New(session.NewStore(), eng, server.WithLimiter(limiter))
	return srv.Handler(), nil
}

func buildClients(cfg *config.Config) (chat, extraction llm.Client, err error) {
	switch cfg.Provider {
	case "ollama":
		chat = ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.Temperature)
		extraction = ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.ExtractionTemperature)
	case "anthropic":
		chat = anthropic.New(cfg.Anthropic.Model, cfg.Anthropic.Temperature)
		extraction = anthropic.New(cfg.Anthropic.Model, cfg.Anthropic.ExtractionTemperature)
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return chat, extraction, nil
}
