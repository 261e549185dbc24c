package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Addr)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 2*time.Minute, cfg.CallTimeout)
	assert.Equal(t, 60, cfg.RatePerMinute)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.InDelta(t, 0.7, cfg.Ollama.Temperature, 1e-9)
	assert.InDelta(t, 0.3, cfg.Ollama.ExtractionTemperature, 1e-9)
	assert.False(t, cfg.Recall.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEMOCHAT_ADDR", ":9999")
	t.Setenv("MEMOCHAT_OLLAMA_MODEL", "llama3.2")
	t.Setenv("MEMOCHAT_RECALL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "llama3.2", cfg.Ollama.Model)
	assert.True(t, cfg.Recall.Enabled)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("MEMOCHAT_PROVIDER", "gpt4all")

	_, err := Load()
	assert.Error(t, err)
}
