// Package anthropic adapts the Anthropic Messages API to the llm.Client
// interface, as an alternative generation backend to a local Ollama server.
// The API key is read from the environment by the underlying SDK.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/becomeliminal/memochat/core"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const defaultMaxTokens = 4096

// Client implements llm.Client on top of the Anthropic SDK.
type Client struct {
	client      sdk.Client
	model       string
	temperature float64
}

// New creates a client for the given model and sampling temperature.
func New(model string, temperature float64) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client:      sdk.NewClient(),
		model:       model,
		temperature: temperature,
	}
}

// Complete maps the ordered context onto a Messages API call. System-role
// entries become the system prompt; the rest keep their roles.
func (c *Client) Complete(ctx context.Context, messages []core.Message) (core.Message, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: sdk.Float(c.temperature),
	}

	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
		case core.RoleAssistant:
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return core.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return core.NewAssistantMessage(text), nil
}
