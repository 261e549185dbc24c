package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/becomeliminal/memochat/core"
)

const personaPrompt = "You are a helpful AI assistant. Answer user questions in a friendly and informative manner. Use English for communication."

// Respond runs the response stage: build the system directive, invoke the
// generation capability with the full history, and return the assistant
// message. The bool reports genuine success: on any generation failure the
// stage synthesizes a user-facing explanation instead of propagating the
// error, and reports false so the call is not credited.
func (e *Engine) Respond(ctx context.Context, sessionID string, history []core.Message, memory core.UserMemory) (core.Message, bool) {
	directive := e.buildDirective(ctx, sessionID, history, memory)

	msgs := make([]core.Message, 0, len(history)+1)
	msgs = append(msgs, directive)
	msgs = append(msgs, history...)

	callCtx, cancel := e.callCtx(ctx)
	defer cancel()

	reply, err := e.chat.Complete(callCtx, msgs)
	if err != nil {
		log.Printf("[ENGINE] Response stage failed: %v", err)
		return core.NewAssistantMessage(fmt.Sprintf(
			"Sorry, an error occurred while generating a response: %v. "+
				"Make sure the model backend is running and the configured model is installed.", err)), false
	}
	return reply, true
}

// buildDirective constructs the system message: the fixed persona, an
// optional memory summary, and optional recalled exchanges.
func (e *Engine) buildDirective(ctx context.Context, sessionID string, history []core.Message, memory core.UserMemory) core.Message {
	parts := []string{personaPrompt}

	if summary := renderMemory(memory); summary != "" {
		parts = append(parts, summary)
	}

	if e.recall != nil {
		if query := lastUserContent(history); query != "" {
			enrichment, err := e.recall.Retrieve(ctx, sessionID, query)
			if err != nil {
				log.Printf("[RECALL] Retrieval failed: %v", err)
			} else if enrichment != "" {
				parts = append(parts, enrichment)
			}
		}
	}

	return core.NewSystemMessage(strings.Join(parts, "\n\n"))
}

// renderMemory formats the memory summary for the directive. Returns the
// empty string when memory has no content, so the summary section is
// omitted entirely.
func renderMemory(memory core.UserMemory) string {
	if memory.IsEmpty() {
		return ""
	}

	var lines []string
	if memory.Name != "" {
		lines = append(lines, fmt.Sprintf("- User name: %s", memory.Name))
	}
	if len(memory.Facts) > 0 {
		lines = append(lines, "- User facts:\n"+bulleted(memory.Facts))
	}
	if len(memory.Preferences) > 0 {
		lines = append(lines, "- User preferences:\n"+bulleted(memory.Preferences))
	}

	return "User information you should remember:\n" + strings.Join(lines, "\n") +
		"\n\nUse this information to personalize responses and demonstrate that you remember the user."
}

func bulleted(items []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "  • " + item
	}
	return strings.Join(out, "\n")
}

func lastUserContent(history []core.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
