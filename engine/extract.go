package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/becomeliminal/memochat/core"
)

// extractionWindow bounds how much history the extraction stage reads. The
// window applies to total messages, before the user-role filter.
const extractionWindow = 50

const extractionSystemPrompt = "You are a helper for extracting structured information from text. Answer only with valid JSON."

// Extract runs the extraction stage: read user messages from the recent
// window, ask the generation capability for a structured memory update, and
// merge it into the prior memory. Memory extraction is best-effort: any
// generation or parse failure degrades to returning the prior memory
// unchanged, never an error.
func (e *Engine) Extract(ctx context.Context, history []core.Message, prior core.UserMemory) core.UserMemory {
	recent := history
	if len(recent) > extractionWindow {
		recent = recent[len(recent)-extractionWindow:]
	}

	var userMessages []core.Message
	for _, m := range recent {
		if m.Role == core.RoleUser {
			userMessages = append(userMessages, m)
		}
	}
	if len(userMessages) == 0 {
		return prior
	}

	callCtx, cancel := e.callCtx(ctx)
	defer cancel()

	resp, err := e.extraction.Complete(callCtx, []core.Message{
		core.NewSystemMessage(extractionSystemPrompt),
		core.NewUserMessage(buildExtractionPrompt(userMessages)),
	})
	if err != nil {
		log.Printf("[ENGINE] Memory extraction failed: %v", err)
		return prior
	}

	update := parseExtracted(resp.Content)
	return core.Merge(prior, update)
}

func buildExtractionPrompt(userMessages []core.Message) string {
	var b strings.Builder
	b.WriteString(`Analyze the following user messages and extract important information about them.
Extract the following information if mentioned:
1. User name
2. Interesting facts about the user (profession, hobbies, preferences, personal information)
3. User preferences

User messages:
`)
	for i, m := range userMessages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Content)
	}
	b.WriteString(`
Return the answer in JSON format with fields:
{
  "name": "name or null",
  "facts": ["fact1", "fact2", ...],
  "preferences": ["preference1", "preference2", ...]
}

If there is no information, return empty arrays and null for name. Answer ONLY JSON, without additional text.`)
	return b.String()
}

// parseExtracted decodes the model output defensively. Anything that is not
// a well-formed object with the expected field shapes is discarded silently;
// the worst case is an empty update.
func parseExtracted(raw string) core.UserMemory {
	obj := firstJSONObject(raw)
	if obj == "" {
		return core.UserMemory{}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(obj), &decoded); err != nil {
		log.Printf("[ENGINE] Discarding malformed extraction output: %v", err)
		return core.UserMemory{}
	}

	var update core.UserMemory
	if name, ok := decoded["name"].(string); ok {
		update.Name = strings.TrimSpace(name)
	}
	update.Facts = stringEntries(decoded["facts"])
	update.Preferences = stringEntries(decoded["preferences"])
	return update
}

// firstJSONObject returns the first balanced {...} substring of raw, or ""
// when none exists. Braces inside JSON strings do not count toward balance.
func firstJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// stringEntries keeps only non-empty trimmed strings from a decoded JSON
// array, discarding everything else.
func stringEntries(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
