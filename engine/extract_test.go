package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/becomeliminal/memochat/core"
)

func TestExtractEmptyHistoryMakesNoCall(t *testing.T) {
	extraction := fixedReply(`{}`)
	eng := New(fixedReply("unused"), WithExtractionClient(extraction))

	prior := core.UserMemory{Name: "Anna"}
	got := eng.Extract(context.Background(), nil, prior)

	assert.Equal(t, prior, got)
	assert.EqualValues(t, 0, extraction.calls)
}

func TestExtractNoUserMessagesMakesNoCall(t *testing.T) {
	extraction := fixedReply(`{}`)
	eng := New(fixedReply("unused"), WithExtractionClient(extraction))

	history := []core.Message{
		core.NewSystemMessage("directive"),
		core.NewAssistantMessage("hello"),
	}
	got := eng.Extract(context.Background(), history, core.UserMemory{})

	assert.True(t, got.IsEmpty())
	assert.EqualValues(t, 0, extraction.calls)
}

func TestExtractWindowAppliesBeforeRoleFilter(t *testing.T) {
	// User messages exist, but only outside the most recent 50 messages.
	// The window is cut first, so extraction sees no user messages and
	// makes no call.
	extraction := fixedReply(`{"name":"Anna"}`)
	eng := New(fixedReply("unused"), WithExtractionClient(extraction))

	var history []core.Message
	history = append(history, core.NewUserMessage("my name is Anna"))
	for i := 0; i < extractionWindow; i++ {
		history = append(history, core.NewAssistantMessage(fmt.Sprintf("filler %d", i)))
	}

	got := eng.Extract(context.Background(), history, core.UserMemory{})

	assert.True(t, got.IsEmpty())
	assert.EqualValues(t, 0, extraction.calls)
}

func TestExtractCapabilityErrorReturnsPriorUnchanged(t *testing.T) {
	eng := New(fixedReply("unused"), WithExtractionClient(failing(errors.New("unreachable"))))

	prior := core.UserMemory{Name: "Anna", Preferences: []string{"tea"}}
	got := eng.Extract(context.Background(), []core.Message{core.NewUserMessage("hi")}, prior)

	assert.Equal(t, prior.Name, got.Name)
	assert.Equal(t, prior.Preferences, got.Preferences)
}

func TestExtractMergesSanitizedUpdate(t *testing.T) {
	raw := `Here is the result:
{"name":"  Anna ","facts":["plays chess","","  "],"preferences":["tea",42,null]}`
	eng := New(fixedReply("unused"), WithExtractionClient(fixedReply(raw)))

	prior := core.UserMemory{Facts: []string{"likes go"}}
	got := eng.Extract(context.Background(), []core.Message{core.NewUserMessage("hi")}, prior)

	assert.Equal(t, "Anna", got.Name)
	assert.Equal(t, []string{"likes go", "plays chess"}, got.Facts)
	assert.Equal(t, []string{"tea"}, got.Preferences)
}

func TestExtractPromptContainsOnlyUserMessages(t *testing.T) {
	var prompt string
	eng := New(fixedReply("unused"), WithExtractionClient(&countingClient{
		fn: func(msgs []core.Message) (core.Message, error) {
			prompt = msgs[len(msgs)-1].Content
			return core.NewAssistantMessage(`{}`), nil
		},
	}))

	history := []core.Message{
		core.NewUserMessage("I live in Oslo"),
		core.NewAssistantMessage("assistant says secret things"),
		core.NewUserMessage("I like tea"),
	}
	_ = eng.Extract(context.Background(), history, core.UserMemory{})

	assert.Contains(t, prompt, "1. I live in Oslo")
	assert.Contains(t, prompt, "2. I like tea")
	assert.NotContains(t, prompt, "assistant says secret things")
}

func TestParseExtracted(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want core.UserMemory
	}{
		{
			name: "plain object",
			raw:  `{"name":"Anna","facts":["f1"],"preferences":["p1"]}`,
			want: core.UserMemory{Name: "Anna", Facts: []string{"f1"}, Preferences: []string{"p1"}},
		},
		{
			name: "prose-wrapped object",
			raw:  "Sure! Here you go: {\"name\":\"Bob\"} hope that helps",
			want: core.UserMemory{Name: "Bob"},
		},
		{
			name: "braces inside strings do not break balance",
			raw:  `{"name":"An}na","facts":["uses {braces}"]}`,
			want: core.UserMemory{Name: "An}na", Facts: []string{"uses {braces}"}},
		},
		{
			name: "null name ignored",
			raw:  `{"name":null,"facts":[],"preferences":["tea"]}`,
			want: core.UserMemory{Preferences: []string{"tea"}},
		},
		{
			name: "no object at all",
			raw:  "I could not find anything.",
			want: core.UserMemory{},
		},
		{
			name: "unbalanced object",
			raw:  `{"name":"Anna"`,
			want: core.UserMemory{},
		},
		{
			name: "non-object field shapes discarded",
			raw:  `{"name":7,"facts":"not an array","preferences":{"a":1}}`,
			want: core.UserMemory{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseExtracted(tt.raw))
		})
	}
}
