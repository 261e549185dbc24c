// Package engine runs the two-stage conversation pipeline: generate a
// response, then extract memory. The two stages form a fixed ordered
// sequence per turn (no branching, no loops, no retries) and each stage
// fails soft, so a turn always yields a usable state.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/becomeliminal/memochat/core"
	"github.com/becomeliminal/memochat/llm"
	"github.com/becomeliminal/memochat/recall"
	"github.com/becomeliminal/memochat/session"
)

// Engine executes turns against a generation capability.
type Engine struct {
	chat        llm.Client
	extraction  llm.Client
	recall      *recall.Manager // Optional: semantic recall of past exchanges
	callTimeout time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithExtractionClient sets a separate client for the extraction stage,
// typically the same model at a lower temperature. Defaults to the chat
// client.
func WithExtractionClient(c llm.Client) Option {
	return func(e *Engine) {
		e.extraction = c
	}
}

// WithRecall configures the engine with a recall manager.
func WithRecall(m *recall.Manager) Option {
	return func(e *Engine) {
		e.recall = m
	}
}

// WithCallTimeout bounds each generation invocation. Zero means no bound
// beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.callTimeout = d
	}
}

// New creates an engine using the given chat client.
func New(chat llm.Client, opts ...Option) *Engine {
	e := &Engine{chat: chat, callTimeout: 2 * time.Minute}
	for _, opt := range opts {
		opt(e)
	}
	if e.extraction == nil {
		e.extraction = e.chat
	}
	return e
}

// Turn reports the outcome of one pipeline run.
type Turn struct {
	// Reply is the assistant message produced for this turn. Always
	// present: generation failures yield a synthesized explanation.
	Reply core.Message

	// LLMCalls is the number of successful generation calls credited to
	// this turn: 1 on genuine response-stage success, otherwise 0.
	LLMCalls int
}

// RunTurn executes one turn: append the user message, generate a reply,
// then extract memory from the updated history. The returned state is a
// complete replacement; the input state is not modified.
func (e *Engine) RunTurn(ctx context.Context, state session.State, userMessage core.Message) (session.State, Turn) {
	next := state.Clone()
	next.Messages = append(next.Messages, userMessage)

	// Stage 1: generate the response.
	reply, ok := e.Respond(ctx, next.ID, next.Messages, next.Memory)
	next.Messages = append(next.Messages, reply)

	turn := Turn{Reply: reply}
	if ok {
		turn.LLMCalls = 1
		next.LLMCalls++
	}

	// Stage 2: extract memory from the post-append history.
	next.Memory = e.Extract(ctx, next.Messages, next.Memory)

	// Record the exchange for semantic recall. Best-effort.
	if e.recall != nil && ok {
		if err := e.recall.Record(ctx, next.ID, userMessage.Content, reply.Content); err != nil {
			log.Printf("[RECALL] Failed to record exchange: %v", err)
		}
	}

	return next, turn
}

// callCtx derives a per-invocation context for one generation call.
func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.callTimeout)
}
