// Package llm defines the generation capability boundary: an ordered list of
// role-tagged messages in, one generated message out. The pipeline engine
// treats implementations as stateless black boxes safe for concurrent use.
package llm

import (
	"context"

	"github.com/becomeliminal/memochat/core"
)

// Client is the generation capability. Complete blocks until the backend
// produces a message or the context is done; callers bound each invocation
// with a timeout. No streaming: one call, one message.
type Client interface {
	Complete(ctx context.Context, messages []core.Message) (core.Message, error)
}

// CompleteFunc adapts a plain function to the Client interface. Used by
// tests to stub the capability without a backend.
type CompleteFunc func(ctx context.Context, messages []core.Message) (core.Message, error)

func (f CompleteFunc) Complete(ctx context.Context, messages []core.Message) (core.Message, error) {
	return f(ctx, messages)
}
