package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/memochat/core"
)

func TestUpdateCreatesOnFirstUse(t *testing.T) {
	store := NewStore()

	state := store.Update("fresh", func(st State) State {
		assert.Empty(t, st.Messages)
		assert.True(t, st.Memory.IsEmpty())
		assert.Equal(t, 0, st.LLMCalls)
		return st
	})

	assert.Equal(t, "fresh", state.ID)
}

func TestSessionIsolation(t *testing.T) {
	store := NewStore()

	store.Update("a", func(st State) State {
		st.Messages = append(st.Messages, core.NewUserMessage("from a"))
		st.Memory.Name = "Anna"
		return st
	})
	store.Update("b", func(st State) State {
		st.Messages = append(st.Messages, core.NewUserMessage("from b"))
		return st
	})

	a, ok := store.Snapshot("a")
	require.True(t, ok)
	b, ok := store.Snapshot("b")
	require.True(t, ok)

	assert.Equal(t, "Anna", a.Memory.Name)
	assert.Empty(t, b.Memory.Name)
	require.Len(t, a.Messages, 1)
	require.Len(t, b.Messages, 1)
	assert.Equal(t, "from a", a.Messages[0].Content)
	assert.Equal(t, "from b", b.Messages[0].Content)
}

func TestConcurrentTurnsOnSameSessionLoseNothing(t *testing.T) {
	store := NewStore()
	const turns = 100

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Update("shared", func(st State) State {
				// Read-modify-write like a real turn: user then assistant.
				st.Messages = append(st.Messages, core.NewUserMessage(fmt.Sprintf("u%d", i)))
				st.Messages = append(st.Messages, core.NewAssistantMessage(fmt.Sprintf("a%d", i)))
				st.LLMCalls++
				return st
			})
		}(i)
	}
	wg.Wait()

	state, ok := store.Snapshot("shared")
	require.True(t, ok)
	assert.Len(t, state.Messages, 2*turns)
	assert.Equal(t, turns, state.LLMCalls)

	// Turns never interleave: each user message is directly followed by
	// its assistant reply.
	for i := 0; i < len(state.Messages); i += 2 {
		assert.Equal(t, core.RoleUser, state.Messages[i].Role)
		assert.Equal(t, core.RoleAssistant, state.Messages[i+1].Role)
		assert.Equal(t, state.Messages[i].Content[1:], state.Messages[i+1].Content[1:])
	}
}

func TestSnapshotDoesNotCreateSessions(t *testing.T) {
	store := NewStore()

	_, ok := store.Snapshot("never-seen")

	assert.False(t, ok)
	assert.Equal(t, 0, store.Stats().Sessions)
}

func TestUpdateReturnsIsolatedCopy(t *testing.T) {
	store := NewStore()

	state := store.Update("s", func(st State) State {
		st.Messages = append(st.Messages, core.NewUserMessage("original"))
		return st
	})
	state.Messages[0].Content = "mutated"

	snap, ok := store.Snapshot("s")
	require.True(t, ok)
	assert.Equal(t, "original", snap.Messages[0].Content)
}

func TestStats(t *testing.T) {
	store := NewStore()
	store.Update("a", func(st State) State {
		st.Messages = append(st.Messages, core.NewUserMessage("1"), core.NewAssistantMessage("2"))
		return st
	})
	store.Update("b", func(st State) State {
		st.Messages = append(st.Messages, core.NewUserMessage("3"))
		return st
	})

	st := store.Stats()
	assert.Equal(t, 2, st.Sessions)
	assert.Equal(t, 3, st.Messages)
}
