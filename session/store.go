// Package session owns per-session conversational state. The Store is the
// sole source of continuity between requests: everything else in the
// pipeline is a pure transformation of the state it hands out.
package session

import (
	"log"
	"sync"

	"github.com/becomeliminal/memochat/core"
)

// State is the conversational state for one session identifier.
type State struct {
	// ID is the opaque session identifier the state is registered under.
	ID string `json:"sessionId"`

	// Messages is the full conversation log, append-only across turns.
	Messages []core.Message `json:"messages"`

	// Memory is the current accumulated user memory.
	Memory core.UserMemory `json:"memory"`

	// LLMCalls counts successful generation invocations across the
	// session's lifetime.
	LLMCalls int `json:"llmCalls"`
}

// Clone returns a copy sharing no mutable storage with s.
func (s State) Clone() State {
	out := s
	out.Messages = append([]core.Message(nil), s.Messages...)
	out.Memory = s.Memory.Clone()
	return out
}

// entry pairs a session's state with the mutex that serializes its turns.
type entry struct {
	mu    sync.Mutex
	state State
}

// Store maps session identifiers to their state. Sessions are created on
// first use and live for the process lifetime: no eviction, no TTL, no
// durable persistence. Each session has its own lock so turns on the same
// identifier are serialized while unrelated sessions proceed in parallel.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

func (s *Store) getOrCreate(id string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if e, ok := s.sessions[id]; ok {
		return e
	}
	e = &entry{state: State{ID: id}}
	s.sessions[id] = e
	log.Printf("[SESSION] Created new session: %s", id)
	return e
}

// Update runs fn against the session's current state and stores the result.
// The session's lock is held for the whole call, so the read-transform-write
// span is exclusive per identifier: concurrent turns on the same session are
// admitted one at a time, and a turn's changes are never partially visible.
// fn receives a copy and must return the complete replacement state.
func (s *Store) Update(id string, fn func(State) State) State {
	e := s.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	next := fn(e.state.Clone())
	next.ID = id
	e.state = next
	return next.Clone()
}

// Snapshot returns a copy of the session's state, or ok=false if the
// identifier has never been seen. Read-only callers (transcript export)
// use this instead of Update to avoid creating sessions as a side effect.
func (s *Store) Snapshot(id string) (State, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), true
}

// Stats summarizes the store for observability. Stored history grows without
// bound by design (only the extraction window is trimmed), so operators
// should keep an eye on Messages.
type Stats struct {
	Sessions int `json:"sessions"`
	Messages int `json:"messages"`
}

// Stats counts sessions and stored messages.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Sessions: len(s.sessions)}
	for _, e := range s.sessions {
		e.mu.Lock()
		st.Messages += len(e.state.Messages)
		e.mu.Unlock()
	}
	return st
}
