// Package server is the transport layer: JSON-over-HTTP framing around the
// pipeline engine and session store. No conversation logic lives here: the
// handlers validate input, resolve a session identifier, and delegate the
// turn to the engine under the store's per-session lock.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/becomeliminal/memochat/core"
	"github.com/becomeliminal/memochat/engine"
	"github.com/becomeliminal/memochat/session"
)

// DefaultSessionID is the identifier of last resort when neither the
// request body, the X-Session-ID header, nor the client address yields one.
const DefaultSessionID = "default-session"

// errNoReply marks the one structural fault allowed to surface as a 5xx:
// the pipeline finished without producing an assistant message.
var errNoReply = errors.New("pipeline produced no assistant reply")

// Server wires the chat endpoints to the engine and session store.
type Server struct {
	store   *session.Store
	engine  *engine.Engine
	limiter *Limiter // Optional: per-session rate guardrail
}

// Option configures the server.
type Option func(*Server)

// WithLimiter sets the per-session rate guardrail.
func WithLimiter(l *Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// New creates a server over the given store and engine.
func New(store *session.Store, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{store: store, engine: eng}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	return allowCORS(mux)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Response  string `json:"response"`
	LLMCalls  int    `json:"llmCalls"`
	SessionID string `json:"sessionId"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: "message is required and must be a non-empty string"})
		return
	}

	sessionID := s.resolveSessionID(req.SessionID, r)
	if s.limiter != nil && !s.limiter.Allow(sessionID) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limited", Details: "too many requests for this session, slow down"})
		return
	}

	log.Printf("[SERVER] Processing message for session: %s", sessionID)

	resp, err := s.runTurn(r, sessionID, req.Message)
	if err != nil {
		log.Printf("[SERVER] Turn failed for session %s: %v", sessionID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runTurn executes one turn under the session's lock and shapes the reply.
func (s *Server) runTurn(r *http.Request, sessionID, message string) (chatResponse, error) {
	var turn engine.Turn
	state := s.store.Update(sessionID, func(st session.State) session.State {
		next, t := s.engine.RunTurn(r.Context(), st, core.NewUserMessage(message))
		turn = t
		return next
	})

	// The pipeline always appends a reply; anything else here is an
	// orchestrator-level fault, the only path allowed to surface as 5xx.
	if len(state.Messages) == 0 || turn.Reply.Role != core.RoleAssistant {
		return chatResponse{}, errNoReply
	}
	return chatResponse{
		Response:  turn.Reply.Content,
		LLMCalls:  turn.LLMCalls,
		SessionID: sessionID,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "memochat",
	})
}

// resolveSessionID picks the session identifier: caller-supplied body field,
// then the X-Session-ID header, then the client address. The address
// fallback is not a stable key behind proxies; callers that care about
// continuity should supply their own identifier.
func (s *Server) resolveSessionID(fromBody string, r *http.Request) string {
	if fromBody != "" {
		return fromBody
	}
	if header := r.Header.Get("X-Session-ID"); header != "" {
		return header
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return DefaultSessionID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] Failed to encode response: %v", err)
	}
}

// allowCORS mirrors the permissive CORS policy of the original dev server.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
