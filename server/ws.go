package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/becomeliminal/memochat/core"
	"github.com/becomeliminal/memochat/engine"
	"github.com/becomeliminal/memochat/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same permissive policy as the HTTP CORS layer.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS serves chat turns over a websocket: one JSON request in, one JSON
// reply out, same payload contract as POST /api/chat. A connection that
// never names a session gets a fresh uuid-backed one, since the client address is
// not a safe continuity key for long-lived sockets behind proxies.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connSessionID := r.Header.Get("X-Session-ID")
	if connSessionID == "" {
		connSessionID = uuid.New().String()
	}
	log.Printf("[SERVER] Websocket connected, session: %s", connSessionID)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[SERVER] Websocket read failed: %v", err)
			}
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			s.writeWS(conn, errorResponse{Error: "invalid request", Details: "message is required and must be a non-empty string"})
			continue
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = connSessionID
		}
		if s.limiter != nil && !s.limiter.Allow(sessionID) {
			s.writeWS(conn, errorResponse{Error: "rate limited", Details: "too many requests for this session, slow down"})
			continue
		}

		var turn engine.Turn
		s.store.Update(sessionID, func(st session.State) session.State {
			next, t := s.engine.RunTurn(r.Context(), st, core.NewUserMessage(req.Message))
			turn = t
			return next
		})

		if turn.Reply.Role != core.RoleAssistant {
			s.writeWS(conn, errorResponse{Error: "internal server error", Details: errNoReply.Error()})
			continue
		}
		s.writeWS(conn, chatResponse{
			Response:  turn.Reply.Content,
			LLMCalls:  turn.LLMCalls,
			SessionID: sessionID,
		})
	}
}

func (s *Server) writeWS(conn *websocket.Conn, v interface{}) {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("[SERVER] Websocket write failed: %v", err)
	}
}
