package server

import (
	"fmt"
	"log"
	"net/http"

	"gopkg.in/yaml.v3"
)

// handleExport dumps a session transcript (messages, memory, call counter)
// for debugging. Read-only: exporting never creates a session.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, ok := s.store.Snapshot(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Details: fmt.Sprintf("no session %q", id)})
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, state)
	case "yaml":
		out, err := yaml.Marshal(state)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Details: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(out); err != nil {
			log.Printf("[SERVER] Failed to write yaml export: %v", err)
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: fmt.Sprintf("unsupported format %q (json, yaml)", format)})
	}
}
