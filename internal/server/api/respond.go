// Package api provides HTTP API handlers for editing the piano and reading its history.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/tecla/internal/editor"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// requireEditor rejects changes while no editor session is open. A nil
// session allows every change.
func requireEditor(w http.ResponseWriter, sess *editor.Session) bool {
	if sess == nil || sess.IsOpen() {
		return true
	}
	writeError(w, http.StatusConflict, "Editor is not open")
	return false
}
