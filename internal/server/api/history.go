package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/tecla/internal/store"
)

// HistoryHandler serves the recorded note events.
//
//	GET /api/history?session=&limit=   recent notes, newest first
//	GET /api/history/stats?session=     play counts per key
//	GET /api/history/sessions?limit=    recent sessions
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a new HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type historyResponse struct {
	Notes []*store.NoteEvent `json:"notes"`
}

type statsResponse struct {
	Keys []store.KeyCount `json:"keys"`
}

type sessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/history")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.notes(w, r)
	case "stats":
		h.stats(w, r)
	case "sessions":
		h.sessions(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *HistoryHandler) notes(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	notes, err := h.store.Notes().ListRecent(r.URL.Query().Get("session"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []*store.NoteEvent{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Notes: notes})
}

func (h *HistoryHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Notes().CountsByKey(r.URL.Query().Get("session"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count notes")
		return
	}
	if counts == nil {
		counts = []store.KeyCount{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Keys: counts})
}

func (h *HistoryHandler) sessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// parseLimit reads ?limit=, 0 when absent.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return 0, false
	}
	return limit, true
}
