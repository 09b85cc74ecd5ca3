package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/tecla/internal/editor"
)

// EditorHandler opens and closes the editor session.
//
//	GET    /api/editor  session status
//	POST   /api/editor  open (409 when already open)
//	DELETE /api/editor  close
type EditorHandler struct {
	session *editor.Session
}

// NewEditorHandler creates a new EditorHandler.
func NewEditorHandler(s *editor.Session) *EditorHandler {
	return &EditorHandler{session: s}
}

func (h *EditorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.session.Status())
	case http.MethodPost:
		if err := h.session.Open(); err != nil {
			if errors.Is(err, editor.ErrAlreadyOpen) {
				writeError(w, http.StatusConflict, "Editor already open")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to open editor")
			return
		}
		writeJSON(w, http.StatusOK, h.session.Status())
	case http.MethodDelete:
		h.session.Close()
		writeJSON(w, http.StatusOK, h.session.Status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
