package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/piano"
)

// LayoutHandler serves the whole layout and saves or loads it from disk.
//
//	GET  /api/layout       current layout in the file format
//	POST /api/layout/save  write the layout to disk
//	POST /api/layout/load  replace the board from disk
type LayoutHandler struct {
	board  *piano.Board
	editor *editor.Session
	path   string
}

// NewLayoutHandler creates a handler saving to and loading from path by default.
func NewLayoutHandler(b *piano.Board, sess *editor.Session, path string) *LayoutHandler {
	return &LayoutHandler{board: b, editor: sess, path: path}
}

type layoutFileRequest struct {
	Path string `json:"path"`
}

type layoutFileResponse struct {
	Path string `json:"path"`
	Keys int    `json:"keys"`
}

func (h *LayoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/layout")
	action = strings.TrimPrefix(action, "/")

	switch action {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r)
	case "save":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.save(w, r)
	case "load":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.load(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LayoutHandler) get(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := config.Encode(&buf, h.board.Snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode layout")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// save handles POST /api/layout/save.
func (h *LayoutHandler) save(w http.ResponseWriter, r *http.Request) {
	path, ok := h.requestPath(w, r)
	if !ok {
		return
	}

	l := h.board.Snapshot()
	if err := config.Save(path, l); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to save layout")
		writeError(w, http.StatusInternalServerError, "Failed to save layout")
		return
	}

	log.Info().Str("path", path).Int("keys", len(l.Keys)).Msg("Saved layout")
	writeJSON(w, http.StatusOK, layoutFileResponse{Path: path, Keys: len(l.Keys)})
}

// load handles POST /api/layout/load. A malformed file leaves the board
// unchanged.
func (h *LayoutHandler) load(w http.ResponseWriter, r *http.Request) {
	if !requireEditor(w, h.editor) {
		return
	}
	path, ok := h.requestPath(w, r)
	if !ok {
		return
	}

	l, err := config.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "Layout file not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.board.Apply(l); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Info().Str("path", path).Int("keys", len(l.Keys)).Msg("Loaded layout")
	writeJSON(w, http.StatusOK, layoutFileResponse{Path: path, Keys: len(l.Keys)})
}

// requestPath reads the optional path from the body, falling back to the
// configured layout file.
func (h *LayoutHandler) requestPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req layoutFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return "", false
	}
	if req.Path == "" {
		return h.path, true
	}
	return req.Path, true
}
