package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/piano"
)

// ColorsHandler handles GET and PUT on /api/colors.
type ColorsHandler struct {
	board  *piano.Board
	editor *editor.Session
}

// NewColorsHandler creates a new ColorsHandler.
func NewColorsHandler(b *piano.Board, sess *editor.Session) *ColorsHandler {
	return &ColorsHandler{board: b, editor: sess}
}

// colorsBody uses the persisted field names. Channels are [B,G,R].
type colorsBody struct {
	Normal  *config.Color `json:"normal"`
	Engaged *config.Color `json:"acionada"`
	Text    *config.Color `json:"texto"`
}

func toColorsBody(c config.Colors) colorsBody {
	return colorsBody{Normal: &c.Normal, Engaged: &c.Engaged, Text: &c.Text}
}

func (h *ColorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toColorsBody(h.board.Colors()))
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update replaces the colors present in the body and keeps the others.
func (h *ColorsHandler) update(w http.ResponseWriter, r *http.Request) {
	if !requireEditor(w, h.editor) {
		return
	}

	var req colorsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c := h.board.Colors()
	if req.Normal != nil {
		c.Normal = *req.Normal
	}
	if req.Engaged != nil {
		c.Engaged = *req.Engaged
	}
	if req.Text != nil {
		c.Text = *req.Text
	}

	if err := h.board.SetColors(c); err != nil {
		writeError(w, http.StatusBadRequest, "Color channels must be within 0-255")
		return
	}
	writeJSON(w, http.StatusOK, toColorsBody(c))
}
