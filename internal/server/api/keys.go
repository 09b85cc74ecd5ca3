package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/keyzone"
	"github.com/ayusman/tecla/internal/piano"
)

// KeysHandler handles HTTP requests for piano keys.
type KeysHandler struct {
	board  *piano.Board
	editor *editor.Session
}

// NewKeysHandler creates a new KeysHandler. Changes are only accepted while
// sess is open; a nil sess accepts them always.
func NewKeysHandler(b *piano.Board, sess *editor.Session) *KeysHandler {
	return &KeysHandler{board: b, editor: sess}
}

// ServeHTTP routes /api/keys and /api/keys/{id}.
func (h *KeysHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/keys")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type keyResponse struct {
	ID    string `json:"id"`
	Sound string `json:"sound"`
	Zone  [4]int `json:"zone"`
}

type listKeysResponse struct {
	Keys []keyResponse `json:"keys"`
}

type createKeyRequest struct {
	ID    string `json:"id"`
	Sound string `json:"sound"`
	Zone  []int  `json:"zone"`
}

type updateKeyRequest struct {
	Sound *string `json:"sound"`
	Zone  []int   `json:"zone"`
}

// zoneFromBody reads [x1, y1, x2, y2]. Any other length is rejected.
func zoneFromBody(a []int) (keyzone.Zone, bool) {
	if len(a) != 4 {
		return keyzone.Zone{}, false
	}
	return keyzone.NewZone(a[0], a[1], a[2], a[3]), true
}

func toKeyResponse(k keyzone.Key) keyResponse {
	return keyResponse{ID: k.ID, Sound: k.Sound, Zone: k.Zone.Array()}
}

// list handles GET /api/keys.
func (h *KeysHandler) list(w http.ResponseWriter, r *http.Request) {
	keys := h.board.Keys().List()
	resp := listKeysResponse{Keys: make([]keyResponse, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, toKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/keys/{id}.
func (h *KeysHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	k, err := h.board.Keys().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Key not found")
		return
	}
	writeJSON(w, http.StatusOK, toKeyResponse(k))
}

// create handles POST /api/keys. A missing zone places the key after the
// right-most one; a missing sound defaults to "<id>.wav".
func (h *KeysHandler) create(w http.ResponseWriter, r *http.Request) {
	if !requireEditor(w, h.editor) {
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	keys := h.board.Keys()
	if _, err := keys.Get(req.ID); err == nil {
		writeError(w, http.StatusConflict, "Key already exists")
		return
	}

	sound := req.Sound
	if sound == "" {
		sound = req.ID + ".wav"
	}
	zone := keys.NextZone()
	if req.Zone != nil {
		z, ok := zoneFromBody(req.Zone)
		if !ok {
			writeError(w, http.StatusBadRequest, "zone must be [x1, y1, x2, y2]")
			return
		}
		zone = z
	}

	if err := keys.Add(req.ID, sound, zone); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, keyResponse{ID: req.ID, Sound: sound, Zone: zone.Array()})
}

// update handles PUT /api/keys/{id}. Only the fields present change.
func (h *KeysHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	if !requireEditor(w, h.editor) {
		return
	}

	var req updateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	keys := h.board.Keys()
	if req.Zone != nil {
		zone, ok := zoneFromBody(req.Zone)
		if !ok {
			writeError(w, http.StatusBadRequest, "zone must be [x1, y1, x2, y2]")
			return
		}
		if !zone.Valid() {
			writeError(w, http.StatusBadRequest, keyzone.ErrInvalidZone.Error())
			return
		}
		if err := keys.UpdateZone(id, zone); err != nil {
			h.writeKeyError(w, err)
			return
		}
	}
	if req.Sound != nil {
		if err := keys.UpdateSound(id, *req.Sound); err != nil {
			h.writeKeyError(w, err)
			return
		}
	}

	k, err := keys.Get(id)
	if err != nil {
		h.writeKeyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toKeyResponse(k))
}

// delete handles DELETE /api/keys/{id}.
func (h *KeysHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if !requireEditor(w, h.editor) {
		return
	}

	if err := h.board.Keys().Remove(id); err != nil {
		h.writeKeyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KeysHandler) writeKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, keyzone.ErrNotFound):
		writeError(w, http.StatusNotFound, "Key not found")
	case errors.Is(err, keyzone.ErrInvalidZone), errors.Is(err, keyzone.ErrEmptyID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update key")
	}
}
