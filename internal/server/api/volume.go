package api

import (
	"encoding/json"
	"net/http"
)

// VolumeControl is the playback volume of the sound emitter.
type VolumeControl interface {
	Volume() float64
	SetVolume(vol float64)
}

// VolumeHandler handles GET and PUT on /api/volume. Volume is a playback
// setting and can change without an open editor.
type VolumeHandler struct {
	control VolumeControl
}

// NewVolumeHandler creates a new VolumeHandler.
func NewVolumeHandler(c VolumeControl) *VolumeHandler {
	return &VolumeHandler{control: c}
}

type volumeBody struct {
	Volume *float64 `json:"volume"`
}

func (h *VolumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w)
	case http.MethodPut:
		var req volumeBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Volume == nil {
			writeError(w, http.StatusBadRequest, "volume is required")
			return
		}
		if *req.Volume < 0 || *req.Volume > 1 {
			writeError(w, http.StatusBadRequest, "volume must be within 0-1")
			return
		}
		h.control.SetVolume(*req.Volume)
		h.respond(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *VolumeHandler) respond(w http.ResponseWriter) {
	v := h.control.Volume()
	writeJSON(w, http.StatusOK, volumeBody{Volume: &v})
}
