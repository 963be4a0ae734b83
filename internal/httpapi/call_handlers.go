package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"auditline.org/internal/calls"
	"auditline.org/internal/player"
	"auditline.org/internal/session"
)

type attachAudioRequest struct {
	AudioURL string `json:"audio_url"`
}

func (a *API) handleCalls(w http.ResponseWriter, r *http.Request) {
	if a.calls == nil {
		writeError(w, r, http.StatusServiceUnavailable, "call service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermMonitor) {
			return
		}
		f := calls.ParseFilters(r.URL.Query())
		page, err := a.calls.List(r.Context(), f)
		if err != nil {
			handleCallsError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermUpload) {
			return
		}
		var c calls.Call
		if err := decodeJSON(w, r, &c); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.calls.Create(r.Context(), c)
		if err != nil {
			handleCallsError(w, r, err)
			return
		}
		a.audit(r.Context(), "calls.create", map[string]any{
			"call_id": created.ID,
			"agent":   created.AgentName,
		})
		w.Header().Set("Location", "/v1/calls/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCallResource(w http.ResponseWriter, r *http.Request) {
	if a.calls == nil {
		writeError(w, r, http.StatusServiceUnavailable, "call service unavailable")
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/calls/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]
	switch {
	case len(parts) == 1:
		a.handleCallByID(w, r, id)
	case len(parts) == 2 && parts[1] == "waveform":
		a.handleCallWaveform(w, r, id)
	case len(parts) == 2 && parts[1] == "audio":
		a.handleCallAudio(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleCallByID(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermissions(w, r, session.PermMonitor) {
		return
	}
	c, err := a.calls.Get(r.Context(), id)
	if err != nil {
		handleCallsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

const defaultWaveformBars = 96

// handleCallWaveform serves the deterministic bar heights the player
// renders behind the seek control.
func (a *API) handleCallWaveform(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermissions(w, r, session.PermMonitor) {
		return
	}
	if _, err := a.calls.Get(r.Context(), id); err != nil {
		handleCallsError(w, r, err)
		return
	}
	bars := defaultWaveformBars
	if raw := r.URL.Query().Get("bars"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1024 {
			writeError(w, r, http.StatusBadRequest, "bars must be between 1 and 1024")
			return
		}
		bars = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call_id": id,
		"bars":    player.Waveform(id, bars),
	})
}

func (a *API) handleCallAudio(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermMonitor) {
			return
		}
		c, err := a.calls.Get(r.Context(), id)
		if err != nil {
			handleCallsError(w, r, err)
			return
		}
		if c.AudioURL == "" {
			writeError(w, r, http.StatusNotFound, "call has no audio")
			return
		}
		http.Redirect(w, r, c.AudioURL, http.StatusTemporaryRedirect)
	case http.MethodPost, http.MethodPut:
		if !a.ensurePermissions(w, r, session.PermUpload) {
			return
		}
		var req attachAudioRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.calls.AttachAudio(r.Context(), id, req.AudioURL)
		if err != nil {
			handleCallsError(w, r, err)
			return
		}
		a.audit(r.Context(), "calls.audio.attach", map[string]any{
			"call_id": id,
		})
		writeJSON(w, http.StatusOK, c)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut)
	}
}

func handleCallsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calls.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, calls.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "call not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "call operation failed")
	}
}
