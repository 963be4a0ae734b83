package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auditline.org/internal/notify"
	"auditline.org/internal/session"
)

const (
	defaultPollWait = 30 * time.Second
	maxPollWait     = 60 * time.Second
)

type publishNotificationRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// handleNotifications serves the long-poll contract: GET holds the request
// open until something newer than id_gt exists or wait_ms elapses, then
// returns whatever accumulated. POST publishes a new event to the feed.
func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if a.feed == nil {
		writeError(w, r, http.StatusServiceUnavailable, "notification feed unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r) {
			return
		}
		cursor := r.URL.Query().Get("id_gt")
		wait := defaultPollWait
		if raw := r.URL.Query().Get("wait_ms"); raw != "" {
			ms, err := strconv.Atoi(raw)
			if err != nil || ms < 0 {
				writeError(w, r, http.StatusBadRequest, "wait_ms must be a non-negative integer")
				return
			}
			wait = time.Duration(ms) * time.Millisecond
			if wait > maxPollWait {
				wait = maxPollWait
			}
		}
		items, err := a.feed.Wait(r.Context(), cursor, wait)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "notification read failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": items,
		})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermUsers) {
			return
		}
		var req publishNotificationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.Kind == "" || req.Message == "" {
			writeError(w, r, http.StatusBadRequest, "kind and message are required")
			return
		}
		n, err := a.feed.Publish(r.Context(), req.Kind, req.Message)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "notification publish failed")
			return
		}
		writeJSON(w, http.StatusCreated, n)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleNotificationResource dispatches /v1/notifications/{id}/read.
func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	if a.feed == nil {
		writeError(w, r, http.StatusServiceUnavailable, "notification feed unavailable")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermissions(w, r) {
		return
	}
	if err := a.feed.MarkRead(r.Context(), parts[0]); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "notification not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "notification update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
