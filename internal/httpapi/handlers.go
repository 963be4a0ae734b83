// Package httpapi is the HTTP surface of the audit platform.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"auditline.org/internal/audit"
	"auditline.org/internal/calls"
	"auditline.org/internal/directory"
	"auditline.org/internal/notify"
	"auditline.org/internal/obs"
	"auditline.org/internal/session"
)

// ReadyProbe reports whether downstream dependencies are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// ProfileStore persists auditor profiles between logins. ListProfiles backs
// the pre-login profile picker, so it must work without an actor.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p session.Profile) error
	GetProfile(ctx context.Context, userID string) (session.Profile, error)
	ListProfiles(ctx context.Context) ([]session.Profile, error)
}

// Config wires the API's dependencies.
type Config struct {
	Version    string
	ReadyProbe ReadyProbe
	Calls      calls.Service
	Directory  *directory.Service
	Feed       *notify.Feed
	Profiles   ProfileStore
	AuthOff    bool
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	calls      calls.Service
	directory  *directory.Service
	feed       *notify.Feed
	profiles   ProfileStore
	authOff    bool
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
		calls:      cfg.Calls,
		directory:  cfg.Directory,
		feed:       cfg.Feed,
		profiles:   cfg.Profiles,
		authOff:    cfg.AuthOff,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)
	a.mux.HandleFunc("/v1/profiles", a.handleProfiles)
	a.mux.HandleFunc("/v1/profiles/me", a.handleProfileMe)

	a.mux.HandleFunc("/v1/calls", a.handleCalls)
	a.mux.HandleFunc("/v1/calls/", a.handleCallResource)

	a.mux.HandleFunc("/v1/notifications", a.handleNotifications)
	a.mux.HandleFunc("/v1/notifications/", a.handleNotificationResource)

	a.mux.HandleFunc("/v1/companies", a.handleCompanies)
	a.mux.HandleFunc("/v1/companies/", a.handleCompanyScoped)
	a.mux.HandleFunc("/v1/teams/", a.handleTeamResource)
	a.mux.HandleFunc("/v1/projects/", a.handleProjectResource)
	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/roles/", a.handleRoleResource)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the mux wrapped with auth, logging, request IDs and
// metrics, innermost first.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "auditline-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "auditline-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
