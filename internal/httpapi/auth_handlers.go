package httpapi

import (
	"errors"
	"net/http"
	"time"

	"auditline.org/internal/session"
)

type tokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   session.Profile `json:"profile"`
}

const tokenTTL = 12 * time.Hour

// handleAuthToken exchanges a profile payload for a bearer token carrying
// the profile's permission set. The profile is persisted so later sessions
// can restore it without re-sending the payload.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var wire session.WireProfile
	if err := decodeJSON(w, r, &wire); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile := wire.Normalize()
	if profile.UserID == "" {
		writeError(w, r, http.StatusBadRequest, "profile id is required")
		return
	}

	token, err := session.GenerateToken(profile.UserID, profile.Permissions, tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	if a.profiles != nil {
		if err := a.profiles.SaveProfile(r.Context(), profile); err != nil {
			writeError(w, r, http.StatusInternalServerError, "profile save failed")
			return
		}
	}

	expiresAt := time.Now().UTC().Add(tokenTTL)
	a.audit(r.Context(), "auth.token.issued", map[string]any{
		"user_id":    profile.UserID,
		"role":       profile.RoleName,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
	})
}

// handleProfiles lists every stored profile. The route is public: the login
// screen shows the list before any token exists, and picking an entry is
// what starts the token exchange.
func (a *API) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.profiles == nil {
		writeError(w, r, http.StatusServiceUnavailable, "profile store unavailable")
		return
	}
	profiles, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "profile list failed")
		return
	}
	if profiles == nil {
		profiles = []session.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": profiles,
	})
}

// handleProfileMe returns the stored profile of the authenticated actor.
func (a *API) handleProfileMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.profiles == nil {
		writeError(w, r, http.StatusServiceUnavailable, "profile store unavailable")
		return
	}
	userID, ok := session.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	profile, err := a.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrProfileNotFound) {
			writeError(w, r, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "profile load failed")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
