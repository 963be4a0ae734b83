package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Storage namespaces. Each blob is read whole and written whole; there are
// no partial-field updates at the storage layer.
const (
	StateNamespace = "auditline.session"

	stateFilePerm = 0o600
)

// State is the persisted subset of a session: identity, role and permission
// set. Transient flags (loading) are excluded.
type State struct {
	User        *User    `json:"user"`
	Role        *Role    `json:"role"`
	Permissions []string `json:"permissions"`
}

// StatePath returns the blob location for a state directory.
func StatePath(dir string) string {
	return filepath.Join(dir, StateNamespace+".json")
}

// Save writes the authenticated subset of the session to its namespace blob.
// Persistence is best-effort: callers log or ignore the returned error, a
// failed write never affects the in-memory session.
func Save(dir string, s *Session) error {
	view := s.Snapshot()
	if !view.Authenticated {
		if err := os.Remove(StatePath(dir)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	state := State{User: view.User, Role: view.Role, Permissions: view.Permissions}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(StatePath(dir), data, stateFilePerm)
}

// Load rehydrates a session from its namespace blob. A missing or malformed
// blob leaves the session at defaults (logged out); no error escapes.
func Load(dir string, s *Session) {
	data, err := os.ReadFile(StatePath(dir))
	if err != nil {
		return
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}
	if state.User == nil || state.User.ID == "" {
		return
	}
	profile := Profile{
		UserID:      state.User.ID,
		Name:        state.User.Name,
		Email:       state.User.Email,
		Permissions: state.Permissions,
	}
	if state.Role != nil {
		profile.RoleName = state.Role.Name
	}
	s.Login(profile)
}
