package session

import (
	"errors"
	"strings"
)

// ErrProfileNotFound is returned by profile stores when no row exists for
// the requested user.
var ErrProfileNotFound = errors.New("session: profile not found")

// Profile is the value consumed once at login: a user identity, a role name
// and the permission set granted through that role. It is normalized from
// the profile listing served by the API.
type Profile struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// WireProfile mirrors the profile listing payload as served over HTTP.
type WireProfile struct {
	ID   string `json:"id"`
	User struct {
		Name     string `json:"name"`
		LastName string `json:"lastName"`
		Email    string `json:"email,omitempty"`
	} `json:"user"`
	Role struct {
		Name string `json:"name"`
	} `json:"role"`
	Permissions []string `json:"permissions"`
}

// Normalize converts the wire shape into the flat Profile consumed by Login.
// Unknown or duplicate permission tokens are dropped so the session only
// ever holds members of the fixed vocabulary.
func (w WireProfile) Normalize() Profile {
	name := strings.TrimSpace(strings.TrimSpace(w.User.Name) + " " + strings.TrimSpace(w.User.LastName))
	return Profile{
		ID:          strings.TrimSpace(w.ID),
		UserID:      strings.TrimSpace(w.ID),
		Name:        name,
		Email:       strings.TrimSpace(strings.ToLower(w.User.Email)),
		RoleName:    strings.TrimSpace(w.Role.Name),
		Permissions: dedupePermissions(w.Permissions),
	}
}

func dedupePermissions(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || !ValidPermission(t) {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
