// Package session holds the authenticated identity, role and permission set
// for a running client, and the token plumbing the API uses to carry the
// same information per request.
//
// A Session is an explicit context object owned by the application root and
// handed to whichever component needs it. None of its operations can fail;
// they are in-memory mutations guarded by a mutex so every reader observes
// a complete login or a complete logout, never a partial one.
package session

import (
	"sort"
	"sync"
)

// User identifies the logged-in auditor.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Role names the bundle of permissions the user logged in under.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnsetRoleID is the sentinel used when a profile carries no numeric role id.
const UnsetRoleID int64 = 0

// Session is the single source of truth for "who is logged in and what they
// may do". The zero state is logged out.
type Session struct {
	mu            sync.RWMutex
	user          *User
	role          *Role
	permissions   map[string]struct{}
	authenticated bool
	loading       bool
}

// New returns a logged-out session.
func New() *Session {
	return &Session{}
}

// Login populates the session from a profile. User, role, permissions and
// the authenticated flag change together under one lock acquisition. A
// profile with an empty permission set yields a fully authenticated user
// with zero permissions.
func (s *Session) Login(p Profile) {
	perms := make(map[string]struct{}, len(p.Permissions))
	for _, token := range p.Permissions {
		perms[token] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &User{ID: p.UserID, Name: p.Name, Email: p.Email}
	s.role = &Role{ID: UnsetRoleID, Name: p.RoleName}
	s.permissions = perms
	s.authenticated = true
}

// Logout clears identity, role and permissions. Idempotent.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.role = nil
	s.permissions = nil
	s.authenticated = false
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// HasPermission is a pure membership test against the current permission
// set. Always false when logged out.
func (s *Session) HasPermission(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return false
	}
	_, ok := s.permissions[token]
	return ok
}

// HasAnyPermission reports whether the intersection of tokens and the
// current permission set is non-empty. False for an empty input and when
// logged out.
func (s *Session) HasAnyPermission(tokens ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return false
	}
	for _, token := range tokens {
		if _, ok := s.permissions[token]; ok {
			return true
		}
	}
	return false
}

// SetLoading flips the transient UI flag. Not part of the persisted or
// auth-semantic state.
func (s *Session) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading returns the transient flag set by SetLoading.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot is a consistent, immutable view of a session, suitable for route
// guards and persistence.
type Snapshot struct {
	User          *User
	Role          *Role
	Permissions   []string
	Authenticated bool
}

// HasPermission mirrors Session.HasPermission over the captured set.
func (v Snapshot) HasPermission(token string) bool {
	if !v.Authenticated {
		return false
	}
	for _, p := range v.Permissions {
		if p == token {
			return true
		}
	}
	return false
}

// Snapshot captures the whole session state under one read lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := Snapshot{Authenticated: s.authenticated}
	if s.user != nil {
		u := *s.user
		view.User = &u
	}
	if s.role != nil {
		r := *s.role
		view.Role = &r
	}
	if len(s.permissions) > 0 {
		view.Permissions = make([]string, 0, len(s.permissions))
		for p := range s.permissions {
			view.Permissions = append(view.Permissions, p)
		}
		sort.Strings(view.Permissions)
	}
	return view
}
