// Package guard decides whether a navigation target may render for the
// current session. The decision is a pure function of the session snapshot
// and the target's required permission; it holds no state of its own.
package guard

import "auditline.org/internal/session"

// Decision is the outcome of evaluating a navigable target.
type Decision int

const (
	// Allow renders the target.
	Allow Decision = iota
	// RedirectLogin sends the visitor to the login flow.
	RedirectLogin
	// RedirectUnauthorized sends an authenticated visitor to the
	// unauthorized page.
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Evaluate gates a target. An empty requiredPerm means the target only
// needs authentication. Unauthenticated sessions are denied to login before
// any permission is considered.
func Evaluate(view session.Snapshot, requiredPerm string) Decision {
	if !view.Authenticated {
		return RedirectLogin
	}
	if requiredPerm == "" {
		return Allow
	}
	if !view.HasPermission(requiredPerm) {
		return RedirectUnauthorized
	}
	return Allow
}
