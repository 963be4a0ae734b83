package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"auditline.org/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/profiles",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a.authOff {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := session.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := session.ContextWithActor(r.Context(), claims.Subject, claims.Permissions)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermissions writes a 403 and returns false unless the actor holds
// every listed token.
func (a *API) ensurePermissions(w http.ResponseWriter, r *http.Request, perms ...string) bool {
	if a.authOff {
		return true
	}
	if _, ok := session.ActorIDFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	for _, p := range perms {
		if !session.ActorHasPermission(r.Context(), p) {
			writeError(w, r, http.StatusForbidden, "missing permission: "+p)
			return false
		}
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
