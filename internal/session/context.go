package session

import (
	"context"
	"strings"
)

type ctxKey string

const (
	actorIDKey ctxKey = "session_actor_id"
	permsKey   ctxKey = "session_permissions"
)

// ContextWithActor stores the request actor's identity and granted
// permission tokens in the context.
func ContextWithActor(ctx context.Context, userID string, permissions []string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, strings.TrimSpace(userID))
	if len(permissions) > 0 {
		ctx = context.WithValue(ctx, permsKey, dedupePermissions(permissions))
	}
	return ctx
}

// ActorIDFromContext extracts the authenticated user ID from context.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorIDKey).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// ActorPermissions returns the permission tokens stored in context.
func ActorPermissions(ctx context.Context) []string {
	v, ok := ctx.Value(permsKey).([]string)
	if !ok || len(v) == 0 {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// ActorHasPermission checks whether the context actor holds the token.
func ActorHasPermission(ctx context.Context, token string) bool {
	token = strings.TrimSpace(strings.ToLower(token))
	if token == "" {
		return false
	}
	for _, p := range ActorPermissions(ctx) {
		if p == token {
			return true
		}
	}
	return false
}
