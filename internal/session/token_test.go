package session

import (
	"context"
	"slices"
	"testing"
	"time"
)

func withSecret(t *testing.T) {
	t.Helper()
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndValidateToken(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken("user-42", []string{"Monitor", "score", "monitor", "bogus"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Issuer != issuer {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	want := []string{"monitor", "score"}
	if !slices.Equal(claims.Permissions, want) {
		t.Fatalf("permissions not normalized: %v, want %v", claims.Permissions, want)
	}
}

func TestGenerateTokenValidatesInput(t *testing.T) {
	withSecret(t)

	if _, err := GenerateToken("", []string{"monitor"}, time.Minute); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := GenerateToken("user-1", nil, 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestParseAndValidateRejectsGarbage(t *testing.T) {
	withSecret(t)

	for _, token := range []string{"", "  ", "not.a.jwt", "a.b"} {
		if _, err := ParseAndValidate(token); err == nil {
			t.Fatalf("expected rejection for %q", token)
		}
	}
}

func TestMissingSecretSurfaces(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("user-1", []string{"monitor"}, time.Minute); err == nil {
		t.Fatal("expected error without configured secret")
	}
}

func TestActorContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = ContextWithActor(ctx, "user-7", []string{"Monitor", "monitor", "notes"})

	id, ok := ActorIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected actor id: %s, ok=%v", id, ok)
	}
	perms := ActorPermissions(ctx)
	if len(perms) != 2 {
		t.Fatalf("expected deduplicated permissions, got %v", perms)
	}
	if !ActorHasPermission(ctx, "notes") || !ActorHasPermission(ctx, "Monitor") {
		t.Fatalf("ActorHasPermission missing expected tokens: %v", perms)
	}
	if ActorHasPermission(ctx, "users") || ActorHasPermission(ctx, "") {
		t.Fatal("unexpected permission found")
	}
	if _, ok := ActorIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not contain an actor")
	}
}
