package pg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"auditline.org/internal/calls"
	"auditline.org/internal/directory"
	"auditline.org/internal/notify"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func callColumns() []string {
	return []string{
		"id", "call_date", "agent_name", "customer", "project_id", "team_id",
		"duration_sec", "score", "sentiment", "audio_url", "transcript", "scorecard",
	}
}

func TestListAppliesFiltersAndTotal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select count\(\*\) from calls`).
		WithArgs("%smith%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(27))

	transcript, _ := json.Marshal([]calls.TranscriptTurn{{Index: 0, Speaker: "agent", Text: "hello"}})
	rows := sqlmock.NewRows(callColumns()).
		AddRow("01J3", time.Now().UTC(), "Jane Smith", "Acme", nil, nil,
			312.5, 87.0, "positive", "https://cdn/audio/01J3.mp3", transcript, []byte("[]"))
	mock.ExpectQuery(`select id, call_date, agent_name`).
		WithArgs("%smith%", 10, 10).
		WillReturnRows(rows)

	f := calls.Filters{Page: 2, PageSize: 10, SortBy: "score", SortOrder: calls.SortAsc, Search: "smith"}
	page, err := store.List(context.Background(), f)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 27 {
		t.Fatalf("expected total 27, got %d", page.Total)
	}
	if page.Page != 2 || page.PageSize != 10 {
		t.Fatalf("unexpected paging: %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].AgentName != "Jane Smith" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	if len(page.Items[0].Transcript) != 1 || page.Items[0].Transcript[0].Text != "hello" {
		t.Fatalf("transcript not decoded: %+v", page.Items[0].Transcript)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetCallNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`select id, call_date, agent_name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(callColumns()))

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCallValidation(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.Create(context.Background(), calls.Call{AgentName: "  "})
	if !errors.Is(err, calls.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAttachAudioMissingCall(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`update calls set audio_url`).
		WithArgs("missing", "https://cdn/a.mp3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.AttachAudio(context.Background(), "missing", "https://cdn/a.mp3")
	if !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRoleDecodesPermissions(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "permissions", "created_at", "updated_at"}).
		AddRow("r1", "QA Analyst", "", []byte(`["monitor","score"]`), now, now)
	mock.ExpectQuery(`select id, name, description, permissions`).
		WithArgs("r1").
		WillReturnRows(rows)

	role, err := store.GetRole(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	if len(role.Permissions) != 2 || role.Permissions[0] != "monitor" {
		t.Fatalf("unexpected permissions: %v", role.Permissions)
	}
}

func TestSetRolePermissionsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`update roles set permissions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetRolePermissions(context.Background(), "missing", []string{"monitor"})
	if !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationsAfter(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "kind", "message", "read", "created_at"}).
		AddRow("01A", "call.scored", "Call 42 scored", false, now).
		AddRow("01B", "call.uploaded", "New call uploaded", false, now)
	mock.ExpectQuery(`select id, kind, message, read, created_at`).
		WithArgs("019", 100).
		WillReturnRows(rows)

	items, err := store.NotificationsAfter(context.Background(), "019", 0)
	if err != nil {
		t.Fatalf("NotificationsAfter: %v", err)
	}
	if len(items) != 2 || items[0].ID != "01A" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestMarkNotificationReadMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`update notifications set read`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkNotificationRead(context.Background(), "missing")
	if !errors.Is(err, notify.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProfilesDecodesPermissions(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "email", "role_name", "permissions"}).
		AddRow("p1", "u-1", "Dana Reyes", "dana@example.com", "QA Analyst", []byte(`["monitor","score"]`)).
		AddRow("p2", "u-2", "Sam Okoye", "sam@example.com", "Supervisor", []byte(`[]`))
	mock.ExpectQuery(`select id, user_id, name, email, role_name, permissions`).
		WillReturnRows(rows)

	profiles, err := store.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].UserID != "u-1" || len(profiles[0].Permissions) != 2 {
		t.Fatalf("unexpected profile: %+v", profiles[0])
	}
}
