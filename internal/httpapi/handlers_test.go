package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"auditline.org/internal/calls"
	"auditline.org/internal/directory"
	"auditline.org/internal/notify"
	"auditline.org/internal/session"
)

type memProfiles struct {
	mu    sync.Mutex
	items map[string]session.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: make(map[string]session.Profile)}
}

func (m *memProfiles) SaveProfile(_ context.Context, p session.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.UserID] = p
	return nil
}

func (m *memProfiles) GetProfile(_ context.Context, userID string) (session.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[userID]
	if !ok {
		return session.Profile{}, session.ErrProfileNotFound
	}
	return p, nil
}

func (m *memProfiles) ListProfiles(_ context.Context) ([]session.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]session.Profile, 0, len(m.items))
	for _, p := range m.items {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("AUDITLINE_AUTH_SECRET", "test-secret")
	session.ResetSecretForTests()

	dir, err := directory.NewService(directory.NewMemory())
	if err != nil {
		t.Fatalf("directory.NewService: %v", err)
	}
	api := New(Config{
		Version:   "test",
		Calls:     calls.NewInMemory(),
		Directory: dir,
		Feed:      notify.NewFeed(),
		Profiles:  newMemProfiles(),
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (c *apiClient) decode(resp *http.Response, dst any) {
	c.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		c.t.Fatalf("decode response: %v", err)
	}
}

// token issues a bearer token for a profile holding the given permissions.
func (c *apiClient) token(permissions ...string) string {
	c.t.Helper()
	wire := map[string]any{
		"id": "u-100",
		"user": map[string]any{
			"name":     "Dana",
			"lastName": "Reyes",
			"email":    "dana@example.com",
		},
		"role":        map[string]any{"name": "QA Analyst"},
		"permissions": permissions,
	}
	resp := c.do(http.MethodPost, "/v1/auth/token", wire, nil)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.t.Fatalf("token issue failed: %d %s", resp.StatusCode, body)
	}
	var tr tokenResponse
	c.decode(resp, &tr)
	return tr.Token
}

func auth(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestHealthz(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodGet, "/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	c.decode(resp, &body)
	if body["service"] != "auditline-api" {
		t.Fatalf("unexpected service: %v", body["service"])
	}
}

func TestAuthTokenIssuesProfileToken(t *testing.T) {
	c := newTestAPI(t)
	wire := map[string]any{
		"id": "u-7",
		"user": map[string]any{
			"name":     "Sam",
			"lastName": "Okoye",
		},
		"role":        map[string]any{"name": "Supervisor"},
		"permissions": []string{"Monitor", "monitor", "bogus", "score"},
	}
	resp := c.do(http.MethodPost, "/v1/auth/token", wire, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var tr tokenResponse
	c.decode(resp, &tr)
	if tr.Token == "" {
		t.Fatal("expected token")
	}
	if tr.Profile.Name != "Sam Okoye" {
		t.Fatalf("unexpected profile name: %q", tr.Profile.Name)
	}
	if len(tr.Profile.Permissions) != 2 {
		t.Fatalf("expected normalized permissions, got %v", tr.Profile.Permissions)
	}
}

func TestAuthTokenRequiresProfileID(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodPost, "/v1/auth/token", map[string]any{"id": "  "}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodGet, "/v1/calls", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRouteRejectsGarbageToken(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodGet, "/v1/calls", nil, auth("not-a-token"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPermissionGatePerRoute(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("monitor")

	resp := c.do(http.MethodGet, "/v1/calls", nil, auth(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("monitor should read calls, got %d", resp.StatusCode)
	}

	resp = c.do(http.MethodPost, "/v1/calls", map[string]any{"agent_name": "Kim"}, auth(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("monitor must not upload calls, got %d", resp.StatusCode)
	}
}

func TestCallLifecycle(t *testing.T) {
	c := newTestAPI(t)
	uploader := c.token("upload", "monitor")

	created := calls.Call{}
	resp := c.do(http.MethodPost, "/v1/calls", map[string]any{
		"agent_name":   "Kim Lee",
		"customer":     "Acme",
		"duration_sec": 184.2,
		"score":        91.5,
	}, auth(uploader))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Fatal("expected Location header")
	}
	c.decode(resp, &created)
	if created.ID == "" {
		t.Fatal("expected assigned call id")
	}

	resp = c.do(http.MethodGet, "/v1/calls/"+created.ID, nil, auth(uploader))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got calls.Call
	c.decode(resp, &got)
	if got.AgentName != "Kim Lee" {
		t.Fatalf("unexpected call: %+v", got)
	}

	resp = c.do(http.MethodPut, "/v1/calls/"+created.ID+"/audio",
		map[string]any{"audio_url": "https://cdn.example.com/a.mp3"}, auth(uploader))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attach audio: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// audio redirect
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	req, _ := http.NewRequest(http.MethodGet, c.baseURL+"/v1/calls/"+created.ID+"/audio", nil)
	req.Header.Set("Authorization", "Bearer "+uploader)
	redirResp, err := noRedirect.Do(req)
	if err != nil {
		t.Fatalf("audio request: %v", err)
	}
	defer redirResp.Body.Close()
	if redirResp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", redirResp.StatusCode)
	}
	if loc := redirResp.Header.Get("Location"); loc != "https://cdn.example.com/a.mp3" {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestCallListParsesFilters(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("upload", "monitor")

	for _, agent := range []string{"Ann", "Bob", "Cal"} {
		resp := c.do(http.MethodPost, "/v1/calls", map[string]any{
			"agent_name": agent, "duration_sec": 60,
		}, auth(token))
		resp.Body.Close()
	}

	q := url.Values{}
	q.Set("page", "1")
	q.Set("page_size", "2")
	q.Set("sort_by", "agent")
	q.Set("sort_order", "asc")
	resp := c.do(http.MethodGet, "/v1/calls?"+q.Encode(), nil, auth(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page calls.Page
	c.decode(resp, &page)
	if page.Total != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].AgentName != "Ann" {
		t.Fatalf("expected agent-asc order, got %q", page.Items[0].AgentName)
	}
}

func TestWaveformEndpoint(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("upload", "monitor")

	var created calls.Call
	resp := c.do(http.MethodPost, "/v1/calls", map[string]any{"agent_name": "Kim"}, auth(token))
	c.decode(resp, &created)

	resp = c.do(http.MethodGet, "/v1/calls/"+created.ID+"/waveform?bars=32", nil, auth(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		CallID string    `json:"call_id"`
		Bars   []float64 `json:"bars"`
	}
	c.decode(resp, &body)
	if len(body.Bars) != 32 {
		t.Fatalf("expected 32 bars, got %d", len(body.Bars))
	}

	resp = c.do(http.MethodGet, "/v1/calls/"+created.ID+"/waveform?bars=0", nil, auth(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bars=0, got %d", resp.StatusCode)
	}

	resp = c.do(http.MethodGet, "/v1/calls/missing/waveform", nil, auth(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown call, got %d", resp.StatusCode)
	}
}

func TestNotificationsLongPoll(t *testing.T) {
	c := newTestAPI(t)
	publisher := c.token("users", "monitor")

	resp := c.do(http.MethodPost, "/v1/notifications", map[string]any{
		"kind": "call.scored", "message": "Call 42 scored",
	}, auth(publisher))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish: expected 201, got %d", resp.StatusCode)
	}
	var published notify.Notification
	c.decode(resp, &published)

	resp = c.do(http.MethodGet, "/v1/notifications?wait_ms=0", nil, auth(publisher))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("poll: expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Items []notify.Notification `json:"items"`
	}
	c.decode(resp, &body)
	if len(body.Items) != 1 || body.Items[0].ID != published.ID {
		t.Fatalf("unexpected items: %+v", body.Items)
	}

	// A cursor at the newest item drains the feed.
	resp = c.do(http.MethodGet, "/v1/notifications?id_gt="+published.ID+"&wait_ms=0", nil, auth(publisher))
	c.decode(resp, &body)
	if len(body.Items) != 0 {
		t.Fatalf("expected empty poll past cursor, got %+v", body.Items)
	}
}

func TestNotificationsLongPollWakesOnPublish(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("users")

	done := make(chan []notify.Notification, 1)
	go func() {
		resp := c.do(http.MethodGet, "/v1/notifications?wait_ms=2000", nil, auth(token))
		var body struct {
			Items []notify.Notification `json:"items"`
		}
		c.decode(resp, &body)
		done <- body.Items
	}()

	time.Sleep(50 * time.Millisecond)
	resp := c.do(http.MethodPost, "/v1/notifications", map[string]any{
		"kind": "call.uploaded", "message": "fresh",
	}, auth(token))
	resp.Body.Close()

	select {
	case items := <-done:
		if len(items) != 1 || items[0].Message != "fresh" {
			t.Fatalf("unexpected items: %+v", items)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("long poll did not wake on publish")
	}
}

func TestDirectoryFlow(t *testing.T) {
	c := newTestAPI(t)
	admin := c.token("companies", "teams", "projects", "roles")

	var company directory.Company
	resp := c.do(http.MethodPost, "/v1/companies", map[string]any{"name": "Acme"}, auth(admin))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create company: expected 201, got %d", resp.StatusCode)
	}
	c.decode(resp, &company)

	resp = c.do(http.MethodPost, "/v1/companies/"+company.ID+"/teams", map[string]any{"name": "Support"}, auth(admin))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d", resp.StatusCode)
	}

	var role directory.RoleDef
	resp = c.do(http.MethodPost, "/v1/roles", map[string]any{"name": "QA Analyst"}, auth(admin))
	c.decode(resp, &role)

	resp = c.do(http.MethodPut, "/v1/roles/"+role.ID+"/permissions",
		map[string]any{"permissions": []string{"monitor", "score"}}, auth(admin))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set permissions: expected 204, got %d", resp.StatusCode)
	}

	resp = c.do(http.MethodGet, "/v1/roles/"+role.ID, nil, auth(admin))
	c.decode(resp, &role)
	if len(role.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %v", role.Permissions)
	}

	resp = c.do(http.MethodDelete, "/v1/companies/"+company.ID, nil, auth(admin))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete company: expected 204, got %d", resp.StatusCode)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("monitor", "score")

	resp := c.do(http.MethodGet, "/v1/profiles/me", nil, auth(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var p session.Profile
	c.decode(resp, &p)
	if p.UserID != "u-100" || p.RoleName != "QA Analyst" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if len(p.Permissions) != 2 {
		t.Fatalf("unexpected permissions: %v", p.Permissions)
	}
}

func TestProfileListingIsPublic(t *testing.T) {
	c := newTestAPI(t)
	// Issuing a token stores the profile the list will show.
	c.token("monitor")

	resp := c.do(http.MethodGet, "/v1/profiles", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unauthenticated listing: expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Items []session.Profile `json:"items"`
	}
	c.decode(resp, &body)
	if len(body.Items) != 1 || body.Items[0].UserID != "u-100" {
		t.Fatalf("unexpected listing: %+v", body.Items)
	}

	// The actor's own profile stays behind authentication.
	resp = c.do(http.MethodGet, "/v1/profiles/me", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for /me without token, got %d", resp.StatusCode)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("users")

	resp := c.do(http.MethodPost, "/v1/notifications", map[string]any{
		"kind": "call.scored", "message": "Call 7 scored",
	}, auth(token))
	var published notify.Notification
	c.decode(resp, &published)

	resp = c.do(http.MethodPost, "/v1/notifications/"+published.ID+"/read", nil, auth(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("mark read: expected 204, got %d", resp.StatusCode)
	}

	resp = c.do(http.MethodGet, "/v1/notifications?wait_ms=0", nil, auth(token))
	var body struct {
		Items []notify.Notification `json:"items"`
	}
	c.decode(resp, &body)
	if len(body.Items) != 1 || !body.Items[0].Read {
		t.Fatalf("expected read flag set, got %+v", body.Items)
	}

	resp = c.do(http.MethodPost, "/v1/notifications/no-such-id/read", nil, auth(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestDirectoryForbiddenWithoutPermission(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("monitor")
	resp := c.do(http.MethodPost, "/v1/companies", map[string]any{"name": "Acme"}, auth(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestWaitMsValidation(t *testing.T) {
	c := newTestAPI(t)
	token := c.token("monitor")
	resp := c.do(http.MethodGet, "/v1/notifications?wait_ms="+strconv.Itoa(-5), nil, auth(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
