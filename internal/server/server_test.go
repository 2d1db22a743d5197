package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"worktrack/internal/calendar"
	"worktrack/internal/config"
	"worktrack/internal/db"
	"worktrack/internal/domain"
	"worktrack/internal/engine"
	"worktrack/internal/export"
	"worktrack/internal/migrate"
)

const testJWTSecret = "test-secret"

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := engine.New(conn, config.Default(), nil, nil)
	e.Now = func() time.Time { return now }
	exportSvc := &export.Service{
		Repo:          e.Repo,
		Dir:           filepath.Join(workspace, "exports"),
		BackupDir:     filepath.Join(workspace, "backups"),
		SigningSecret: "download-secret",
		Now:           func() time.Time { return now },
	}
	calendarSvc := &calendar.Service{Engine: e, Source: calendar.StaticSource{}}
	handler, err := New(Config{
		Engine:   e,
		Export:   exportSvc,
		Calendar: calendarSvc,
		Auth:     AuthConfig{JWTSecret: testJWTSecret},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func mintToken(t *testing.T, subject, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("health body %v", body)
	}
}

func TestMissingCredentials(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v1/activities", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "unauthorized" {
		t.Fatalf("error code %q", env.Error.Code)
	}
}

func TestBadTokenRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v1/activities", nil,
		authHeaders("not-a-jwt"))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "invalid_credentials" {
		t.Fatalf("error code %q", env.Error.Code)
	}
}

func TestActivityLifecycleAndAutoProvisioning(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := mintToken(t, "idp|alice", "alice@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/activities", map[string]any{
		"title":    "Kafka workshop",
		"category": "learning",
		"tags":     []string{" Kafka ", "kafka", "GO"},
		"date":     "2024-05-20",
	}, authHeaders(token))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created domain.Activity
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	if got, want := len(created.Tags), 2; got != want {
		t.Fatalf("tags %v", created.Tags)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/activities/"+created.ID, nil, authHeaders(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", res.StatusCode, string(data))
	}

	// The first authenticated request provisions the user from their claims.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/me", nil, authHeaders(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me domain.User
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal user: %v", err)
	}
	if me.Email != "alice@example.com" {
		t.Fatalf("email %q", me.Email)
	}
	if me.ID != created.UserID {
		t.Fatalf("activity owner %q, user %q", created.UserID, me.ID)
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/api/v1/activities/"+created.ID, nil, authHeaders(token))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d: %s", res.StatusCode, string(data))
	}
}

func TestCrossOwnerLooksLikeNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	alice := mintToken(t, "idp|alice", "alice@example.com")
	bob := mintToken(t, "idp|bob", "bob@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/activities", map[string]any{
		"title":    "Private activity",
		"category": "mentoring",
		"date":     "2024-05-20",
	}, authHeaders(alice))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created domain.Activity
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/activities/"+created.ID, nil, authHeaders(bob))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-owner status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("error code %q", env.Error.Code)
	}
}

func TestStoryStatusGateOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := mintToken(t, "idp|alice", "alice@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/stories", map[string]any{
		"title":     "Incident story",
		"situation": "An outage hit the primary region on a Friday",
	}, authHeaders(token))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var story domain.Story
	if err := json.Unmarshal(data, &story); err != nil {
		t.Fatalf("unmarshal story: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/stories/"+story.ID+"/status", map[string]any{
		"status": "complete",
	}, authHeaders(token))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("gate status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "bad_request" {
		t.Fatalf("error code %q", env.Error.Code)
	}
	if env.Error.Message != "story must be at least 80% complete to mark as complete" {
		t.Fatalf("error message %q", env.Error.Message)
	}
}

func TestExportDownloadSkipsAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := mintToken(t, "idp|alice", "alice@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/activities", map[string]any{
		"title":    "Exported activity",
		"category": "speaking",
		"date":     "2024-05-20",
	}, authHeaders(token))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/export", map[string]any{
		"format": "json",
	}, authHeaders(token))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("export status %d: %s", res.StatusCode, string(data))
	}
	var desc export.Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		t.Fatalf("unmarshal descriptor: %v", err)
	}

	// The signed URL authenticates itself; no token is sent.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+desc.DownloadURL, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("download status %d: %s", res.StatusCode, string(data))
	}
	var snap export.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Activities) != 1 || snap.Activities[0].Title != "Exported activity" {
		t.Fatalf("snapshot activities %v", snap.Activities)
	}
}

func TestCalendarSyncAndDecision(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := mintToken(t, "idp|alice", "alice@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/calendar/sync", map[string]any{
		"date_from": "2024-05-25",
		"date_to":   "2024-06-01",
	}, authHeaders(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sync status %d: %s", res.StatusCode, string(data))
	}
	var suggestions []domain.ActivitySuggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		t.Fatalf("unmarshal suggestions: %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("suggestions %v", suggestions)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/calendar/suggestions/missing/decision", map[string]any{
		"action": "accept",
	}, authHeaders(token))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("decision status %d: %s", res.StatusCode, string(data))
	}
}
