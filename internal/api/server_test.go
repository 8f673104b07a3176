package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/security"
	"github.com/aideng18/PyWard/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *storage.DB) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateSchema())

	s := &Server{
		DB:              db,
		UserStore:       db,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionDuration: time.Hour,
	}
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, db
}

func addUser(t *testing.T, db *storage.DB, username, password, role string) {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	_, err = db.CreateUser(username, hash, role)
	require.NoError(t, err)
}

func login(t *testing.T, ts *httptest.Server, username, password string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(ts.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "pyward_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func doJSON(t *testing.T, method, url string, body any, cookie *http.Cookie) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestLoginBadCredentials(t *testing.T) {
	ts, db := newTestServer(t)
	addUser(t, db, "alice", "pw", storage.RoleAdmin)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	resp, err := http.Post(ts.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeAndLogout(t *testing.T) {
	ts, db := newTestServer(t)
	addUser(t, db, "alice", "pw", storage.RoleAdmin)
	cookie := login(t, ts, "alice", "pw")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/me", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, storage.RoleAdmin, body["role"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRunsEndpoints(t *testing.T) {
	ts, db := newTestServer(t)
	rep := &pysrc.Report{
		ID:        "run-7",
		StartedAt: time.Now().UTC(),
		Source:    "app.py",
		Status:    pysrc.StatusOK,
		RulesRun:  14,
		Findings: []pysrc.Finding{
			{RuleID: "WEAK-HASH", Category: pysrc.CategorySecurity, Severity: "MEDIUM", Line: 4, Message: "m"},
			{RuleID: "DANGEROUS-CALL", Category: pysrc.CategorySecurity, Severity: "HIGH", Line: 9, Message: "m"},
		},
	}
	require.NoError(t, db.SaveReport(rep))

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs/run-7", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-7", body["id"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs/latest", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-7", body["id"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs/run-7/findings?min_severity=high", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIGH", body["min_severity"])
	require.Len(t, body["items"].([]any), 1)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs/absent", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRulesInventory(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/rules", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.NotEmpty(t, items)
	ids := map[string]bool{}
	for _, it := range items {
		m := it.(map[string]any)
		ids[m["id"].(string)] = true
	}
	assert.True(t, ids["UNUSED-IMPORT"])
	assert.True(t, ids["DANGEROUS-CALL"])
}

func TestWaiverEndpointsRequireAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/waivers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWaiverCreateRequiresAdmin(t *testing.T) {
	ts, db := newTestServer(t)
	addUser(t, db, "bob", "pw", storage.RoleViewer)
	cookie := login(t, ts, "bob", "pw")

	req := map[string]string{
		"rule_id":    "WEAK-HASH",
		"reason":     "legacy checksum",
		"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers", req, cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// viewers may still list
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/waivers", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWaiverCreateAndRevoke(t *testing.T) {
	ts, db := newTestServer(t)
	addUser(t, db, "alice", "pw", storage.RoleAdmin)
	cookie := login(t, ts, "alice", "pw")

	req := map[string]string{
		"rule_id":    "PICKLE-LOAD",
		"path":       "scripts/migrate.py",
		"reason":     "trusted fixture data",
		"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers", req, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(body["id"].(float64))
	assert.Positive(t, id)

	ws, err := db.ListWaivers(true)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "alice", ws[0].CreatedBy)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers/1/revoke", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ws, err = db.ListWaivers(true)
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestWaiverCreateValidation(t *testing.T) {
	ts, db := newTestServer(t)
	addUser(t, db, "alice", "pw", storage.RoleAdmin)
	cookie := login(t, ts, "alice", "pw")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers",
		map[string]string{"rule_id": "X"}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/waivers", map[string]string{
		"rule_id": "X", "reason": "r", "expires_at": "not-a-time",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
