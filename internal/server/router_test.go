package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatdoc/flatdoc/internal/config"
	"github.com/flatdoc/flatdoc/internal/docstore"
	"github.com/flatdoc/flatdoc/internal/server/handlers"
)

func newTestServer(t *testing.T) (*httptest.Server, *docstore.Store) {
	t.Helper()
	store, err := docstore.Open(filepath.Join(t.TempDir(), "store.json"), nil)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.SessionTTL = time.Hour
	cfg.RateLimit = config.RateLimit{RequestsPerMinute: 6000, Burst: 1000}
	srv := httptest.NewServer(NewRouter(store, cfg))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

// login creates the user when absent, then logs it in.
func login(t *testing.T, srv *httptest.Server, store *docstore.Store, email, role string) string {
	t.Helper()
	ctx := t.Context()
	user, err := store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	if user == nil {
		_, err = store.CreateUser(ctx, docstore.UserInput{Email: email, Name: "Test", Role: role})
		require.NoError(t, err)
	}
	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/auth/login", "", map[string]any{"email": email})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, "GET", srv.URL+"/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestItemReadIsPublic(t *testing.T) {
	srv, store := newTestServer(t)
	item, err := store.CreateItem(t.Context(), docstore.ItemInput{Name: "Pen", Description: "Ballpoint", Price: 1.99, Category: "stationery"})
	require.NoError(t, err)

	resp, body := doJSON(t, "GET", srv.URL+"/api/v1/items/"+item.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pen", body["name"])
	assert.Equal(t, 1.99, body["price"])

	resp, body = doJSON(t, "GET", srv.URL+"/api/v1/items?category=stationery", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
}

func TestItemMutationRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/items", "", map[string]any{"name": "Pen", "price": 1.99})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateItemAuthenticated(t *testing.T) {
	srv, store := newTestServer(t)
	token := login(t, srv, store, "alice@example.com", "user")

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/items", token, map[string]any{
		"name": "Pen", "description": "Ballpoint", "price": 1.99, "category": "stationery",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["inStock"])
	assert.NotEmpty(t, body["createdBy"])
}

func TestValidationErrorsCarryViolations(t *testing.T) {
	srv, store := newTestServer(t)
	token := login(t, srv, store, "alice@example.com", "user")

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/items", token, map[string]any{
		"name": "", "price": 1.999,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "expected details in %v", body)
	violations, ok := details["violations"].([]any)
	require.True(t, ok)
	// name, description, and price decimals each contribute one violation.
	assert.Len(t, violations, 3)
}

func TestMissingItemIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, "GET", srv.URL+"/api/v1/items/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	srv, store := newTestServer(t)
	userToken := login(t, srv, store, "alice@example.com", "user")
	adminToken := login(t, srv, store, "root@example.com", "admin")

	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/users", userToken, map[string]any{
		"email": "bob@example.com", "name": "Bob",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/users", adminToken, map[string]any{
		"email": "bob@example.com", "name": "Bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user", body["role"])

	resp, _ = doJSON(t, "POST", srv.URL+"/api/v1/users", adminToken, map[string]any{
		"email": "Bob@Example.com", "name": "Bob Again",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdminMaintenanceRoutes(t *testing.T) {
	srv, store := newTestServer(t)
	adminToken := login(t, srv, store, "root@example.com", "admin")

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/admin/backup", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	backupPath, _ := body["path"].(string)
	require.NotEmpty(t, backupPath)

	resp, body = doJSON(t, "POST", srv.URL+"/api/v1/admin/restore", adminToken, map[string]any{"path": backupPath})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doJSON(t, "POST", srv.URL+"/api/v1/admin/migrate", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, store := newTestServer(t)
	token := login(t, srv, store, "alice@example.com", "user")

	resp, _ := doJSON(t, "GET", srv.URL+"/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["loggedOut"])

	resp, _ = doJSON(t, "GET", srv.URL+"/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginUnknownEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/auth/login", "", map[string]any{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimiterDeniesAfterBurst(t *testing.T) {
	l := NewRateLimiter(60, 3)
	for i := range 3 {
		assert.True(t, l.allow("1.2.3.4"), "request %d should pass", i)
	}
	assert.False(t, l.allow("1.2.3.4"))
	// Other clients have their own bucket.
	assert.True(t, l.allow("5.6.7.8"))
}

func TestContextHelpers(t *testing.T) {
	ctx := t.Context()
	assert.Nil(t, handlers.UserFrom(ctx))
	assert.Empty(t, handlers.SessionTokenFrom(ctx))

	u := &docstore.User{ID: "u1"}
	ctx = handlers.WithUser(ctx, u)
	ctx = handlers.WithSessionToken(ctx, "tok")
	assert.Same(t, u, handlers.UserFrom(ctx))
	assert.Equal(t, "tok", handlers.SessionTokenFrom(ctx))
}
