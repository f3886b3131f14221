// Router-level tests: public vs protected routes and end-to-end auth wiring.
package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/api"
	"github.com/matiasleandrokruk/llmgate/internal/infra/config"
	"github.com/matiasleandrokruk/llmgate/internal/infra/sqlite"
	pkgauth "github.com/matiasleandrokruk/llmgate/pkg/auth"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-for-router-tests") //nolint:errcheck
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router, err := api.NewRouter(ctx, db, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRouter error = %v", err)
	}
	return router
}

func baseConfig() config.Config {
	cfg := config.Load()
	cfg.AllowedUserIDs = []string{"alice"}
	cfg.AdminUserIDs = []string{"alice"}
	return cfg
}

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, baseConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouter_APIRequiresAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, baseConfig())
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodGet, "/api/v1/plugins"},
		{http.MethodGet, "/api/v1/providers"},
		{http.MethodPost, "/api/v1/reactions"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d; want 401", route.method, route.path, rec.Code)
		}
	}
}

func TestRouter_TokenThenProtectedCall(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	hash, err := pkgauth.HashPassword("router-test-password")
	if err != nil {
		t.Fatalf("HashPassword error = %v", err)
	}
	cfg.GatewayPasswordHash = hash
	router := newTestRouter(t, cfg)

	// 1. exchange password for a token
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"user_id":"alice","password":"router-test-password"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("token status = %d; body %s", rec.Code, rec.Body.String())
	}
	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tokenResp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}

	// 2. use it on a protected route
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plugins", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("plugins status = %d; body %s", rec.Code, rec.Body.String())
	}
	// all six pipeline plugins, in registration order
	var pluginResp struct {
		Plugins []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"plugins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pluginResp); err != nil {
		t.Fatalf("decode plugin list: %v", err)
	}
	want := []string{
		"generate_picture", "listen_audio", "summarize_youtube_video",
		"watch_picture", "watch_video", "web_reader",
	}
	if len(pluginResp.Plugins) != len(want) {
		t.Fatalf("plugins = %+v; want %d entries", pluginResp.Plugins, len(want))
	}
	for i, name := range want {
		if pluginResp.Plugins[i].Name != name {
			t.Errorf("plugin[%d] = %q; want %q", i, pluginResp.Plugins[i].Name, name)
		}
	}
}

// TestRouter_PluginMutationNeedsAdmin: a non-admin token can list plugins but
// not toggle them.
func TestRouter_PluginMutationNeedsAdmin(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.AllowedUserIDs = []string{"bob"}
	cfg.AdminUserIDs = nil
	router := newTestRouter(t, cfg)

	token, err := pkgauth.GenerateJWT("bob", false)
	if err != nil {
		t.Fatalf("GenerateJWT error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plugins/web_reader/disable", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d; want 403", rec.Code)
	}
}

func TestRouter_DisabledPluginsStartDisabled(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.DisabledPlugins = []string{"web_reader"}
	router := newTestRouter(t, cfg)

	token, err := pkgauth.GenerateJWT("alice", true)
	if err != nil {
		t.Fatalf("GenerateJWT error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plugins", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp struct {
		Plugins []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"plugins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode plugin list: %v", err)
	}
	for _, p := range resp.Plugins {
		if p.Name == "web_reader" && p.Enabled {
			t.Error("web_reader enabled despite DISABLED_PLUGINS")
		}
		if p.Name != "web_reader" && !p.Enabled {
			t.Errorf("plugin %q disabled unexpectedly", p.Name)
		}
	}
}

func TestRouter_BadCapabilityFileFailsConstruction(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.CapabilityFile = "/no/such/capabilities.yaml"

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close() //nolint:errcheck

	if _, err := api.NewRouter(context.Background(), db, cfg, zerolog.Nop()); err == nil {
		t.Fatal("NewRouter with a missing capability file succeeded; want error")
	}
}
