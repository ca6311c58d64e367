// Package server_test provides unit tests for the HTTP server package.
package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retreivo/matchengine/internal/config"
	"github.com/retreivo/matchengine/internal/engine"
	"github.com/retreivo/matchengine/internal/server"
	"github.com/retreivo/matchengine/internal/storage/sqlite"
	"github.com/retreivo/matchengine/web/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer starts a server backed by a temp-file SQLite store and
// returns the base URL. Cleanup is registered with t.Cleanup.
func startTestServer(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	cfg.Server.Port = 0 // random port for tests
	if cfg.Server.RateLimitPerSec == 0 {
		cfg.Server.RateLimitPerSec = 100
		cfg.Server.RateLimitBurst = 200
	}

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "matchengine_test.db"))
	require.NoError(t, err, "failed to create SQLite store")

	similarity := engine.NewSimilarityEngine(nil, nil)
	fraud := engine.NewFraudEngine(engine.DefaultRules(), nil)
	analyzer := engine.NewAnalyzer(similarity, fraud)
	searcher := engine.NewSearcher(store, nil)

	hub := handlers.NewClaimEventHub(server.AllowedOrigins(cfg))
	api := handlers.NewAPIHandlers(handlers.APIDeps{
		Features: store,
		Claims:   store,
		Analyzer: analyzer,
		Fraud:    fraud,
		Searcher: searcher,
		Hub:      hub,
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	addrChan := make(chan string, 1)
	go func() {
		addrChan <- server.Start(ctx, cfg, api, hub)
	}()

	var addr string
	select {
	case addr = <-addrChan:
	case <-time.After(5 * time.Second):
		cancel()
		_ = store.Close()
		t.Fatal("server did not start within timeout")
	}

	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
		_ = store.Close()
	})

	return "http://" + addr
}

func devConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Storage: config.StorageConfig{
			DataPath: t.TempDir(),
		},
		Security: config.SecurityConfig{
			SecurityMode: "development",
		},
	}
}

// TestServer_StartsOnRandomPort verifies the server starts on port 0 and
// reports the actual bound address.
func TestServer_StartsOnRandomPort(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	require.True(t, strings.HasPrefix(baseURL, "http://"))
	addr := strings.TrimPrefix(baseURL, "http://")

	host, port, err := net.SplitHostPort(addr)
	assert.NoError(t, err, "address should be valid host:port format")
	assert.NotEmpty(t, host)
	assert.NotEqual(t, "0", port, "port should be resolved to the bound one")
}

// TestServer_HealthEndpoint verifies the health endpoint responds without auth.
func TestServer_HealthEndpoint(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 0, health.LostItems)
	assert.Equal(t, 0, health.FoundItems)
}

// TestServer_SecurityHeaders verifies security headers are set on responses.
func TestServer_SecurityHeaders(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", resp.Header.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// TestServer_APIRoute verifies an API route works end to end over HTTP.
func TestServer_APIRoute(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	body := map[string]interface{}{
		"lost_item": map[string]interface{}{
			"id": 1, "type": "lost", "name": "blue notebook",
			"category": "stationery", "description": "spiral bound notebook with a torn corner",
			"location": "main street cafe", "date": "2025-03-10",
		},
		"found_item": map[string]interface{}{
			"id": 2, "type": "found", "name": "blue notebook",
			"category": "stationery", "description": "spiral bound notebook with a torn corner",
			"location": "main street cafe", "date": "2025-03-10",
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(baseURL+"/api/match-lost-found", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var match engine.PairMatch
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&match))
	assert.InDelta(t, 100.0, match.MatchResult.MatchScore, 0.01)
}

// TestServer_APIRoute_MethodNotAllowed verifies POST-only routes reject GET.
func TestServer_APIRoute_MethodNotAllowed(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	resp, err := http.Get(baseURL + "/api/compare-items")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestServer_ProductionAuth verifies API routes enforce bearer auth in
// production mode while health stays open.
func TestServer_ProductionAuth(t *testing.T) {
	cfg := devConfig(t)
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "test-token-12345"
	baseURL := startTestServer(t, cfg)

	// Health stays unauthenticated
	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No token: rejected
	resp, err = http.Post(baseURL+"/api/compare-items", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong token: rejected
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/compare-items", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct token: accepted (bad JSON body still yields 400, not 401)
	req, err = http.NewRequest(http.MethodPost, baseURL+"/api/compare-items", strings.NewReader("not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token-12345")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestServer_UnknownAPIRoute verifies unknown API paths return 404.
func TestServer_UnknownAPIRoute(t *testing.T) {
	baseURL := startTestServer(t, devConfig(t))

	resp, err := http.Post(baseURL+"/api/does-not-exist", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestServer_GracefulShutdown verifies the server stops serving once the
// context is cancelled.
func TestServer_GracefulShutdown(t *testing.T) {
	cfg := devConfig(t)

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "matchengine_test.db"))
	require.NoError(t, err)
	defer store.Close()

	similarity := engine.NewSimilarityEngine(nil, nil)
	fraud := engine.NewFraudEngine(engine.DefaultRules(), nil)
	hub := handlers.NewClaimEventHub(nil)
	api := handlers.NewAPIHandlers(handlers.APIDeps{
		Features: store,
		Claims:   store,
		Analyzer: engine.NewAnalyzer(similarity, fraud),
		Fraud:    fraud,
		Searcher: engine.NewSearcher(store, nil),
		Hub:      hub,
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cfg.Server.RateLimitPerSec = 100
	cfg.Server.RateLimitBurst = 200
	addr := server.Start(ctx, cfg, api, hub)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	time.Sleep(300 * time.Millisecond)

	_, err = http.Get(fmt.Sprintf("http://%s/health", addr))
	assert.Error(t, err, "server should refuse connections after shutdown")
}
