package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstack/internal/config"
)

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	cfg.Server.DevMode = true

	srv, err := NewServer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	assert.FileExists(t, filepath.Join(cfg.Data.DataDir, "docstack.db"))
	assert.DirExists(t, filepath.Join(cfg.Data.DataDir, "uploads"))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/reconcile", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	cfg.Server.DevMode = true

	srv, err := NewServer(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
}
