package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/config"
	"prdtool/internal/handler"
	"prdtool/internal/httputil"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseBackend:    "memory",
		ContentBackend:     "fs",
		ContentDir:         t.TempDir(),
		DocumentLock:       "local",
		CompletionProvider: "lorem",
	}
}

func TestNew_MemoryBackends(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	backends, err := OpenBackends(context.Background(), cfg, logger)
	require.NoError(t, err)
	a, err := New(cfg, backends, logger)
	require.NoError(t, err)
	defer a.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, a.Handlers)

	r := httptest.NewRequest(http.MethodPost, "/api/prds", strings.NewReader(`{"title":"Wired"}`))
	r = httputil.WithUserID(r, "6b0b7f5e-3c3f-4a53-9a0e-4a4f8f1b2c3d")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNew_RedisLock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.DocumentLock = "redis"
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	backends, err := OpenBackends(context.Background(), cfg, logger)
	require.NoError(t, err)
	a, err := New(cfg, backends, logger)
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestOpenBackends_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown database", func(c *config.Config) { c.DatabaseBackend = "sqlite" }},
		{"postgres without url", func(c *config.Config) { c.DatabaseBackend = "postgres" }},
		{"unknown content", func(c *config.Config) { c.ContentBackend = "gcs" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := OpenBackends(context.Background(), cfg, logger)
			assert.Error(t, err)
		})
	}
}
