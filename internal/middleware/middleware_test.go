package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models"
	"prdtool/internal/httputil"
	"prdtool/internal/metrics"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(token string) (*models.SupabaseClaims, error) {
	if token != "good" {
		return nil, domain.ErrUnauthorized
	}
	claims := &models.SupabaseClaims{Role: "authenticated"}
	claims.Subject = "user-1"
	return claims, nil
}

func (fakeVerifier) Close() error { return nil }

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, httputil.GetUserID(r))
	})
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := AuthMiddleware(fakeVerifier{}, logger)(echoUser())

	tests := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"valid token", "/api/prds", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", "/api/prds", "bearer good", http.StatusOK, "user-1"},
		{"missing", "/api/prds", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/prds", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "/api/prds", "Bearer bad", http.StatusUnauthorized, ""},
		{"public health", "/health", "", http.StatusOK, ""},
		{"metrics need a token", "/metrics", "", http.StatusUnauthorized, ""},
		{"metrics with token", "/metrics", "Bearer good", http.StatusOK, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	DevAuthMiddleware("dev-user")(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "dev-user", rec.Body.String())
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequestID(Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	m := metrics.NewMetrics()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/prds/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Metrics(m)(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prds/123", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	expected := `
# HELP prdtool_http_requests_total HTTP requests, by method, route pattern and status.
# TYPE prdtool_http_requests_total counter
prdtool_http_requests_total{code="418",method="GET",route="GET /api/prds/{id}"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "prdtool_http_requests_total"))
}
