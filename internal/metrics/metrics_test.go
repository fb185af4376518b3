package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveChatTurn(ModeStreaming, OutcomeComplete)
	m.ObserveChatTurn(ModeStreaming, OutcomeComplete)
	m.ObserveChatTurn(ModeNonStreaming, OutcomeError)
	m.ObserveVersionCreated(VersionRestoreBackup)
	m.ObserveDirectiveApplied()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.chatTurns.WithLabelValues(ModeStreaming, OutcomeComplete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatTurns.WithLabelValues(ModeNonStreaming, OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionsCreated.WithLabelValues(VersionRestoreBackup)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.directivesApplied))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveChatTurn(ModeStreaming, OutcomeComplete)
	m.AddStreamFragment()
	m.ObserveHTTPRequest(http.MethodGet, "/health", 200, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTPRequest(http.MethodGet, "GET /health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "prdtool_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
