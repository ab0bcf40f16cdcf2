package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/shared/testutil"
	ws "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/websocket"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.Path = testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q2", "2024Q3", "2024Q4"))
	cfg.Logging.Level = "error"
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *httptest.Server) {
	t.Helper()
	a, err := NewApplication(cfg, io.Discard)
	require.NoError(t, err)

	a.WebSocketHub.Start()
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		a.WebSocketHub.Stop()
		a.OTelProviders.Shutdown(context.Background())
	})
	return a, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/health", http.StatusOK, "application/json"},
		{"/api/health/ready", http.StatusOK, "application/json"},
		{"/api/health/live", http.StatusOK, "application/json"},
		{"/api/version", http.StatusOK, "application/json"},
		{"/api/dashboard", http.StatusOK, "application/json"},
		{"/api/dashboard/kpis", http.StatusOK, "application/json"},
		{"/api/dashboard/series/credit_score", http.StatusOK, "application/json"},
		{"/api/dashboard/charts/balances.svg", http.StatusOK, "image/svg+xml"},
		{"/api/dataset", http.StatusOK, "application/json"},
		{"/api/dataset/summary", http.StatusOK, "application/json"},
		{"/api/dataset/export.xlsx", http.StatusOK, "application/vnd.openxmlformats"},
		{"/api/nope", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, body)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	get(t, srv.URL+"/api/dashboard/kpis")
	get(t, srv.URL+"/api/dashboard/kpis")

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "dataset_loads_total")
	assert.Contains(t, body, "dataset_cache_hits_total")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Enabled = false
	_, srv := newTestApp(t, cfg)

	resp, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvalidateBroadcastsOverWebSocket(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeConnection, msg.Type)

	resp, err := http.Post(srv.URL+"/api/dataset/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeDataUpdate, msg.Type)
	assert.Equal(t, ws.ActionRefresh, msg.Action)

	data, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source"`)
}

func TestStartAndStop(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApplication(cfg, io.Discard)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	a.Start(context.Background(), ln, errCh)

	resp, _ := get(t, "http://"+ln.Addr().String()+"/api/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, a.DashboardService.CacheStats().Entries, "dataset should be preloaded")

	require.NoError(t, a.Stop(context.Background()))
	select {
	case err := <-errCh:
		t.Fatalf("unexpected serve error: %v", err)
	default:
	}
}
