package route

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bassista/go_fest/internal/app"
	"github.com/bassista/go_fest/internal/config"
	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/scheduledata"
	"github.com/bassista/go_fest/internal/wpapi"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamSchedule = `[
	{"id":"e1","title":"Opening Set","startTime":"2026-08-29T18:00:00Z","endTime":"2026-08-29T19:00:00Z","stage":"Main Stage","category":"Music"},
	{"id":"e2","title":"Poetry Hour","startTime":"2026-08-29T15:00:00Z","endTime":"2026-08-29T16:00:00Z","stage":"Tent","category":"Talk"}
]`

func newTestEngine(t *testing.T) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events":
			_, _ = w.Write([]byte(upstreamSchedule))
		case "/changes":
			_, _ = w.Write([]byte(`{"version":1,"lastUpdated":"2026-08-28T12:00:00Z"}`))
		case "/announcements":
			_, _ = w.Write([]byte(`{"announcements":[{"id":"a1","title":"Gates open","priority":"general","publishedAt":"2026-08-29T12:00:00Z","eventId":"e1"}]}`))
		case "/venues":
			_, _ = w.Write([]byte(`[{"id":"v1","name":"Main Stage","lat":47.6,"lng":-122.3}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 2 * time.Second, CORSAllowedOrigins: "http://localhost:3000"},
		API:     config.APIConfig{BaseURL: upstream.URL},
		Storage: config.StorageConfig{Type: config.StorageTypeMemory},
		Sync:    config.SyncConfig{PollInterval: time.Hour, ConnectivityInterval: time.Hour, TimeLocation: "UTC"},
	}
	api := wpapi.NewClient(upstream.URL, wpapi.Paths{
		Schedule:      "/events",
		Changes:       "/changes",
		Announcements: "/announcements",
		Venues:        "/venues",
	}, upstream.Client())

	a, err := app.New(cfg, kvstore.NewMemoryStore(), api)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	return SetupRoutes(a, logger.Logger), a
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	r, _ := newTestEngine(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"UP"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "festsync_online")
}

func TestRoutes_RefreshThenBrowse(t *testing.T) {
	r, _ := newTestEngine(t)

	w := serve(r, http.MethodPost, "/schedule/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st scheduledata.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Len(t, st.Events, 2)
	assert.Equal(t, scheduledata.PhaseFresh, st.Phase)

	w = serve(r, http.MethodGet, "/schedule/sections?mode=category&q=poetry", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Talk"`)
	assert.NotContains(t, w.Body.String(), "Opening Set")

	w = serve(r, http.MethodPost, "/favorite", `{"id":"e1","title":"Opening Set"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/calendar/favorites.ics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SUMMARY:Opening Set")

	w = serve(r, http.MethodGet, "/announcements", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"priority":"personal"`)

	w = serve(r, http.MethodGet, "/venues", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Main Stage")
}

func TestRoutes_ChangeCheck(t *testing.T) {
	r, _ := newTestEngine(t)

	w := serve(r, http.MethodPost, "/changes/check", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"needsRefresh":true,"skipped":false}`, w.Body.String())

	w = serve(r, http.MethodPost, "/changes/check", "")
	assert.JSONEq(t, `{"needsRefresh":false,"skipped":true,"reason":"min_interval"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/changes/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remoteVersion":1`)
}

func TestRoutes_CORS(t *testing.T) {
	r, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
