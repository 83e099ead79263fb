package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/di"
	"chatbot-api/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Chat.DefaultSessionID = config.DefaultSessionID
	cfg.Chat.HistoryFile = filepath.Join(dir, "chat_history.json")
	cfg.Logging.File = filepath.Join(dir, "chatbot_api.log")

	container, err := di.New(cfg, logger.GetGlobal(), llm.NewMockClient(llm.MockResponse{Content: "reply"}))
	require.NoError(t, err)

	r := New(container)
	r.SetupRoutes()
	return r
}

func TestRouterServesHealth(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chatbot API is running")
}

func TestRouterServesMetrics(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterSetsRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
