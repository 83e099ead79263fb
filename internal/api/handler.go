package api

import (
	"errors"
	"net/http"
	"time"

	"chatbot-api/backend/internal/chat"
	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/config"
	apperrors "chatbot-api/backend/pkg/errors"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/middleware"
	"chatbot-api/backend/pkg/observability"

	"github.com/gin-gonic/gin"
)

// availableEndpoints is returned on unmatched routes.
var availableEndpoints = []string{
	"/health",
	"/api/health",
	"/ping",
	"/api/chat",
	"/api/sessions",
	"/api/sessions/:id/clear",
	"/api/sessions/:id/messages",
	"/api/debug/logs",
}

// Handler exposes the chat service over HTTP.
type Handler struct {
	service  *chat.Service
	registry *chat.Registry
	cfg      *config.Config
	log      *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(service *chat.Service, registry *chat.Registry, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Handler{
		service:  service,
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the engine.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", h.Health)
	engine.GET("/api/health", h.Health)
	engine.GET("/ping", h.Ping)

	api := engine.Group("/api")
	{
		api.POST("/chat", h.Chat)
		api.GET("/sessions", h.ListSessions)
		api.POST("/sessions/:id/clear", h.ClearSession)
		api.GET("/sessions/:id/messages", h.SessionMessages)
		api.GET("/debug/logs", h.DebugLogs)
	}

	engine.NoRoute(h.NotFound)
}

// Health reports service liveness and the active session count.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"message":         "Chatbot API is running",
		"timestamp":       time.Now().Format(time.RFC3339),
		"active_sessions": h.registry.Count(),
	})
}

// Ping is a minimal reachability probe.
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "pong",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Chat handles one conversational exchange.
func (h *Handler) Chat(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("requestID")
	log := logger.FromContext(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid chat request body", "error", err.Error())
		observability.ChatRequests.WithLabelValues("input_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.cfg.Chat.DefaultSessionID
	}

	ctx := middleware.WithSessionID(c.Request.Context(), sessionID)

	reply, err := h.service.Converse(ctx, sessionID, req.Message)
	processingTime := time.Since(start).Seconds()

	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		observability.ChatRequests.WithLabelValues("input_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return

	case err != nil:
		observability.ChatRequests.WithLabelValues("provider_error").Inc()
		observability.ChatDuration.Observe(processingTime)

		kind := string(llm.KindProvider)
		var provErr *llm.Error
		if errors.As(err, &provErr) {
			kind = string(provErr.Kind)
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success":  false,
			"error":    err.Error(),
			"response": "Sorry, I encountered an error: " + err.Error(),
			"error_details": gin.H{
				"error":           err.Error(),
				"kind":            kind,
				"processing_time": processingTime,
				"request_id":      requestID,
			},
		})
		return
	}

	observability.ChatRequests.WithLabelValues("ok").Inc()
	observability.ChatDuration.Observe(processingTime)

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"response":        reply.Text,
		"session_id":      sessionID,
		"message_count":   reply.MessageCount,
		"processing_time": processingTime,
		"request_id":      requestID,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// ListSessions returns a snapshot of every session.
func (h *Handler) ListSessions(c *gin.Context) {
	sessions := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sessions":       sessions,
		"total_sessions": len(sessions),
	})
}

// ClearSession empties a session's transcript. Clearing an unknown session
// is a 404 and does not create it.
func (h *Handler) ClearSession(c *gin.Context) {
	sessionID := c.Param("id")

	if !h.registry.Clear(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Session " + sessionID + " not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session " + sessionID + " cleared",
	})
}

// SessionMessages returns a session's transcript, creating the session on
// first reference like any other access.
func (h *Handler) SessionMessages(c *gin.Context) {
	sessionID := c.Param("id")
	sess := h.registry.Resolve(sessionID)
	messages := sess.Messages()

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session_id":    sessionID,
		"messages":      messages,
		"message_count": len(messages),
	})
}

// DebugLogs returns the last 100 lines of the log file.
func (h *Handler) DebugLogs(c *gin.Context) {
	lines, err := logger.Tail(h.cfg.Logging.File, 100)
	if err != nil {
		appErr := apperrors.NewInternalServerError("LOG_READ_FAILED", "Failed to read log file").
			WithDetails(err.Error())
		_ = c.Error(appErr)
		return
	}
	if lines == nil {
		lines = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"logs":      lines,
		"log_count": len(lines),
	})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(c *gin.Context) {
	logger.FromContext(c).Warn("Unknown endpoint requested", "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, gin.H{
		"error":               "Endpoint not found",
		"path":                c.Request.URL.Path,
		"available_endpoints": availableEndpoints,
	})
}
