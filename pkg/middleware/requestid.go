package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Key types for context values
type contextKey string

const (
	// RequestIDKey is the key for request ID values in contexts
	RequestIDKey contextKey = "requestID"
	// SessionIDKey is the key for session ID values in contexts
	SessionIDKey contextKey = "sessionID"
)

// RequestIDMiddleware adds a unique request ID to each request
// and sets it in both the context and response headers
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if request already has an ID from upstream service
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Set the request ID in the context
		ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		// Set the request ID in the response headers
		c.Header("X-Request-ID", requestID)
		c.Set("requestID", requestID)

		// Process the request
		c.Next()
	}
}

// WithSessionID adds the session ID to a context for downstream operations
func WithSessionID(parent context.Context, sessionID string) context.Context {
	return context.WithValue(parent, SessionIDKey, sessionID)
}

// GetRequestID extracts the request ID from a context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}

	return ""
}

// GetSessionID extracts the session ID from a context
func GetSessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}

	return ""
}
