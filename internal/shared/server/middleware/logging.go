package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"persona-review/internal/shared/telemetry"
)

// Context keys handlers may set so the request log can correlate records.
const (
	DocumentIDKey       = "documentId"
	AnalysisIDKey       = "analysisId"
	ConversationIDKey   = "conversationId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits one request.complete line per request, preflights excluded.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for key, field := range map[string]string{
			DocumentIDKey:       "document_id",
			AnalysisIDKey:       "analysis_id",
			ConversationIDKey:   "conversation_id",
			StatusTransitionKey: "status_transition",
		} {
			if v := c.GetString(key); v != "" {
				fields[field] = v
			}
		}
		telemetry.Info("request.complete", fields)
	}
}
