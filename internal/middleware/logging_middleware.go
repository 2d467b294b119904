// Package middleware содержит gin-middleware служебного API зоны.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/ro-zone/internal/logging"
)

// TraceIDKey ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает запрос trace-ID и пишет его в лог компонента api.
// Успешные запросы идут в Debug, ошибочные в Warn.
type RequestLogger struct {
	log *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{log: logging.GetComponentLogger(logging.ComponentAPI)}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id берём из спана otelgin, если он уже создан
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if status >= 400 {
			rl.log.Warn("[HTTP] %s %s %d %s trace=%s", c.Request.Method, path, status, time.Since(start), traceID)
			return
		}
		rl.log.Debug("[HTTP] %s %s %d %s trace=%s", c.Request.Method, path, status, time.Since(start), traceID)
	}
}
