package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/glossary-backend/internal/platform/ctxutil"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// RequestLogger logs one line per request with the route template and the
// project and run ids taken from the path. Event streams log when they end.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "request_id", td.RequestID, "trace_id", td.TraceID)
		}
		for param, key := range map[string]string{"id": "project_id", "runID": "run_id"} {
			if v := c.Param(param); v != "" {
				fields = append(fields, key, v)
			}
		}

		logAt(log, status)("HTTP request", fields...)
	}
}

func logAt(log *logger.Logger, status int) func(string, ...interface{}) {
	switch {
	case status >= 500:
		return log.Error
	case status >= 400:
		return log.Warn
	default:
		return log.Info
	}
}
