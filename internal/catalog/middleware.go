package catalog

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cellhub/pkg/logutils"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// RequestID tags every request with an id, reusing the caller's if sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	log := logutils.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logutils.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"took":       time.Since(start).String(),
			"request_id": c.GetString(CtxRequestIDKey),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case c.Writer.Status() >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
