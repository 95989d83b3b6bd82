package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/middleware"
)

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 1_000_000

// contextFields copies the request identifiers set by earlier middleware.
func contextFields(c *gin.Context, fields logrus.Fields) logrus.Fields {
	for _, key := range []string{middleware.RequestIDKey, middleware.ClientRequestIDKey, middleware.UserIDKey} {
		if v, ok := c.Get(key); ok {
			fields[key] = v
		}
	}
	return fields
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(contextFields(c, logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}))

		switch {
		case status >= http.StatusInternalServerError:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// recoverPanic logs a handler panic and answers with the standard error envelope.
func recoverPanic(log *logrus.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		log.WithFields(contextFields(c, logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		})).Error("handler panicked")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
