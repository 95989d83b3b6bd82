package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/vitiapi/internal/httputil"
	"github.com/persistorai/vitiapi/internal/metrics"
)

// respondError writes the shared error envelope and counts the error code.
func respondError(c *gin.Context, code int, errCode, message string) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondError(c, code, errCode, message)
}
