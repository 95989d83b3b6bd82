// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// ErrorBody is the payload nested under "error" in every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a standardized JSON error envelope and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	body := ErrorBody{Code: code, Message: message}

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			body.RequestID = s
		}
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
