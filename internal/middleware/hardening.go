package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key for the server-generated request ID.
	RequestIDKey = "request_id"

	// ClientRequestIDKey holds the X-Request-ID a client sent, if any.
	ClientRequestIDKey = "client_request_id"

	// RequestIDHeader carries the request ID on responses.
	RequestIDHeader = "X-Request-ID"
)

// RequestID assigns every request a fresh UUID and echoes it in the response.
// A client-supplied X-Request-ID is kept under ClientRequestIDKey for the
// access log and never becomes the canonical ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			c.Set(ClientRequestIDKey, truncate(clientID, 128))
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// apiHeaders suit a JSON-only API that is never framed or rendered as HTML.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets the response headers in apiHeaders. HSTS is only sent
// on TLS connections since the server normally listens on loopback.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range apiHeaders {
			c.Header(h[0], h[1])
		}
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		c.Next()
	}
}

// MaxBodySize rejects bodies larger than maxBytes. A declared Content-Length
// over the limit fails fast with 413; undeclared bodies are capped while read.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")

			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
