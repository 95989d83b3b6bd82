package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

// authTimingFloor is the minimum response time for rejected requests so valid
// and invalid API keys cannot be told apart by latency.
const authTimingFloor = 50 * time.Millisecond

// UserLookup resolves an API key to an active user.
type UserLookup interface {
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via Bearer token.
// If a BruteForceGuard is provided, failed attempts are tracked per key hash.
func AuthMiddleware(lookup UserLookup, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		user, err := lookup.AuthenticateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logAuthFailure(log, c, apiKey, err)

			if guard != nil {
				guard.RecordFailure(apiKey)
			}

			msg := "invalid api key"
			if errors.Is(err, models.ErrAccountInactive) {
				msg = "account is inactive"
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		if guard != nil {
			guard.ResetKey(apiKey)
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}

	user, _ := v.(*models.User)

	return user
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string, err error) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": truncateKey(apiKey),
		"reason":     err.Error(),
	}).Warn("authentication failed")
}
