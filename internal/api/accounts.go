package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/middleware"
	"github.com/persistorai/vitiapi/internal/models"
)

// loginGuardPrefix namespaces login attempts in the brute-force guard.
const loginGuardPrefix = "login:"

// AccountHandler serves registration, login and the current account.
type AccountHandler struct {
	svc   AccountService
	guard *middleware.BruteForceGuard
	log   *logrus.Logger
}

// NewAccountHandler creates an AccountHandler. guard may be nil.
func NewAccountHandler(svc AccountService, guard *middleware.BruteForceGuard, log *logrus.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, guard: guard, log: log}
}

// Register handles POST /api/v1/accounts/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	creds, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case models.IsValidation(err):
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		case errors.Is(err, models.ErrDuplicateKey):
			respondError(c, http.StatusConflict, ErrCodeConflict, "username or email already registered")
		default:
			h.log.WithError(err).Error("registering account")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	c.JSON(http.StatusCreated, creds)
}

// Login handles POST /api/v1/accounts/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	guardKey := loginGuardPrefix + strings.ToLower(strings.TrimSpace(req.Email))
	if wait := h.lockedFor(guardKey); wait > 0 {
		middleware.SetRetryAfter(c, wait)
		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "too many failed login attempts")

		return
	}

	creds, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			if h.guard != nil {
				h.guard.RecordFailure(guardKey)
			}
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		case errors.Is(err, models.ErrAccountInactive):
			respondError(c, http.StatusForbidden, ErrCodeForbidden, "account is inactive")
		default:
			h.log.WithError(err).Error("logging in")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	if h.guard != nil {
		h.guard.ResetKey(guardKey)
	}

	c.JSON(http.StatusOK, creds)
}

// Me handles GET /api/v1/accounts/me.
func (h *AccountHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")

		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteMe handles DELETE /api/v1/accounts/me.
func (h *AccountHandler) DeleteMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")

		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "account not found")

			return
		}

		h.log.WithError(err).WithField("user_id", user.ID).Error("deleting account")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) lockedFor(key string) time.Duration {
	if h.guard == nil {
		return 0
	}
	return h.guard.LockedFor(key)
}
