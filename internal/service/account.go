// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/persistorai/vitiapi/internal/domain"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// apiKeyPrefix marks keys issued by this service.
const apiKeyPrefix = "vta_"

// Compile-time check: *AccountService must satisfy domain.AccountService.
var _ domain.AccountService = (*AccountService)(nil)

var _ AccountStore = (*store.UserStore)(nil)

// AccountStore is the data-access interface AccountService depends on.
type AccountStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// KeyRevoker forgets cached authentication results for an API key hash.
type KeyRevoker interface {
	Revoke(keyHash string)
}

// Option configures an AccountService.
type Option func(*AccountService)

// WithRevoker notifies r whenever an API key stops being valid.
func WithRevoker(r KeyRevoker) Option {
	return func(s *AccountService) { s.revoker = r }
}

// WithBcryptCost overrides the bcrypt work factor.
func WithBcryptCost(cost int) Option {
	return func(s *AccountService) { s.cost = cost }
}

// AccountService handles registration, login and API key authentication.
type AccountService struct {
	store       AccountStore
	auditWorker AuditEnqueuer
	revoker     KeyRevoker
	log         *logrus.Logger
	cost        int
	now         func() time.Time

	// dummyHash is compared against when the email is unknown so login
	// latency does not reveal which accounts exist.
	dummyHash []byte
}

// NewAccountService creates an AccountService.
func NewAccountService(st AccountStore, auditWorker AuditEnqueuer, log *logrus.Logger, opts ...Option) *AccountService {
	s := &AccountService{
		store:       st,
		auditWorker: auditWorker,
		log:         log,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost) //nolint:errcheck // fixed input.

	return s
}

// Register creates an active normal account and returns it with its first API key.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.Credentials, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	apiKey := newAPIKey()
	now := s.now().UTC()

	user := &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		APIKeyHash:   store.HashAPIKey(apiKey),
		Type:         models.UserTypeNormal,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("username or email already registered: %w", err)
		}

		return nil, fmt.Errorf("creating account: %w", err)
	}

	auditAsync(s.auditWorker, "account.register", user.ID, map[string]any{"username": user.Username})

	return &models.Credentials{User: user, APIKey: apiKey}, nil
}

// Login verifies email and password, rotates the API key and records the login time.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.Credentials, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password)) //nolint:errcheck // timing only.
			return nil, models.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		auditAsync(s.auditWorker, "account.login_failed", user.ID, nil)
		return nil, models.ErrInvalidCredentials
	}

	if !user.Active {
		return nil, models.ErrAccountInactive
	}

	oldHash := user.APIKeyHash
	apiKey := newAPIKey()
	now := s.now().UTC()

	user.APIKeyHash = store.HashAPIKey(apiKey)
	user.LastLoginAt = &now
	user.UpdatedAt = now

	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("rotating api key: %w", err)
	}

	s.revoke(oldHash)
	auditAsync(s.auditWorker, "account.login", user.ID, nil)

	return &models.Credentials{User: user, APIKey: apiKey}, nil
}

// AuthenticateAPIKey returns the active user owning apiKey.
func (s *AccountService) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	user, err := s.store.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("authenticating api key: %w", err)
	}

	if !user.Active {
		return nil, models.ErrAccountInactive
	}

	return user, nil
}

// DeleteAccount removes the account and invalidates its API key.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.revoke(user.APIKeyHash)
	auditAsync(s.auditWorker, "account.delete", userID, map[string]any{"username": user.Username})
	s.log.WithField("user_id", userID).Info("account deleted")

	return nil
}

func (s *AccountService) revoke(keyHash string) {
	if s.revoker != nil && keyHash != "" {
		s.revoker.Revoke(keyHash)
	}
}

func newAPIKey() string {
	return apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}
