package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/persistorai/vitiapi/internal/models"
)

// HashAPIKey returns the hex SHA-256 of an API key as stored in users.api_key_hash.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(hash[:])
}

// UserStore adds account lookups to the generic user store.
type UserStore struct {
	*RecordStore[models.User]
}

// NewUserStore creates a UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{RecordStore: NewRecordStore(base, Users)}
}

// GetByEmail returns the user with the given email or models.ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, Filter{}.Eq("email", email))
}

// GetByAPIKey returns the user owning apiKey or models.ErrNotFound.
func (s *UserStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, models.ErrNotFound
	}

	return s.first(ctx, Filter{}.Eq("api_key_hash", HashAPIKey(apiKey)))
}

func (s *UserStore) first(ctx context.Context, f Filter) (*models.User, error) {
	users, _, err := s.List(ctx, f, Page{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if len(users) == 0 {
		return nil, models.ErrNotFound
	}

	return &users[0], nil
}
