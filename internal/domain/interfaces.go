// Package domain defines the canonical service interfaces shared by the REST
// layer and the services that implement them.
package domain

import (
	"context"

	"github.com/persistorai/vitiapi/internal/models"
)

// AccountService defines account operations.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Credentials, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Credentials, error)
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

// Auditor records security-relevant account actions.
type Auditor interface {
	RecordAudit(ctx context.Context, action string, userID int64, detail map[string]any) error
}
