package models

import (
	"net/mail"
	"strings"
	"time"
)

// UserType is the account role.
type UserType string

// Account roles.
const (
	UserTypeNormal        UserType = "normal"
	UserTypeAdministrator UserType = "administrator"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User is an API account. Only hashes of the password and API key are stored.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	APIKeyHash   string     `json:"-"`
	Type         UserType   `json:"type"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes the request and checks required fields and limits.
func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > 255 {
		return ErrFieldTooLong("name", 255)
	}

	if r.Username == "" {
		return ErrMissingUsername
	}

	if len(r.Username) > 100 {
		return ErrFieldTooLong("username", 100)
	}

	if r.Email == "" {
		return ErrMissingEmail
	}

	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}

	if len(r.Password) < MinPasswordLength {
		return ErrWeakPassword
	}

	// bcrypt ignores input past 72 bytes.
	if len(r.Password) > 72 {
		return ErrFieldTooLong("password", 72)
	}

	return nil
}

// LoginRequest is the payload for exchanging credentials for a fresh API key.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials is returned once on register and login. The API key is never stored in clear.
type Credentials struct {
	User   *User  `json:"user"`
	APIKey string `json:"api_key"`
}
