package client

import "context"

// AccountService handles registration, login and the caller's own account.
type AccountService struct {
	c *Client
}

// Register creates an account and returns its first API key.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*Credentials, error) {
	var creds Credentials
	if err := s.c.post(ctx, "/api/v1/accounts/register", req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Login exchanges email and password for a new API key. Earlier keys stop working.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*Credentials, error) {
	var creds Credentials
	if err := s.c.post(ctx, "/api/v1/accounts/login", req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Me returns the account the client's API key belongs to.
func (s *AccountService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.c.get(ctx, "/api/v1/accounts/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the caller's account.
func (s *AccountService) Delete(ctx context.Context) error {
	return s.c.del(ctx, "/api/v1/accounts/me")
}
