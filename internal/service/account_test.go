package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

func newTestAccountService(st *memAccountStore) (*AccountService, *recordingEnqueuer, *mockRevoker) {
	audit := &recordingEnqueuer{}
	rev := &mockRevoker{}
	svc := NewAccountService(st, audit, testLogger(), WithBcryptCost(bcrypt.MinCost), WithRevoker(rev))
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return svc, audit, rev
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Name:     "Ana Souza",
		Username: "ana",
		Email:    "Ana@Example.com ",
		Password: "correct horse",
	}
}

func TestAccountService_Register(t *testing.T) {
	t.Parallel()

	st := newMemAccountStore()
	svc, audit, _ := newTestAccountService(st)

	creds, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(creds.APIKey, apiKeyPrefix) || len(creds.APIKey) != len(apiKeyPrefix)+64 {
		t.Errorf("unexpected api key format %q", creds.APIKey)
	}

	u := creds.User
	if u.Email != "ana@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if !u.Active || u.Type != models.UserTypeNormal {
		t.Errorf("expected active normal user, got active=%v type=%s", u.Active, u.Type)
	}
	if u.APIKeyHash != store.HashAPIKey(creds.APIKey) {
		t.Error("stored api key hash does not match issued key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")); err != nil {
		t.Error("password hash does not verify")
	}

	if got := audit.actions(); len(got) != 1 || got[0] != "account.register" {
		t.Errorf("unexpected audit actions %v", got)
	}
}

func TestAccountService_RegisterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*models.RegisterRequest)
		wantErr error
	}{
		{"missing name", func(r *models.RegisterRequest) { r.Name = " " }, models.ErrMissingName},
		{"bad email", func(r *models.RegisterRequest) { r.Email = "nope" }, models.ErrInvalidEmail},
		{"short password", func(r *models.RegisterRequest) { r.Password = "short" }, models.ErrWeakPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _, _ := newTestAccountService(newMemAccountStore())
			req := validRegistration()
			tc.mutate(&req)

			if _, err := svc.Register(context.Background(), req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAccountService_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAccountService(newMemAccountStore())

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, models.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestAccountService_LoginRotatesKey(t *testing.T) {
	t.Parallel()

	st := newMemAccountStore()
	svc, audit, rev := newTestAccountService(st)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ANA@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if login.APIKey == reg.APIKey {
		t.Fatal("login must issue a new api key")
	}
	if login.User.LastLoginAt == nil {
		t.Fatal("expected last_login_at to be set")
	}

	if _, err := svc.AuthenticateAPIKey(ctx, reg.APIKey); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("old key should no longer authenticate, got %v", err)
	}
	if u, err := svc.AuthenticateAPIKey(ctx, login.APIKey); err != nil || u.ID != reg.User.ID {
		t.Errorf("new key should authenticate, got %+v, %v", u, err)
	}

	if len(rev.revoked) != 1 || rev.revoked[0] != store.HashAPIKey(reg.APIKey) {
		t.Errorf("expected previous key hash revoked, got %v", rev.revoked)
	}

	if got := audit.actions(); len(got) != 2 || got[1] != "account.login" {
		t.Errorf("unexpected audit actions %v", got)
	}
}

func TestAccountService_LoginFailures(t *testing.T) {
	t.Parallel()

	st := newMemAccountStore()
	svc, _, _ := newTestAccountService(st)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "wrong password"}); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "whatever1"}); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	reg.User.Active = false
	if err := st.Update(ctx, reg.User); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "correct horse"}); !errors.Is(err, models.ErrAccountInactive) {
		t.Errorf("inactive: expected ErrAccountInactive, got %v", err)
	}
	if _, err := svc.AuthenticateAPIKey(ctx, reg.APIKey); !errors.Is(err, models.ErrAccountInactive) {
		t.Errorf("inactive key: expected ErrAccountInactive, got %v", err)
	}
}

func TestAccountService_LoginStoreError(t *testing.T) {
	t.Parallel()

	st := newMemAccountStore()
	svc, _, _ := newTestAccountService(st)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	st.updateErr = errors.New("db down")

	_, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "correct horse"})
	if err == nil || errors.Is(err, models.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAccountService_DeleteAccount(t *testing.T) {
	t.Parallel()

	st := newMemAccountStore()
	svc, audit, rev := newTestAccountService(st)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.DeleteAccount(ctx, reg.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.AuthenticateAPIKey(ctx, reg.APIKey); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("deleted account key should fail, got %v", err)
	}
	if len(rev.revoked) != 1 {
		t.Errorf("expected key revoked on delete, got %v", rev.revoked)
	}
	if got := audit.actions(); got[len(got)-1] != "account.delete" {
		t.Errorf("unexpected audit actions %v", got)
	}

	if err := svc.DeleteAccount(ctx, reg.User.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
