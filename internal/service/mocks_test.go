package service

import (
	"context"
	"sync"

	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// memAccountStore is an in-memory AccountStore keyed by id.
type memAccountStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User

	createErr error
	updateErr error
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{users: make(map[int64]*models.User)}
}

func (m *memAccountStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}

	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return models.ErrDuplicateKey
		}
	}

	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp

	return nil
}

func (m *memAccountStore) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}

	cp := *u
	m.users[u.ID] = &cp

	return nil
}

func (m *memAccountStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)

	return nil
}

func (m *memAccountStore) Get(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u

	return &cp, nil
}

func (m *memAccountStore) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}

	return nil, models.ErrNotFound
}

func (m *memAccountStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memAccountStore) GetByAPIKey(_ context.Context, apiKey string) (*models.User, error) {
	h := store.HashAPIKey(apiKey)
	return m.find(func(u *models.User) bool { return u.APIKeyHash == h })
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []AuditJob
}

func (m *mockAuditor) RecordAudit(_ context.Context, action string, userID int64, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AuditJob{Action: action, UserID: userID, Detail: detail})

	return nil
}

func (m *mockAuditor) getCalls() []AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]AuditJob(nil), m.calls...)
}

// recordingEnqueuer captures jobs synchronously.
type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (r *recordingEnqueuer) Enqueue(job *AuditJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *recordingEnqueuer) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.jobs))
	for i, j := range r.jobs {
		out[i] = j.Action
	}

	return out
}

type mockRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (m *mockRevoker) Revoke(keyHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = append(m.revoked, keyHash)
}
