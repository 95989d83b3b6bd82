package api_test

import (
	"context"
	"errors"
	"sync"

	"github.com/persistorai/vitiapi/internal/ingest"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// mockRecordRepo implements api.RecordRepository for testing and records the
// last filter and page it was asked for.
type mockRecordRepo[T any] struct {
	meta   store.Meta
	getFn  func(ctx context.Context, id int64) (*T, error)
	listFn func(ctx context.Context, f store.Filter, p store.Page) ([]T, int, error)

	mu         sync.Mutex
	lastFilter store.Filter
	lastPage   store.Page
}

func (m *mockRecordRepo[T]) Meta() store.Meta { return m.meta }

func (m *mockRecordRepo[T]) Get(ctx context.Context, id int64) (*T, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecordRepo[T]) List(ctx context.Context, f store.Filter, p store.Page) ([]T, int, error) {
	m.mu.Lock()
	m.lastFilter, m.lastPage = f, p
	m.mu.Unlock()

	if m.listFn == nil {
		return nil, 0, nil
	}

	return m.listFn(ctx, f, p)
}

func (m *mockRecordRepo[T]) seen() (store.Filter, store.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastFilter, m.lastPage
}

// mockProductRepo resolves product names from a fixed slice.
type mockProductRepo struct {
	products []models.Product
	err      error
}

func (m *mockProductRepo) List(_ context.Context, f store.Filter, _ store.Page) ([]models.Product, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}

	var out []models.Product
	for _, p := range m.products {
		if p.Name == f.Equal["name"] {
			out = append(out, p)
		}
	}

	return out, len(out), nil
}

// mockStatsRepo implements api.StatsRepository.
type mockStatsRepo struct {
	counts map[models.Table]int
	err    error
}

func (m *mockStatsRepo) Counts(context.Context) (map[models.Table]int, error) {
	return m.counts, m.err
}

// mockDB implements api.DBChecker.
type mockDB struct {
	healthErr error
}

func (m *mockDB) HealthCheck(context.Context) error { return m.healthErr }

func (m *mockDB) Stats() (acquired, idle int32) { return 1, 4 }

// mockIngest implements api.IngestStatus.
type mockIngest struct {
	state  ingest.State
	report *ingest.Report
}

func (m *mockIngest) State() ingest.State { return m.state }

func (m *mockIngest) Finished() bool { return m.state == ingest.StateSucceeded }

func (m *mockIngest) LastReport() *ingest.Report { return m.report }

// mockAccountService implements api.AccountService.
type mockAccountService struct {
	registerFn func(ctx context.Context, req models.RegisterRequest) (*models.Credentials, error)
	loginFn    func(ctx context.Context, req models.LoginRequest) (*models.Credentials, error)
	authFn     func(ctx context.Context, apiKey string) (*models.User, error)
	deleteFn   func(ctx context.Context, userID int64) error
}

func (m *mockAccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.Credentials, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAccountService) Login(ctx context.Context, req models.LoginRequest) (*models.Credentials, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAccountService) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if m.authFn == nil {
		return nil, models.ErrInvalidCredentials
	}

	return m.authFn(ctx, apiKey)
}

func (m *mockAccountService) DeleteAccount(ctx context.Context, userID int64) error {
	return m.deleteFn(ctx, userID)
}

var errDBDown = errors.New("db down")
