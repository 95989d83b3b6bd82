package api

import (
	"context"

	"github.com/persistorai/vitiapi/internal/domain"
	"github.com/persistorai/vitiapi/internal/ingest"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// RecordRepository defines the read operations RecordHandler uses for one table.
// *store.RecordStore satisfies it.
type RecordRepository[T any] interface {
	Meta() store.Meta
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, f store.Filter, p store.Page) ([]T, int, error)
}

// ProductRepository resolves product_name filters.
type ProductRepository interface {
	List(ctx context.Context, f store.Filter, p store.Page) ([]models.Product, int, error)
}

// StatsRepository reports row counts per statistics table.
type StatsRepository interface {
	Counts(ctx context.Context) (map[models.Table]int, error)
}

// DBChecker is the database probe used by health and stats endpoints.
// *dbpool.Pool satisfies it.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() (acquired, idle int32)
}

// IngestStatus exposes the ingestion coordinator's progress.
type IngestStatus interface {
	State() ingest.State
	Finished() bool
	LastReport() *ingest.Report
}

// AccountService is an alias for the canonical domain.AccountService interface.
type AccountService = domain.AccountService

var (
	_ RecordRepository[models.Product] = (*store.RecordStore[models.Product])(nil)
	_ ProductRepository                = (*store.RecordStore[models.Product])(nil)
	_ StatsRepository                  = (*store.Stores)(nil)
	_ IngestStatus                     = (*ingest.Coordinator)(nil)
)
