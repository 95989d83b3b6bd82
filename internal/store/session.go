package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/models"
)

// Stores holds one RecordStore per statistics table plus the account store.
type Stores struct {
	Products           *RecordStore[models.Product]
	Productions        *RecordStore[models.Production]
	Processings        *RecordStore[models.Processing]
	Commercializations *RecordStore[models.Commercialization]
	Importations       *RecordStore[models.Importation]
	Exportations       *RecordStore[models.Exportation]
	Users              *UserStore
}

// NewStores binds every store to base.
func NewStores(base Base) *Stores {
	return &Stores{
		Products:           NewRecordStore(base, Products),
		Productions:        NewRecordStore(base, Productions),
		Processings:        NewRecordStore(base, Processings),
		Commercializations: NewRecordStore(base, Commercializations),
		Importations:       NewRecordStore(base, Importations),
		Exportations:       NewRecordStore(base, Exportations),
		Users:              NewUserStore(base),
	}
}

type counter interface {
	Count(ctx context.Context, f Filter) (int, error)
}

func (s *Stores) counter(t models.Table) (counter, error) {
	switch t {
	case models.TableProducts:
		return s.Products, nil
	case models.TableProductions:
		return s.Productions, nil
	case models.TableProcessings:
		return s.Processings, nil
	case models.TableCommercializations:
		return s.Commercializations, nil
	case models.TableImportations:
		return s.Importations, nil
	case models.TableExportations:
		return s.Exportations, nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownTable, t)
	}
}

// CountRows returns the row count of one statistics table.
func (s *Stores) CountRows(ctx context.Context, t models.Table) (int, error) {
	c, err := s.counter(t)
	if err != nil {
		return 0, err
	}

	return c.Count(ctx, Filter{})
}

// Counts returns the row count of every statistics table.
func (s *Stores) Counts(ctx context.Context) (map[models.Table]int, error) {
	out := make(map[models.Table]int, len(models.Tables()))

	for _, t := range models.Tables() {
		n, err := s.CountRows(ctx, t)
		if err != nil {
			return nil, err
		}

		out[t] = n
	}

	return out, nil
}

// Acquirer hands out dedicated connections; *dbpool.Pool satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// Session is a set of stores pinned to one acquired connection. Ingestion
// opens one per run and shares it across every scraper.
type Session struct {
	*Stores
	conn *pgxpool.Conn
}

// OpenSession acquires a connection and binds the stores to it.
func OpenSession(ctx context.Context, pool Acquirer, log *logrus.Logger) (*Session, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring ingestion connection: %w", err)
	}

	return &Session{
		Stores: NewStores(Base{DB: conn, Log: log}),
		conn:   conn,
	}, nil
}

// Close releases the connection back to the pool.
func (s *Session) Close() {
	s.conn.Release()
}
