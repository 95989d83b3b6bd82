package scrape

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/models"
)

// Inserter is the dedup insert of a record store.
type Inserter[T any] interface {
	CheckAndCreate(ctx context.Context, rec *T) (bool, error)
}

// ProductStore inserts products and reads back the committed set.
type ProductStore interface {
	Inserter[models.Product]
	GetAll(ctx context.Context) ([]models.Product, error)
}

// Sink is the persistence a scraper writes to. All stores share one session.
type Sink struct {
	Products           ProductStore
	Productions        Inserter[models.Production]
	Processings        Inserter[models.Processing]
	Commercializations Inserter[models.Commercialization]
	Importations       Inserter[models.Importation]
	Exportations       Inserter[models.Exportation]
}

// Result summarizes one scraper run.
type Result struct {
	Domain models.Table `json:"domain"`
	// Parsed is the number of records extracted from the source.
	Parsed int `json:"parsed"`
	// Inserted and Skipped split Parsed by the dedup outcome.
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	// Unresolved rows named a product that does not exist. They are not stored.
	Unresolved int `json:"unresolved"`
	// ProductsInserted counts products written by a two-phase product pass.
	ProductsInserted int `json:"products_inserted"`
}

// Scraper populates one domain's table.
type Scraper interface {
	Domain() models.Table
	Populate(ctx context.Context, sink Sink) (Result, error)
}

var (
	_ Scraper = (*Flat[models.Processing])(nil)
	_ Scraper = (*TwoPhase[models.Production])(nil)
)

// insertAll dedup-inserts recs in order and tallies the outcome.
func insertAll[T any](ctx context.Context, ins Inserter[T], recs []T) (inserted, skipped int, err error) {
	for i := range recs {
		created, err := ins.CheckAndCreate(ctx, &recs[i])
		if err != nil {
			return inserted, skipped, err
		}

		if created {
			inserted++
		} else {
			skipped++
		}
	}

	return inserted, skipped, nil
}

// Flat scrapes a domain whose records have no foreign keys.
type Flat[T any] struct {
	domain  models.Table
	sources []Source
	crawler *Crawler
	log     *logrus.Logger
	// build maps one parsed row to a record; false drops the row.
	build  func(year int, sub SubOption, row Row) (T, bool)
	target func(Sink) Inserter[T]
	// distinct, when set, keys records so repeats within one crawl are dropped.
	distinct func(rec *T) string
}

// Domain returns the table this scraper fills.
func (s *Flat[T]) Domain() models.Table {
	return s.domain
}

// FetchAndParse crawls every source and returns the records in crawl order.
func (s *Flat[T]) FetchAndParse(ctx context.Context) ([]T, error) {
	var recs []T

	seen := make(map[string]struct{})

	for _, src := range s.sources {
		err := s.crawler.Crawl(ctx, src, func(year int, sub SubOption, rows []Row) error {
			for _, row := range rows {
				rec, ok := s.build(year, sub, row)
				if !ok {
					continue
				}

				if s.distinct != nil {
					k := s.distinct(&rec)
					if _, dup := seen[k]; dup {
						continue
					}

					seen[k] = struct{}{}
				}

				recs = append(recs, rec)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return recs, nil
}

// Populate fetches the whole domain, then dedup-inserts it. Nothing is
// written if any page fails.
func (s *Flat[T]) Populate(ctx context.Context, sink Sink) (Result, error) {
	res := Result{Domain: s.domain}

	recs, err := s.FetchAndParse(ctx)
	if err != nil {
		return res, fmt.Errorf("scraping %s: %w", s.domain, err)
	}

	res.Parsed = len(recs)

	s.log.WithFields(logrus.Fields{
		"domain": s.domain.String(),
		"parsed": res.Parsed,
	}).Debug("domain fetched, storing")

	res.Inserted, res.Skipped, err = insertAll(ctx, s.target(sink), recs)
	if err != nil {
		return res, fmt.Errorf("storing %s: %w", s.domain, err)
	}

	return res, nil
}

// TwoPhase scrapes a domain whose rows reference products by name.
//
// Phase one derives the product set from the source and dedup-inserts it.
// Phase two reads the committed products back, so ids are known, and only
// then builds the dependent records.
type TwoPhase[T any] struct {
	domain  models.Table
	source  Source
	crawler *Crawler
	log     *logrus.Logger
	// build maps one parsed row and its resolved product id to a record.
	build  func(year int, row Row, productID int64) T
	target func(Sink) Inserter[T]
}

// Domain returns the table this scraper fills.
func (s *TwoPhase[T]) Domain() models.Table {
	return s.domain
}

// FetchProducts crawls the source and returns each distinct product once.
func (s *TwoPhase[T]) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return collectProducts(ctx, s.crawler, []Source{s.source})
}

// FetchAndParse crawls the source again and builds the dependent records,
// resolving each row against products. It also returns the number of rows
// dropped because their product could not be resolved.
func (s *TwoPhase[T]) FetchAndParse(ctx context.Context, products []models.Product) ([]T, int, error) {
	idx := newProductIndex(products)

	var (
		recs       []T
		unresolved int
	)

	err := s.crawler.Crawl(ctx, s.source, func(year int, _ SubOption, rows []Row) error {
		for _, row := range rows {
			name := row.Cell(0)
			if name == "" {
				continue
			}

			id, err := idx.resolve(row.Category, name)
			if err != nil {
				unresolved++

				s.log.WithError(err).WithFields(logrus.Fields{
					"domain": s.domain.String(),
					"year":   year,
				}).Debug("skipping row")

				continue
			}

			recs = append(recs, s.build(year, row, id))
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return recs, unresolved, nil
}

// Populate runs the product phase to completion before the dependent phase starts.
func (s *TwoPhase[T]) Populate(ctx context.Context, sink Sink) (Result, error) {
	res := Result{Domain: s.domain}

	products, err := s.FetchProducts(ctx)
	if err != nil {
		return res, fmt.Errorf("scraping %s products: %w", s.domain, err)
	}

	res.ProductsInserted, _, err = insertAll(ctx, sink.Products, products)
	if err != nil {
		return res, fmt.Errorf("storing %s products: %w", s.domain, err)
	}

	committed, err := sink.Products.GetAll(ctx)
	if err != nil {
		return res, fmt.Errorf("reading products: %w", err)
	}

	recs, unresolved, err := s.FetchAndParse(ctx, committed)
	if err != nil {
		return res, fmt.Errorf("scraping %s: %w", s.domain, err)
	}

	res.Parsed = len(recs)
	res.Unresolved = unresolved

	if unresolved > 0 {
		s.log.WithFields(logrus.Fields{
			"domain":     s.domain.String(),
			"unresolved": unresolved,
		}).Warn("rows with unknown products were skipped")
	}

	res.Inserted, res.Skipped, err = insertAll(ctx, s.target(sink), recs)
	if err != nil {
		return res, fmt.Errorf("storing %s: %w", s.domain, err)
	}

	return res, nil
}
