package ingest

import (
	"context"
	"fmt"

	"github.com/persistorai/vitiapi/internal/metrics"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/scrape"
	"github.com/persistorai/vitiapi/internal/store"
)

// RowCounter reports the row count of every statistics table.
type RowCounter interface {
	Counts(ctx context.Context) (map[models.Table]int, error)
}

// Plan returns the scrapers from available whose table is currently empty.
func Plan(ctx context.Context, counter RowCounter, available []scrape.Scraper) ([]scrape.Scraper, error) {
	counts, err := counter.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting table rows: %w", err)
	}

	for t, n := range counts {
		metrics.TableRows.WithLabelValues(t.String()).Set(float64(n))
	}

	var todo []scrape.Scraper

	for _, s := range available {
		if counts[s.Domain()] == 0 {
			todo = append(todo, s)
		}
	}

	return todo, nil
}

// SinkFor exposes a store session to scrapers.
func SinkFor(sess *store.Session) scrape.Sink {
	return scrape.Sink{
		Products:           sess.Products,
		Productions:        sess.Productions,
		Processings:        sess.Processings,
		Commercializations: sess.Commercializations,
		Importations:       sess.Importations,
		Exportations:       sess.Exportations,
	}
}

// PopulateEmpty registers the scrapers from available whose table is empty
// and runs them. Row gauges are refreshed afterwards, even on failure.
func (c *Coordinator) PopulateEmpty(ctx context.Context, counter RowCounter, available []scrape.Scraper, sink scrape.Sink) (*Report, error) {
	todo, err := Plan(ctx, counter, available)
	if err != nil {
		return nil, err
	}

	if len(todo) == 0 {
		c.log.Info("all statistics tables populated, skipping ingestion")

		return &Report{}, nil
	}

	c.Register(todo...)

	report, runErr := c.Run(ctx, sink)

	if _, err := Plan(ctx, counter, nil); err != nil {
		c.log.WithError(err).Warn("refreshing row gauges failed")
	}

	return report, runErr
}
