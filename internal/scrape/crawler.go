package scrape

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/fetch"
)

// Crawler fetches and parses every page of a source, one at a time.
type Crawler struct {
	fetcher fetch.Fetcher
	site    fetch.Source
	years   Years
	log     *logrus.Logger
}

// NewCrawler creates a Crawler over years.
func NewCrawler(fetcher fetch.Fetcher, site fetch.Source, years Years, log *logrus.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, site: site, years: years, log: log}
}

// visitFunc receives the parsed rows of one page.
type visitFunc func(year int, sub SubOption, rows []Row) error

// Crawl visits src sub-option by sub-option, year by year. The first fetch,
// parse or visit error stops the crawl and is returned.
func (c *Crawler) Crawl(ctx context.Context, src Source, visit visitFunc) error {
	for _, sub := range src.pages() {
		for year := c.years.From; year <= c.years.To; year++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			pageURL := c.site.PageURL(year, src.Option, sub.Code)

			page, err := c.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				return fmt.Errorf("%s %d %s: %w", src.Name, year, sub.Label, err)
			}

			rows, err := ParseTable(page, src.Layout)
			if err != nil {
				return fmt.Errorf("%s %d %s: %w", src.Name, year, sub.Label, err)
			}

			c.log.WithFields(logrus.Fields{
				"source":     src.Name,
				"year":       year,
				"sub_option": sub.Label,
				"rows":       len(rows),
			}).Debug("page parsed")

			if err := visit(year, sub, rows); err != nil {
				return err
			}
		}
	}

	return nil
}
