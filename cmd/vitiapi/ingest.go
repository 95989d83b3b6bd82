package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/config"
	"github.com/persistorai/vitiapi/internal/dbpool"
	"github.com/persistorai/vitiapi/internal/fetch"
	"github.com/persistorai/vitiapi/internal/ingest"
	"github.com/persistorai/vitiapi/internal/scrape"
	"github.com/persistorai/vitiapi/internal/store"
)

// ingestOnStartup scrapes every source whose table is empty. It blocks
// until the run completes so the API never serves a half-loaded database.
func ingestOnStartup(ctx context.Context, cfg *config.Config, pool *dbpool.Pool, coord *ingest.Coordinator, log *logrus.Logger) error {
	years := scrape.Years{From: cfg.ScrapeStartYear, To: cfg.ScrapeEndYear}
	if err := years.Validate(); err != nil {
		return fmt.Errorf("scrape years: %w", err)
	}

	pages, err := fetch.NewCachingFetcher(
		fetch.NewHTTPFetcher(log, cfg.ScrapeTimeout, cfg.ScrapeUserAgent),
		cfg.PageCacheSize,
	)
	if err != nil {
		return err
	}
	defer pages.Purge()

	sess, err := store.OpenSession(ctx, pool, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	crawler := scrape.NewCrawler(pages, fetch.Source{BaseURL: cfg.SourceBaseURL}, years, log)

	report, err := coord.PopulateEmpty(ctx, sess, scrape.All(crawler, log), ingest.SinkFor(sess))
	if err != nil {
		return fmt.Errorf("startup ingestion: %w", err)
	}

	if report != nil {
		log.WithFields(logrus.Fields{
			"domains":  len(report.Results),
			"duration": report.FinishedAt.Sub(report.StartedAt).String(),
		}).Info("startup ingestion finished")
	}

	return nil
}
