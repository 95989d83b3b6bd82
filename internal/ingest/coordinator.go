// Package ingest decides which statistics tables need populating and runs
// the matching scrapers, one after another, against a single store session.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/metrics"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/scrape"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("ingestion already running")

// State is the coordinator lifecycle.
type State string

// Coordinator states.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Report describes one coordinator run.
type Report struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []scrape.Result `json:"results"`
	// Failed names the domain whose scraper aborted the run.
	Failed string `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Coordinator runs registered scrapers sequentially in table order. Domains
// that completed before a failure keep their inserts.
type Coordinator struct {
	log *logrus.Logger

	mu       sync.Mutex
	scrapers []scrape.Scraper
	state    State
	last     *Report

	// run serializes Run calls.
	run sync.Mutex
}

// NewCoordinator creates a coordinator with an initial scraper set. The
// slice is copied; pass nil for none.
func NewCoordinator(log *logrus.Logger, scrapers []scrape.Scraper) *Coordinator {
	c := &Coordinator{log: log, state: StateIdle}
	c.Register(scrapers...)

	return c
}

// Register adds scrapers. A scraper for an already registered domain replaces it.
func (c *Coordinator) Register(scrapers ...scrape.Scraper) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range scrapers {
		i := slices.IndexFunc(c.scrapers, func(r scrape.Scraper) bool { return r.Domain() == s.Domain() })
		if i >= 0 {
			c.scrapers[i] = s

			continue
		}

		c.scrapers = append(c.scrapers, s)
	}

	slices.SortFunc(c.scrapers, func(a, b scrape.Scraper) int { return int(a.Domain()) - int(b.Domain()) })
}

// Domains returns the registered domains in run order.
func (c *Coordinator) Domains() []models.Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Table, len(c.scrapers))
	for i, s := range c.scrapers {
		out[i] = s.Domain()
	}

	return out
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Finished reports whether a run has completed successfully, or whether
// there was nothing to run.
func (c *Coordinator) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state == StateSucceeded || (c.state == StateIdle && len(c.scrapers) == 0)
}

// LastReport returns the most recent run report, or nil before the first run.
func (c *Coordinator) LastReport() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last
}

// Run populates every registered domain in order. The first scraper error
// stops the run and is returned; earlier domains stay committed.
func (c *Coordinator) Run(ctx context.Context, sink scrape.Sink) (*Report, error) {
	if !c.run.TryLock() {
		return nil, ErrRunInProgress
	}
	defer c.run.Unlock()

	c.mu.Lock()
	scrapers := slices.Clone(c.scrapers)
	c.state = StateRunning
	c.mu.Unlock()

	report := &Report{StartedAt: time.Now().UTC()}

	err := c.runAll(ctx, sink, scrapers, report)

	report.FinishedAt = time.Now().UTC()

	c.mu.Lock()
	c.last = report
	if err != nil {
		c.state = StateFailed
	} else {
		c.state = StateSucceeded
	}
	c.mu.Unlock()

	return report, err
}

func (c *Coordinator) runAll(ctx context.Context, sink scrape.Sink, scrapers []scrape.Scraper, report *Report) error {
	for _, s := range scrapers {
		domain := s.Domain().String()
		log := c.log.WithField("domain", domain)

		log.Info("ingesting domain")

		start := time.Now()
		res, err := s.Populate(ctx, sink)
		elapsed := time.Since(start)

		metrics.IngestDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
		recordOutcome(domain, res)
		report.Results = append(report.Results, res)

		if err != nil {
			metrics.IngestFailures.WithLabelValues(domain).Inc()
			report.Failed = domain
			report.Error = err.Error()

			log.WithError(err).WithField("duration", elapsed.String()).Error("ingestion aborted")

			return fmt.Errorf("ingesting %s: %w", domain, err)
		}

		log.WithFields(logrus.Fields{
			"parsed":            res.Parsed,
			"inserted":          res.Inserted,
			"skipped":           res.Skipped,
			"unresolved":        res.Unresolved,
			"products_inserted": res.ProductsInserted,
			"duration":          elapsed.String(),
		}).Info("domain ingested")
	}

	return nil
}

func recordOutcome(domain string, res scrape.Result) {
	metrics.IngestedRecords.WithLabelValues(domain, "inserted").Add(float64(res.Inserted))
	metrics.IngestedRecords.WithLabelValues(domain, "skipped").Add(float64(res.Skipped))
	metrics.IngestedRecords.WithLabelValues(domain, "unresolved").Add(float64(res.Unresolved))

	if res.ProductsInserted > 0 {
		metrics.IngestedRecords.WithLabelValues(models.TableProducts.String(), "inserted").Add(float64(res.ProductsInserted))
	}
}
