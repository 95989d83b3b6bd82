// Package fetch retrieves source pages from the statistics website.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/metrics"
)

// DefaultBaseURL is the page endpoint of the public statistics site.
const DefaultBaseURL = "http://vitibrasil.cnpuv.embrapa.br/index.php"

// Page is one fetched HTML document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Fetcher retrieves one page per call. Implementations must return a
// *FetchError for any non-200 response.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// FetchError reports a non-success HTTP status from the source site.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Source builds page URLs for the statistics site.
type Source struct {
	BaseURL string
}

// PageURL returns the URL of the table for year and option, optionally
// narrowed to one sub-option.
func (s Source) PageURL(year int, option, subOption string) string {
	q := url.Values{}
	q.Set("ano", strconv.Itoa(year))
	q.Set("opcao", option)

	if subOption != "" {
		q.Set("subopcao", subOption)
	}

	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return base + "?" + q.Encode()
}

// HTTPFetcher fetches pages with a resty client. It never retries.
type HTTPFetcher struct {
	client *resty.Client
	log    *logrus.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout keeps the client default.
func NewHTTPFetcher(log *logrus.Logger, timeout time.Duration, userAgent string) *HTTPFetcher {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return &HTTPFetcher{client: client, log: log}
}

// Fetch performs one GET and returns the body on 200 OK.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	start := time.Now()

	res, err := f.client.R().SetContext(ctx).Get(pageURL)

	metrics.PageFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PageFetches.WithLabelValues("transport_error").Inc()

		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}

	if res.StatusCode() != http.StatusOK {
		metrics.PageFetches.WithLabelValues("http_error").Inc()

		return nil, &FetchError{URL: pageURL, StatusCode: res.StatusCode()}
	}

	metrics.PageFetches.WithLabelValues("ok").Inc()

	f.log.WithFields(logrus.Fields{
		"url":      pageURL,
		"bytes":    len(res.Body()),
		"duration": time.Since(start).String(),
	}).Debug("source page fetched")

	return &Page{
		URL:         pageURL,
		ContentType: res.Header().Get("Content-Type"),
		Body:        res.Body(),
	}, nil
}
