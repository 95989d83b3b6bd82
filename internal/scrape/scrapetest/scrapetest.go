// Package scrapetest provides in-memory fetchers and stores for testing
// scrapers and ingestion without a network or a database.
package scrapetest

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"

	"github.com/persistorai/vitiapi/internal/fetch"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/scrape"
)

// Journal records store calls in order, shared across stores.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
}

// Entries returns a copy of the journal.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

// MemStore is an in-memory record store with full-row dedup. Records must
// be comparable once their id is cleared.
type MemStore[T comparable] struct {
	mu      sync.Mutex
	name    string
	rows    []T
	nextID  int64
	id      func(*T) *int64
	journal *Journal
}

// NewMemStore creates a store; id returns a pointer to the record's id field.
func NewMemStore[T comparable](name string, journal *Journal, id func(*T) *int64) *MemStore[T] {
	return &MemStore[T]{name: name, id: id, journal: journal}
}

func (s *MemStore[T]) key(rec T) T {
	*s.id(&rec) = 0

	return rec
}

// CheckAndCreate inserts rec unless an identical row, ignoring id, exists.
func (s *MemStore[T]) CheckAndCreate(_ context.Context, rec *T) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(*rec)
	for _, row := range s.rows {
		if s.key(row) == k {
			return false, nil
		}
	}

	s.nextID++
	*s.id(rec) = s.nextID
	s.rows = append(s.rows, *rec)

	if s.journal != nil {
		s.journal.Add(s.name + ".create")
	}

	return true, nil
}

// GetAll returns every row in insertion order.
func (s *MemStore[T]) GetAll(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		s.journal.Add(s.name + ".get_all")
	}

	return append([]T(nil), s.rows...), nil
}

// Len returns the number of stored rows.
func (s *MemStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rows)
}

// Stores is one MemStore per statistics table.
type Stores struct {
	Journal            *Journal
	Products           *MemStore[models.Product]
	Productions        *MemStore[models.Production]
	Processings        *MemStore[models.Processing]
	Commercializations *MemStore[models.Commercialization]
	Importations       *MemStore[models.Importation]
	Exportations       *MemStore[models.Exportation]
}

// NewStores creates empty stores sharing one journal.
func NewStores() *Stores {
	j := &Journal{}

	return &Stores{
		Journal:            j,
		Products:           NewMemStore("products", j, func(r *models.Product) *int64 { return &r.ID }),
		Productions:        NewMemStore("productions", j, func(r *models.Production) *int64 { return &r.ID }),
		Processings:        NewMemStore("processings", j, func(r *models.Processing) *int64 { return &r.ID }),
		Commercializations: NewMemStore("commercializations", j, func(r *models.Commercialization) *int64 { return &r.ID }),
		Importations:       NewMemStore("importations", j, func(r *models.Importation) *int64 { return &r.ID }),
		Exportations:       NewMemStore("exportations", j, func(r *models.Exportation) *int64 { return &r.ID }),
	}
}

// Sink exposes the stores to scrapers.
func (s *Stores) Sink() scrape.Sink {
	return scrape.Sink{
		Products:           s.Products,
		Productions:        s.Productions,
		Processings:        s.Processings,
		Commercializations: s.Commercializations,
		Importations:       s.Importations,
		Exportations:       s.Exportations,
	}
}

// Counts returns the row count per table.
func (s *Stores) Counts(_ context.Context) (map[models.Table]int, error) {
	return map[models.Table]int{
		models.TableProducts:           s.Products.Len(),
		models.TableProductions:        s.Productions.Len(),
		models.TableProcessings:        s.Processings.Len(),
		models.TableCommercializations: s.Commercializations.Len(),
		models.TableImportations:       s.Importations.Len(),
		models.TableExportations:       s.Exportations.Len(),
	}, nil
}

// Fetcher serves pages from memory. Unknown URLs get Fallback, or a 404
// FetchError when Fallback is empty. Fail maps a URL to a forced status.
type Fetcher struct {
	mu       sync.Mutex
	Pages    map[string]string
	Fallback string
	Fail     map[string]int
	calls    []string
}

// Fetch implements fetch.Fetcher.
func (f *Fetcher) Fetch(_ context.Context, pageURL string) (*fetch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, pageURL)

	if status, ok := f.Fail[pageURL]; ok {
		return nil, &fetch.FetchError{URL: pageURL, StatusCode: status}
	}

	body, ok := f.Pages[pageURL]
	if !ok {
		if f.Fallback == "" {
			return nil, &fetch.FetchError{URL: pageURL, StatusCode: http.StatusNotFound}
		}

		body = f.Fallback
	}

	return &fetch.Page{URL: pageURL, ContentType: "text/html; charset=utf-8", Body: []byte(body)}, nil
}

// Calls returns the fetched URLs in order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// Category builds a category marker row for CategorizedPage.
func Category(label string, cells ...string) []string {
	return append([]string{"tb_item", label}, cells...)
}

// Item builds an item row for CategorizedPage.
func Item(name string, cells ...string) []string {
	return append([]string{"tb_subitem", name}, cells...)
}

// CategorizedPage renders a data table whose rows start with a marker class
// (see Category and Item) followed by the cell texts.
func CategorizedPage(rows ...[]string) string {
	var b strings.Builder

	b.WriteString(`<html><body><table class="tb_base tb_dados"><thead><tr><th>Produto</th><th>Quantidade</th></tr></thead><tbody>`)

	for _, row := range rows {
		class, cells := row[0], row[1:]
		b.WriteString("<tr>")

		for _, cell := range cells {
			fmt.Fprintf(&b, `<td class="%s">%s</td>`, class, html.EscapeString(cell))
		}

		b.WriteString("</tr>")
	}

	b.WriteString(`</tbody><tfoot><tr><td>Total</td><td>0</td></tr></tfoot></table></body></html>`)

	return b.String()
}

// PlainPage renders an unmarked data table, one row per cell slice.
func PlainPage(rows ...[]string) string {
	var b strings.Builder

	b.WriteString(`<html><body><table class="tb_base tb_dados"><tbody>`)

	for _, row := range rows {
		b.WriteString("<tr>")

		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}

		b.WriteString("</tr>")
	}

	b.WriteString(`</tbody></table></body></html>`)

	return b.String()
}
