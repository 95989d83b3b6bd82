package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/persistorai/vitiapi/internal/fetch"
)

const (
	tableSelector = "table.tb_base.tb_dados"
	categoryClass = "tb_item"
	itemClass     = "tb_subitem"
)

// Layout selects how body rows of a data table are classified.
type Layout int

const (
	// Categorized tables tag the first cell of every row: tb_item opens a
	// category, tb_subitem is an item under the current category. Untagged
	// rows are skipped.
	Categorized Layout = iota
	// Plain tables carry no markers; every body row is an item with no category.
	Plain
)

func (l Layout) String() string {
	if l == Plain {
		return "plain"
	}

	return "categorized"
}

// Row is one item row of a data table.
type Row struct {
	// Category is the label of the most recent category marker row.
	Category string
	// Cells holds the whitespace-normalized text of every cell.
	Cells []string
}

// Cell returns the i-th cell text or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}

	return r.Cells[i]
}

// ParseError reports a page whose data table could not be located.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.URL, e.Reason)
}

// ParseTable extracts the item rows of the page's single data table.
func ParseTable(page *fetch.Page, layout Layout) ([]Row, error) {
	r, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", page.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading html from %s: %w", page.URL, err)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, &ParseError{URL: page.URL, Reason: "data table not found"}
	}

	body := table.ChildrenFiltered("tbody").First()
	if body.Length() == 0 {
		return nil, &ParseError{URL: page.URL, Reason: "data table has no body"}
	}

	var (
		rows     []Row
		category string
	)

	body.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() == 0 {
			return
		}

		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, NormalizeText(td.Text()))
		})

		if layout == Plain {
			rows = append(rows, Row{Cells: cells})

			return
		}

		first := tds.First()

		switch {
		case first.HasClass(categoryClass):
			category = cells[0]
		case first.HasClass(itemClass):
			rows = append(rows, Row{Category: category, Cells: cells})
		}
	})

	return rows, nil
}

// NormalizeText drops newlines and collapses runs of whitespace to one space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractDigits keeps only the digit characters of s and parses them,
// so "1.234" and "1,234 kg" both yield 1234. Empty or unparsable input yields 0.
func ExtractDigits(s string) int64 {
	var b strings.Builder

	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}

	return n
}
