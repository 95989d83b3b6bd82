// Package scrape turns the statistics site's HTML tables into records.
//
// A Crawler walks one source across every (sub-option, year) page and hands
// parsed rows to a scraper. Scrapers come in two variants: Flat domains map
// rows straight to records, TwoPhase domains first ensure the referenced
// products exist and then resolve each row's product by name.
package scrape

import "fmt"

// DefaultStartYear and DefaultEndYear bound the published series.
const (
	DefaultStartYear = 1970
	DefaultEndYear   = 2023
)

// SubOption is one labelled sub-option code of a source.
type SubOption struct {
	Label string
	Code  string
}

// Source describes where a domain's table lives on the site.
type Source struct {
	Name       string
	Option     string
	SubOptions []SubOption
	Layout     Layout
}

// pages returns the sub-options to visit; a source without sub-options
// is visited once per year with an empty code.
func (s Source) pages() []SubOption {
	if len(s.SubOptions) == 0 {
		return []SubOption{{}}
	}

	return s.SubOptions
}

// Site sources.
var (
	ProductionSource = Source{
		Name:   "production",
		Option: "opt_02",
		Layout: Categorized,
	}

	ProcessingSource = Source{
		Name:   "processing",
		Option: "opt_03",
		SubOptions: []SubOption{
			{Label: "Viníferas", Code: "subopt_01"},
			{Label: "Americanas e Híbridas", Code: "subopt_02"},
			{Label: "Uvas de Mesa", Code: "subopt_03"},
			{Label: "Sem classificação", Code: "subopt_04"},
		},
		Layout: Categorized,
	}

	CommercializationSource = Source{
		Name:   "commercialization",
		Option: "opt_04",
		Layout: Categorized,
	}

	ImportationSource = Source{
		Name:   "importation",
		Option: "opt_05",
		SubOptions: []SubOption{
			{Label: "Vinhos de mesa", Code: "subopt_01"},
			{Label: "Espumantes", Code: "subopt_02"},
			{Label: "Uvas frescas", Code: "subopt_03"},
			{Label: "Uvas passas", Code: "subopt_04"},
			{Label: "Suco de uva", Code: "subopt_05"},
		},
		Layout: Plain,
	}

	ExportationSource = Source{
		Name:   "exportation",
		Option: "opt_06",
		SubOptions: []SubOption{
			{Label: "Vinhos de mesa", Code: "subopt_01"},
			{Label: "Espumantes", Code: "subopt_02"},
			{Label: "Uvas frescas", Code: "subopt_03"},
			{Label: "Suco de uva", Code: "subopt_04"},
		},
		Layout: Plain,
	}
)

// Years is an inclusive range of years.
type Years struct {
	From int
	To   int
}

// DefaultYears is the full published series.
var DefaultYears = Years{From: DefaultStartYear, To: DefaultEndYear}

// Validate checks the range is non-empty.
func (y Years) Validate() error {
	if y.From <= 0 || y.To < y.From {
		return fmt.Errorf("invalid year range %d-%d", y.From, y.To)
	}

	return nil
}

// Len returns the number of years in the range.
func (y Years) Len() int {
	if y.To < y.From {
		return 0
	}

	return y.To - y.From + 1
}
