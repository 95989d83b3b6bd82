package scrape

import (
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/models"
)

// NewProductScraper derives the product catalog from the production and
// commercialization tables without storing any dependent rows.
func NewProductScraper(c *Crawler, log *logrus.Logger) *Flat[models.Product] {
	return &Flat[models.Product]{
		domain:  models.TableProducts,
		sources: []Source{ProductionSource, CommercializationSource},
		crawler: c,
		log:     log,
		build: func(_ int, _ SubOption, row Row) (models.Product, bool) {
			return productFromRow(row)
		},
		target:   func(s Sink) Inserter[models.Product] { return s.Products },
		distinct: func(p *models.Product) string { return p.Category + "\x00" + p.Name },
	}
}

// NewProductionScraper scrapes yearly production volumes per product.
func NewProductionScraper(c *Crawler, log *logrus.Logger) *TwoPhase[models.Production] {
	return &TwoPhase[models.Production]{
		domain:  models.TableProductions,
		source:  ProductionSource,
		crawler: c,
		log:     log,
		build: func(year int, row Row, productID int64) models.Production {
			return models.Production{
				Year:      year,
				Quantity:  ExtractDigits(row.Cell(1)),
				ProductID: productID,
			}
		},
		target: func(s Sink) Inserter[models.Production] { return s.Productions },
	}
}

// NewProcessingScraper scrapes processed grape volumes per grape type.
func NewProcessingScraper(c *Crawler, log *logrus.Logger) *Flat[models.Processing] {
	return &Flat[models.Processing]{
		domain:  models.TableProcessings,
		sources: []Source{ProcessingSource},
		crawler: c,
		log:     log,
		build: func(year int, sub SubOption, row Row) (models.Processing, bool) {
			name := row.Cell(0)
			if name == "" {
				return models.Processing{}, false
			}

			return models.Processing{
				Name:        name,
				Category:    row.Category,
				Subcategory: sub.Label,
				Quantity:    ExtractDigits(row.Cell(1)),
				Year:        year,
			}, true
		},
		target: func(s Sink) Inserter[models.Processing] { return s.Processings },
	}
}

// NewCommercializationScraper scrapes domestic sales volumes per product.
func NewCommercializationScraper(c *Crawler, log *logrus.Logger) *TwoPhase[models.Commercialization] {
	return &TwoPhase[models.Commercialization]{
		domain:  models.TableCommercializations,
		source:  CommercializationSource,
		crawler: c,
		log:     log,
		build: func(year int, row Row, productID int64) models.Commercialization {
			return models.Commercialization{
				ProductID: productID,
				Quantity:  ExtractDigits(row.Cell(1)),
				Year:      year,
			}
		},
		target: func(s Sink) Inserter[models.Commercialization] { return s.Commercializations },
	}
}

// tradeRow reads country, weight and value from a plain trade table row.
func tradeRow(row Row) (country string, weight, value int64, ok bool) {
	if len(row.Cells) < 3 || row.Cell(0) == "" {
		return "", 0, 0, false
	}

	return row.Cell(0), ExtractDigits(row.Cell(1)), ExtractDigits(row.Cell(2)), true
}

// NewImportationScraper scrapes import volume and value per country.
func NewImportationScraper(c *Crawler, log *logrus.Logger) *Flat[models.Importation] {
	return &Flat[models.Importation]{
		domain:  models.TableImportations,
		sources: []Source{ImportationSource},
		crawler: c,
		log:     log,
		build: func(year int, sub SubOption, row Row) (models.Importation, bool) {
			country, weight, value, ok := tradeRow(row)
			if !ok {
				return models.Importation{}, false
			}

			return models.Importation{
				Country:  country,
				Category: sub.Label,
				Weight:   weight,
				Value:    value,
				Year:     year,
			}, true
		},
		target: func(s Sink) Inserter[models.Importation] { return s.Importations },
	}
}

// NewExportationScraper scrapes export volume and value per country.
func NewExportationScraper(c *Crawler, log *logrus.Logger) *Flat[models.Exportation] {
	return &Flat[models.Exportation]{
		domain:  models.TableExportations,
		sources: []Source{ExportationSource},
		crawler: c,
		log:     log,
		build: func(year int, sub SubOption, row Row) (models.Exportation, bool) {
			country, weight, value, ok := tradeRow(row)
			if !ok {
				return models.Exportation{}, false
			}

			return models.Exportation{
				Country:  country,
				Category: sub.Label,
				Weight:   weight,
				Value:    value,
				Year:     year,
			}, true
		},
		target: func(s Sink) Inserter[models.Exportation] { return s.Exportations },
	}
}

// All returns one scraper per statistics table, in ingestion order.
func All(c *Crawler, log *logrus.Logger) []Scraper {
	return []Scraper{
		NewProductScraper(c, log),
		NewProductionScraper(c, log),
		NewProcessingScraper(c, log),
		NewCommercializationScraper(c, log),
		NewImportationScraper(c, log),
		NewExportationScraper(c, log),
	}
}
