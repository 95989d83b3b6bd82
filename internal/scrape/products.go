package scrape

import (
	"context"
	"fmt"
	"sort"

	"github.com/persistorai/vitiapi/internal/models"
)

// collectProducts crawls srcs and returns each (name, category) pair once,
// in first-seen order.
func collectProducts(ctx context.Context, c *Crawler, srcs []Source) ([]models.Product, error) {
	type key struct{ name, category string }

	seen := make(map[key]struct{})

	var products []models.Product

	for _, src := range srcs {
		err := c.Crawl(ctx, src, func(_ int, _ SubOption, rows []Row) error {
			for _, row := range rows {
				p, ok := productFromRow(row)
				if !ok {
					continue
				}

				k := key{p.Name, p.Category}
				if _, dup := seen[k]; dup {
					continue
				}

				seen[k] = struct{}{}
				products = append(products, p)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return products, nil
}

func productFromRow(row Row) (models.Product, bool) {
	name := row.Cell(0)
	if name == "" {
		return models.Product{}, false
	}

	return models.Product{Name: name, Category: row.Category}, true
}

// productIndex resolves a row's product by exact name. When the same name
// exists under several categories the row's own category picks the match;
// otherwise the lowest id wins.
type productIndex struct {
	byKey  map[[2]string]int64
	byName map[string]int64
}

func newProductIndex(products []models.Product) productIndex {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := productIndex{
		byKey:  make(map[[2]string]int64, len(sorted)),
		byName: make(map[string]int64, len(sorted)),
	}

	for _, p := range sorted {
		k := [2]string{p.Category, p.Name}
		if _, ok := idx.byKey[k]; !ok {
			idx.byKey[k] = p.ID
		}

		if _, ok := idx.byName[p.Name]; !ok {
			idx.byName[p.Name] = p.ID
		}
	}

	return idx
}

func (idx productIndex) resolve(category, name string) (int64, error) {
	if id, ok := idx.byKey[[2]string{category, name}]; ok {
		return id, nil
	}

	if id, ok := idx.byName[name]; ok {
		return id, nil
	}

	return 0, fmt.Errorf("%w: %q (category %q)", models.ErrUnresolvedProduct, name, category)
}
