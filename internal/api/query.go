package api

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

// Pagination bounds for statistics listings.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// productNameParam filters tables that reference products by product name.
const productNameParam = "product_name"

// maxProductMatches bounds how many product ids a product_name filter expands to.
const maxProductMatches = 1000

var pageParams = []string{"limit", "offset"}

// parsePage reads limit and offset. Unlike the lenient parseInt used
// elsewhere, out-of-range values are rejected.
func parsePage(q url.Values) (store.Page, error) {
	p := store.Page{Limit: defaultPageLimit}

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPageLimit {
			return p, fmt.Errorf("limit must be an integer between 1 and %d", maxPageLimit)
		}
		p.Limit = v
	}

	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxPaginationOffset {
			return p, fmt.Errorf("offset must be an integer between 0 and %d", maxPaginationOffset)
		}
		p.Offset = v
	}

	return p, nil
}

// isNumeric reports whether col holds integers.
func isNumeric(meta store.Meta, col string) bool {
	return meta.IsRanged(col) || strings.HasSuffix(col, "_id")
}

// filterBuilder turns query parameters into a store.Filter for one table.
type filterBuilder struct {
	meta     store.Meta
	products ProductRepository
}

// build maps ?col=v to equality, ?col_min / ?col_max to inclusive ranges and
// ?product_name to the ids of products with that name.
func (b filterBuilder) build(ctx context.Context, q url.Values) (store.Filter, error) {
	var f store.Filter

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if slices.Contains(pageParams, key) {
			continue
		}

		raw := q.Get(key)

		switch {
		case key == productNameParam && b.products != nil && b.meta.HasColumn("product_id"):
			next, err := b.productFilter(ctx, f, raw)
			if err != nil {
				return f, err
			}
			f = next

		case b.meta.HasColumn(key):
			v, err := b.value(key, raw)
			if err != nil {
				return f, err
			}
			f = f.Eq(key, v)

		case strings.HasSuffix(key, "_min") && b.meta.IsRanged(strings.TrimSuffix(key, "_min")):
			n, err := parseBound(key, raw)
			if err != nil {
				return f, err
			}
			f = f.Range(strings.TrimSuffix(key, "_min"), &n, nil)

		case strings.HasSuffix(key, "_max") && b.meta.IsRanged(strings.TrimSuffix(key, "_max")):
			n, err := parseBound(key, raw)
			if err != nil {
				return f, err
			}
			f = f.Range(strings.TrimSuffix(key, "_max"), nil, &n)

		default:
			return f, fmt.Errorf("%w: unknown filter %q", models.ErrInvalidFilter, key)
		}
	}

	return f, nil
}

func (b filterBuilder) value(col, raw string) (any, error) {
	if !isNumeric(b.meta, col) {
		return raw, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidFilter, col)
	}

	return n, nil
}

func (b filterBuilder) productFilter(ctx context.Context, f store.Filter, name string) (store.Filter, error) {
	products, _, err := b.products.List(ctx, store.Filter{}.Eq("name", name), store.Page{Limit: maxProductMatches})
	if err != nil {
		return f, fmt.Errorf("resolving product_name: %w", err)
	}

	ids := make([]any, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	return f.OneOf("product_id", ids...), nil
}

func parseBound(key, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidFilter, key)
	}

	return n, nil
}
