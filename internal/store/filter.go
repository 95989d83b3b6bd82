package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/huandu/go-sqlbuilder"

	"github.com/persistorai/vitiapi/internal/models"
)

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// Filter narrows List and Count. Keys are column names.
type Filter struct {
	Equal map[string]any
	In    map[string][]any
	Min   map[string]int64
	Max   map[string]int64
}

// Eq returns a copy of f with an equality condition added.
func (f Filter) Eq(col string, v any) Filter {
	f.Equal = withKey(f.Equal, col, v)

	return f
}

// Range returns a copy of f with inclusive bounds on col. Nil bounds are open.
func (f Filter) Range(col string, lo, hi *int64) Filter {
	if lo != nil {
		f.Min = withKey(f.Min, col, *lo)
	}

	if hi != nil {
		f.Max = withKey(f.Max, col, *hi)
	}

	return f
}

// OneOf returns a copy of f restricting col to vs. An empty vs matches nothing.
func (f Filter) OneOf(col string, vs ...any) Filter {
	f.In = withKey(f.In, col, vs)

	return f
}

func withKey[V any](m map[string]V, k string, v V) map[string]V {
	out := make(map[string]V, len(m)+1)
	maps.Copy(out, m)
	out[k] = v

	return out
}

// Page bounds a List query.
type Page struct {
	Limit  int
	Offset int
}

// where renders f as conditions on sb. Column names are checked against
// meta; map keys are sorted so the generated SQL is stable.
func (f Filter) where(sb *sqlbuilder.SelectBuilder, meta Meta) ([]string, error) {
	var conds []string

	for _, col := range slices.Sorted(maps.Keys(f.Equal)) {
		if !meta.HasColumn(col) {
			return nil, fmt.Errorf("%w: unknown column %q", models.ErrInvalidFilter, col)
		}

		conds = append(conds, sb.Equal(col, f.Equal[col]))
	}

	for _, col := range slices.Sorted(maps.Keys(f.In)) {
		if !meta.HasColumn(col) {
			return nil, fmt.Errorf("%w: unknown column %q", models.ErrInvalidFilter, col)
		}

		vs := f.In[col]
		if len(vs) == 0 {
			conds = append(conds, "FALSE")

			continue
		}

		conds = append(conds, sb.In(col, vs...))
	}

	for _, col := range slices.Sorted(maps.Keys(f.Min)) {
		if !meta.IsRanged(col) {
			return nil, fmt.Errorf("%w: %q does not accept ranges", models.ErrInvalidFilter, col)
		}

		conds = append(conds, sb.GreaterEqualThan(col, f.Min[col]))
	}

	for _, col := range slices.Sorted(maps.Keys(f.Max)) {
		if !meta.IsRanged(col) {
			return nil, fmt.Errorf("%w: %q does not accept ranges", models.ErrInvalidFilter, col)
		}

		conds = append(conds, sb.LessEqualThan(col, f.Max[col]))
	}

	return conds, nil
}
