// Package models defines the statistics records and account types.
package models

import "fmt"

// Table identifies one persisted statistics table.
type Table int

// Statistics tables, declared in ingestion order.
const (
	TableProducts Table = iota + 1
	TableProductions
	TableProcessings
	TableCommercializations
	TableImportations
	TableExportations
)

var tableNames = map[Table]string{
	TableProducts:           "products",
	TableProductions:        "productions",
	TableProcessings:        "processings",
	TableCommercializations: "commercializations",
	TableImportations:       "importations",
	TableExportations:       "exportations",
}

// Tables returns every statistics table in ingestion order.
func Tables() []Table {
	return []Table{
		TableProducts,
		TableProductions,
		TableProcessings,
		TableCommercializations,
		TableImportations,
		TableExportations,
	}
}

// String returns the SQL table name.
func (t Table) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}

	return fmt.Sprintf("table(%d)", int(t))
}

// ParseTable resolves a table name such as "products".
func ParseTable(name string) (Table, error) {
	for t, n := range tableNames {
		if n == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// MarshalText encodes the table as its name.
func (t Table) MarshalText() ([]byte, error) {
	if _, ok := tableNames[t]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTable, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText decodes a table name.
func (t *Table) UnmarshalText(text []byte) error {
	parsed, err := ParseTable(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}
