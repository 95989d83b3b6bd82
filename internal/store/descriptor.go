package store

import (
	"fmt"
	"slices"

	"github.com/persistorai/vitiapi/internal/models"
)

// Meta is the type-independent part of a table description.
type Meta struct {
	// Name is the SQL table name.
	Name string
	// Columns are the non-id columns in insert order. Together they form
	// the natural key CheckAndCreate matches on.
	Columns []string
	// Ranged lists the numeric columns that accept min/max filters.
	Ranged []string
}

// HasColumn reports whether col is id or one of the non-id columns.
func (m Meta) HasColumn(col string) bool {
	return col == "id" || slices.Contains(m.Columns, col)
}

// IsRanged reports whether col accepts range filters.
func (m Meta) IsRanged(col string) bool {
	return col == "id" || slices.Contains(m.Ranged, col)
}

func (m Meta) selectColumns() []string {
	return append([]string{"id"}, m.Columns...)
}

// Descriptor binds a record type to its table.
type Descriptor[T any] struct {
	Meta
	// Values returns the record's values in Columns order.
	Values func(r *T) []any
	// Fields returns scan destinations for id followed by Columns.
	Fields func(r *T) []any
	// ID and SetID access the primary key.
	ID    func(r *T) int64
	SetID func(r *T, id int64)
}

// scan reads one row laid out as id + Columns.
func (d Descriptor[T]) scan(scan func(dest ...any) error) (*T, error) {
	var r T
	if err := scan(d.Fields(&r)...); err != nil {
		return nil, err
	}

	return &r, nil
}

// Products describes the products table.
var Products = Descriptor[models.Product]{
	Meta: Meta{
		Name:    models.TableProducts.String(),
		Columns: []string{"name", "category"},
	},
	Values: func(r *models.Product) []any { return []any{r.Name, r.Category} },
	Fields: func(r *models.Product) []any { return []any{&r.ID, &r.Name, &r.Category} },
	ID:     func(r *models.Product) int64 { return r.ID },
	SetID:  func(r *models.Product, id int64) { r.ID = id },
}

// Productions describes the productions table.
var Productions = Descriptor[models.Production]{
	Meta: Meta{
		Name:    models.TableProductions.String(),
		Columns: []string{"year", "quantity", "product_id"},
		Ranged:  []string{"year", "quantity"},
	},
	Values: func(r *models.Production) []any { return []any{r.Year, r.Quantity, r.ProductID} },
	Fields: func(r *models.Production) []any { return []any{&r.ID, &r.Year, &r.Quantity, &r.ProductID} },
	ID:     func(r *models.Production) int64 { return r.ID },
	SetID:  func(r *models.Production, id int64) { r.ID = id },
}

// Processings describes the processings table.
var Processings = Descriptor[models.Processing]{
	Meta: Meta{
		Name:    models.TableProcessings.String(),
		Columns: []string{"name", "category", "subcategory", "quantity", "year"},
		Ranged:  []string{"quantity", "year"},
	},
	Values: func(r *models.Processing) []any {
		return []any{r.Name, r.Category, r.Subcategory, r.Quantity, r.Year}
	},
	Fields: func(r *models.Processing) []any {
		return []any{&r.ID, &r.Name, &r.Category, &r.Subcategory, &r.Quantity, &r.Year}
	},
	ID:    func(r *models.Processing) int64 { return r.ID },
	SetID: func(r *models.Processing, id int64) { r.ID = id },
}

// Commercializations describes the commercializations table.
var Commercializations = Descriptor[models.Commercialization]{
	Meta: Meta{
		Name:    models.TableCommercializations.String(),
		Columns: []string{"product_id", "quantity", "year"},
		Ranged:  []string{"quantity", "year"},
	},
	Values: func(r *models.Commercialization) []any { return []any{r.ProductID, r.Quantity, r.Year} },
	Fields: func(r *models.Commercialization) []any {
		return []any{&r.ID, &r.ProductID, &r.Quantity, &r.Year}
	},
	ID:    func(r *models.Commercialization) int64 { return r.ID },
	SetID: func(r *models.Commercialization, id int64) { r.ID = id },
}

var tradeMeta = Meta{
	Columns: []string{"country", "category", "weight", "value", "year"},
	Ranged:  []string{"weight", "value", "year"},
}

func withName(m Meta, name string) Meta {
	m.Name = name

	return m
}

// Importations describes the importations table.
var Importations = Descriptor[models.Importation]{
	Meta: withName(tradeMeta, models.TableImportations.String()),
	Values: func(r *models.Importation) []any {
		return []any{r.Country, r.Category, r.Weight, r.Value, r.Year}
	},
	Fields: func(r *models.Importation) []any {
		return []any{&r.ID, &r.Country, &r.Category, &r.Weight, &r.Value, &r.Year}
	},
	ID:    func(r *models.Importation) int64 { return r.ID },
	SetID: func(r *models.Importation, id int64) { r.ID = id },
}

// Exportations describes the exportations table.
var Exportations = Descriptor[models.Exportation]{
	Meta: withName(tradeMeta, models.TableExportations.String()),
	Values: func(r *models.Exportation) []any {
		return []any{r.Country, r.Category, r.Weight, r.Value, r.Year}
	},
	Fields: func(r *models.Exportation) []any {
		return []any{&r.ID, &r.Country, &r.Category, &r.Weight, &r.Value, &r.Year}
	},
	ID:    func(r *models.Exportation) int64 { return r.ID },
	SetID: func(r *models.Exportation, id int64) { r.ID = id },
}

// Users describes the account table.
var Users = Descriptor[models.User]{
	Meta: Meta{
		Name: "users",
		Columns: []string{
			"name", "username", "email", "password_hash", "api_key_hash",
			"type", "active", "last_login_at", "created_at", "updated_at",
		},
	},
	Values: func(r *models.User) []any {
		return []any{
			r.Name, r.Username, r.Email, r.PasswordHash, r.APIKeyHash,
			string(r.Type), r.Active, r.LastLoginAt, r.CreatedAt, r.UpdatedAt,
		}
	},
	Fields: func(r *models.User) []any {
		return []any{
			&r.ID, &r.Name, &r.Username, &r.Email, &r.PasswordHash, &r.APIKeyHash,
			&r.Type, &r.Active, &r.LastLoginAt, &r.CreatedAt, &r.UpdatedAt,
		}
	},
	ID:    func(r *models.User) int64 { return r.ID },
	SetID: func(r *models.User, id int64) { r.ID = id },
}

// metas is the static table-identifier to descriptor mapping.
var metas = map[models.Table]Meta{
	models.TableProducts:           Products.Meta,
	models.TableProductions:        Productions.Meta,
	models.TableProcessings:        Processings.Meta,
	models.TableCommercializations: Commercializations.Meta,
	models.TableImportations:       Importations.Meta,
	models.TableExportations:       Exportations.Meta,
}

// MetaFor returns the description of a statistics table.
func MetaFor(t models.Table) (Meta, error) {
	m, ok := metas[t]
	if !ok {
		return Meta{}, fmt.Errorf("%w: %s", models.ErrUnknownTable, t)
	}

	return m, nil
}
