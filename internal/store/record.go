package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/vitiapi/internal/models"
)

// RecordStore is the generic CRUD and dedup store for one table.
type RecordStore[T any] struct {
	Base
	desc Descriptor[T]
}

// NewRecordStore creates a RecordStore for desc.
func NewRecordStore[T any](base Base, desc Descriptor[T]) *RecordStore[T] {
	return &RecordStore[T]{Base: base, desc: desc}
}

// Meta returns the table description.
func (s *RecordStore[T]) Meta() Meta {
	return s.desc.Meta
}

// Create inserts rec in its own transaction and populates its generated id.
func (s *RecordStore[T]) Create(ctx context.Context, rec *T) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(s.desc.Name)
	ib.Cols(s.desc.Columns...)
	ib.Values(s.desc.Values(rec)...)

	query, args := ib.Build()
	query += " RETURNING id"

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op.

	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}

		return fmt.Errorf("inserting into %s: %w", s.desc.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing insert into %s: %w", s.desc.Name, err)
	}

	s.desc.SetID(rec, id)

	return nil
}

// Get returns the record with the given id or models.ErrNotFound.
func (s *RecordStore[T]) Get(ctx context.Context, id int64) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(s.desc.selectColumns()...)
	sb.From(s.desc.Name)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	rec, err := s.desc.scan(s.DB.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, fmt.Errorf("getting %s %d: %w", s.desc.Name, id, err)
	}

	return rec, nil
}

// GetAll returns every record in insertion order.
func (s *RecordStore[T]) GetAll(ctx context.Context) ([]T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(s.desc.selectColumns()...)
	sb.From(s.desc.Name)
	sb.OrderBy("id")

	query, args := sb.Build()

	return s.collect(ctx, query, args)
}

// Update upserts rec by primary key in its own transaction.
func (s *RecordStore[T]) Update(ctx context.Context, rec *T) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(s.desc.Name)
	ib.Cols(s.desc.selectColumns()...)
	ib.Values(append([]any{s.desc.ID(rec)}, s.desc.Values(rec)...)...)

	sets := make([]string, len(s.desc.Columns))
	for i, col := range s.desc.Columns {
		sets[i] = col + " = EXCLUDED." + col
	}

	query, args := ib.Build()
	query += " ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op.

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}

		return fmt.Errorf("upserting %s %d: %w", s.desc.Name, s.desc.ID(rec), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert into %s: %w", s.desc.Name, err)
	}

	return nil
}

// Delete removes the record with the given id. Deleting an absent id is not an error.
func (s *RecordStore[T]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(s.desc.Name)
	db.Where(db.Equal("id", id))

	query, args := db.Build()

	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s %d: %w", s.desc.Name, id, err)
	}

	return nil
}

// CheckAndCreate inserts rec unless a row with identical non-id fields
// already exists. It returns true when a row was written.
//
// The natural-key unique index settles a race between the lookup and the
// insert; the losing caller sees false.
func (s *RecordStore[T]) CheckAndCreate(ctx context.Context, rec *T) (bool, error) {
	exists, err := s.exists(ctx, rec)
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	if err := s.Create(ctx, rec); err != nil {
		// A concurrent writer inserted the same row between the lookup and the insert.
		if errors.Is(err, models.ErrDuplicateKey) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *RecordStore[T]) exists(ctx context.Context, rec *T) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	vals := s.desc.Values(rec)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("1")
	sb.From(s.desc.Name)

	conds := make([]string, len(s.desc.Columns))
	for i, col := range s.desc.Columns {
		conds[i] = fmt.Sprintf("%s IS NOT DISTINCT FROM %s", col, sb.Var(vals[i]))
	}

	sb.Where(conds...)
	sb.Limit(1)

	query, args := sb.Build()

	var one int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("checking %s natural key: %w", s.desc.Name, err)
	}

	return true, nil
}

// Count returns the number of rows matching f.
func (s *RecordStore[T]) Count(ctx context.Context, f Filter) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(s.desc.Name)

	conds, err := f.where(sb, s.desc.Meta)
	if err != nil {
		return 0, err
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}

	query, args := sb.Build()

	var n int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.desc.Name, err)
	}

	return n, nil
}

// List returns one page of records matching f ordered by id, plus the total match count.
func (s *RecordStore[T]) List(ctx context.Context, f Filter, p Page) ([]T, int, error) {
	total, err := s.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if p.Limit <= 0 || p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}

	if p.Offset < 0 {
		p.Offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(s.desc.selectColumns()...)
	sb.From(s.desc.Name)

	conds, err := f.where(sb, s.desc.Meta)
	if err != nil {
		return nil, 0, err
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}

	sb.OrderBy("id")
	sb.Limit(p.Limit).Offset(p.Offset)

	query, args := sb.Build()

	recs, err := s.collect(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

// collect runs query and scans every row.
func (s *RecordStore[T]) collect(ctx context.Context, query string, args []any) ([]T, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.desc.Name, err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		rec, err := s.desc.scan(row.Scan)
		if err != nil {
			var zero T

			return zero, err
		}

		return *rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.desc.Name, err)
	}

	return recs, nil
}
