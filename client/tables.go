package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// TableService reads one statistics table.
type TableService[T any] struct {
	c     *Client
	table string
}

func newTableService[T any](c *Client, table string) *TableService[T] {
	return &TableService[T]{c: c, table: table}
}

// Table returns the table name this service reads.
func (s *TableService[T]) Table() string {
	return s.table
}

// List returns one page of records. opts may be nil.
func (s *TableService[T]) List(ctx context.Context, opts *ListOptions) (*Page[T], error) {
	var raw map[string]json.RawMessage
	if err := s.c.get(ctx, "/api/v1/"+s.table, opts.values(), &raw); err != nil {
		return nil, err
	}

	page := &Page[T]{}
	if data, ok := raw[s.table]; ok {
		if err := json.Unmarshal(data, &page.Records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.table, err)
		}
	}
	if data, ok := raw["pagination"]; ok {
		if err := json.Unmarshal(data, &page.Pagination); err != nil {
			return nil, fmt.Errorf("decode pagination: %w", err)
		}
	}
	return page, nil
}

// Get returns the record with the given id.
func (s *TableService[T]) Get(ctx context.Context, id int64) (*T, error) {
	var rec T
	if err := s.c.get(ctx, "/api/v1/"+s.table+"/"+strconv.FormatInt(id, 10), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (o *ListOptions) values() url.Values {
	if o == nil {
		return nil
	}
	params := url.Values{}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		params.Set("offset", strconv.Itoa(o.Offset))
	}
	for k, v := range o.Filters {
		params.Set(k, v)
	}
	return params
}
