package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query accumulates filters for one table before a terminal operation
// (Get, Single, MaybeSingle, Insert, Upsert, Update, Delete) runs it.
type Query struct {
	client *Client
	table  string
	params url.Values
}

func newQuery(c *Client, table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Select sets the column projection, e.g. "*" or "date" or "*, subtasks(*)"
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq filters rows where column equals value
func (q *Query) Eq(column string, value any) *Query {
	q.params.Add(column, "eq."+fmt.Sprint(value))
	return q
}

// Neq filters rows where column does not equal value
func (q *Query) Neq(column string, value any) *Query {
	q.params.Add(column, "neq."+fmt.Sprint(value))
	return q
}

// Gte filters rows where column >= value
func (q *Query) Gte(column string, value any) *Query {
	q.params.Add(column, "gte."+fmt.Sprint(value))
	return q
}

// Lte filters rows where column <= value
func (q *Query) Lte(column string, value any) *Query {
	q.params.Add(column, "lte."+fmt.Sprint(value))
	return q
}

// Lt filters rows where column < value
func (q *Query) Lt(column string, value any) *Query {
	q.params.Add(column, "lt."+fmt.Sprint(value))
	return q
}

// IsNull filters rows where column is null
func (q *Query) IsNull(column string) *Query {
	q.params.Add(column, "is.null")
	return q
}

// NotNull filters rows where column is not null
func (q *Query) NotNull(column string) *Query {
	q.params.Add(column, "not.is.null")
	return q
}

// Or combines filter conditions ("date.gte.2024-01-01", ...) disjunctively
func (q *Query) Or(conditions ...string) *Query {
	q.params.Add("or", "("+strings.Join(conditions, ",")+")")
	return q
}

// Order sorts results by column
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Add("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) url() string {
	u := q.client.baseURL + "/rest/v1/" + q.table
	if encoded := q.params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// Get runs the select and decodes the result set into dest (a slice pointer)
func (q *Query) Get(ctx context.Context, dest any) error {
	return q.client.do(ctx, "GET", q.url(), nil, nil, dest)
}

// Single runs the select expecting exactly one row. Zero rows surface as a
// structured error with CodeNoRows, which IsNotFound recognizes.
func (q *Query) Single(ctx context.Context, dest any) error {
	var rows []json.RawMessage
	if err := q.Get(ctx, &rows); err != nil {
		return err
	}
	switch len(rows) {
	case 0:
		return &Error{Code: CodeNoRows, Message: "no rows found in " + q.table}
	case 1:
		return json.Unmarshal(rows[0], dest)
	default:
		return &Error{Message: fmt.Sprintf("expected a single row in %s, got %d", q.table, len(rows))}
	}
}

// MaybeSingle is Single with zero rows treated as a normal branch.
// It reports whether a row was found.
func (q *Query) MaybeSingle(ctx context.Context, dest any) (bool, error) {
	err := q.Single(ctx, dest)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert inserts one value or a batch, decoding the inserted rows into dest
// when dest is non-nil
func (q *Query) Insert(ctx context.Context, value any, dest any) error {
	headers := map[string]string{"Prefer": "return=representation"}
	return q.client.do(ctx, "POST", q.url(), headers, value, dest)
}

// Upsert inserts value, merging with an existing row on key conflict
func (q *Query) Upsert(ctx context.Context, value any, dest any) error {
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"}
	return q.client.do(ctx, "POST", q.url(), headers, value, dest)
}

// Update patches all rows matching the accumulated filters, decoding the
// updated rows into dest when dest is non-nil
func (q *Query) Update(ctx context.Context, value any, dest any) error {
	headers := map[string]string{"Prefer": "return=representation"}
	return q.client.do(ctx, "PATCH", q.url(), headers, value, dest)
}

// Delete removes all rows matching the accumulated filters
func (q *Query) Delete(ctx context.Context) error {
	return q.client.do(ctx, "DELETE", q.url(), nil, nil, nil)
}
