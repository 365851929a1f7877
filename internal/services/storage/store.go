// Package storage is the per-user document store behind the assistant.
// Records are grouped by user and collection and are append-only from the
// pipeline's point of view.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNotFound       = errors.New("DOCUMENT_NOT_FOUND")
	ErrWriteFailed    = errors.New("STORAGE_WRITE_FAILED")
	ErrQueryFailed    = errors.New("STORAGE_QUERY_FAILED")
	ErrInvalidOptions = errors.New("INVALID_QUERY_OPTIONS")
)

// Record is one stored document.
type Record struct {
	ID        string                 `json:"id"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
}

// Filter is an equality match on a top-level data field.
type Filter struct {
	Field string
	Value interface{}
}

// OrderCreatedAt sorts by insertion time instead of a data field.
const OrderCreatedAt = "created_at"

type QueryOptions struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Store is implemented by every backend.
type Store interface {
	Append(ctx context.Context, userID, collection string, record Record) (string, error)
	Query(ctx context.Context, userID, collection string, opts QueryOptions) ([]Record, error)
	Get(ctx context.Context, userID, collection, id string) (Record, error)
	Delete(ctx context.Context, userID, collection, id string) error
}

// Recent is the common "newest first" query.
func Recent(limit int, filters ...Filter) QueryOptions {
	return QueryOptions{
		Filters:    filters,
		OrderBy:    OrderCreatedAt,
		Descending: true,
		Limit:      limit,
	}
}

func (o QueryOptions) validate() error {
	if o.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidOptions, o.Limit)
	}
	for _, f := range o.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: empty filter field", ErrInvalidOptions)
		}
	}
	return nil
}

// matches compares values by their printed form so numbers decoded from
// JSON still equal the ints callers pass in.
func (f Filter) matches(data map[string]interface{}) bool {
	v, ok := data[f.Field]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == fmt.Sprint(f.Value)
}

// apply filters, orders and limits records in process. Backends that cannot
// push a clause down use it too.
func apply(records []Record, opts QueryOptions) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		keep := true
		for _, f := range opts.Filters {
			if !f.matches(r.Data) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}

	if opts.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if opts.Descending {
				return lessBy(out[j], out[i], opts.OrderBy)
			}
			return lessBy(out[i], out[j], opts.OrderBy)
		})
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func lessBy(a, b Record, field string) bool {
	if field == OrderCreatedAt {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	av, bv := a.Data[field], b.Data[field]
	if an, ok := av.(float64); ok {
		if bn, ok := bv.(float64); ok {
			return an < bn
		}
	}
	return fmt.Sprint(av) < fmt.Sprint(bv)
}
