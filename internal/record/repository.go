package record

import "context"

// Store is the persistence contract for records.
//
// UpdateAttributes is a partial update: only the named columns are written and the
// call fails with ErrNotFound if no row has the given id. Driver errors (unknown
// column, constraint violation) are returned unwrapped.
type Store interface {
	Insert(ctx context.Context, table string, row Row) error
	Get(ctx context.Context, table, id string) (Row, error)
	UpdateAttributes(ctx context.Context, table, id string, values map[string]any) error
}
