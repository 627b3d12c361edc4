package record

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// Reserved columns exist on every table and are managed by the Service, not by callers.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
)

var (
	ErrNotFound         = errors.New("record: not found")
	ErrDuplicate        = errors.New("record: duplicate id")
	ErrUnknownTable     = errors.New("record: unknown table")
	ErrUnknownAttribute = errors.New("record: unknown attribute")
	ErrNotPersisted     = errors.New("record: not persisted")
)

// Row is the storage shape of a record.
type Row struct {
	ID         string
	CreatedAt  time.Time
	Attributes map[string]any
}

// Record is an attribute-map entity bound to a table and, once stored, to the Store holding it.
//
// Records are request-scoped and must not be shared between goroutines.
type Record struct {
	Table     string
	ID        string
	CreatedAt time.Time

	attrs     map[string]any
	columns   map[string]struct{}
	store     Store
	persisted bool
}

func newRecord(table string, columns map[string]struct{}) *Record {
	return &Record{Table: table, attrs: map[string]any{}, columns: columns}
}

// IsNew reports whether the record has not been stored yet.
func (r *Record) IsNew() bool { return !r.persisted }

func (r *Record) Attribute(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Attributes returns a copy of the record's attribute map (reserved columns excluded).
func (r *Record) Attributes() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// SetAttribute changes an in-memory attribute. Nothing is persisted.
func (r *Record) SetAttribute(name string, value any) error {
	if err := r.checkColumn(name); err != nil {
		return err
	}
	r.attrs[name] = value
	return nil
}

// UpdateAttributes persists only the given attributes and then applies them in memory.
// It does not run any lifecycle step.
func (r *Record) UpdateAttributes(ctx context.Context, values map[string]any) error {
	if !r.persisted || r.store == nil {
		return ErrNotPersisted
	}
	for name := range values {
		if err := r.checkColumn(name); err != nil {
			return err
		}
	}
	if err := r.store.UpdateAttributes(ctx, r.Table, r.ID, values); err != nil {
		return err
	}
	for k, v := range values {
		r.attrs[k] = v
	}
	return nil
}

func (r *Record) checkColumn(name string) error {
	if name == "" || name == ColumnID || name == ColumnCreatedAt {
		return ErrUnknownAttribute
	}
	if r.columns == nil {
		return nil
	}
	if _, ok := r.columns[name]; !ok {
		return ErrUnknownAttribute
	}
	return nil
}

func (r *Record) row() Row {
	return Row{ID: r.ID, CreatedAt: r.CreatedAt, Attributes: r.Attributes()}
}

func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.attrs)+3)
	for k, v := range r.attrs {
		out[k] = v
	}
	out[ColumnID] = r.ID
	out[ColumnCreatedAt] = r.CreatedAt
	out["table"] = r.Table
	return json.Marshal(out)
}

// sortedKeys gives stores a deterministic column order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
