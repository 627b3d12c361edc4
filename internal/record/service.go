package record

import (
	"context"
	"time"

	"ipstamp/internal/ipstamp"
	"ipstamp/pkg/logger"

	"github.com/google/uuid"
)

// Service owns the record lifecycle.
//
// Lifecycle steps are explicit: Insert calls the IP behavior right before the row is
// written, Save calls it before a full update. There is no event dispatch.
type Service struct {
	store  Store
	schema Schema
	ip     *ipstamp.Behavior
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

// NewService wires a store, the accepted tables and the IP behavior. ip may be nil,
// in which case records are stored without IP stamping and Touch is unavailable.
func NewService(store Store, schema Schema, ip *ipstamp.Behavior) *Service {
	return &Service{store: store, schema: schema, ip: ip, clock: time.Now}
}

// New returns an unsaved record for table.
func (s *Service) New(table string) (*Record, error) {
	cols, ok := s.schema.Columns(table)
	if !ok {
		return nil, ErrUnknownTable
	}
	return newRecord(table, cols), nil
}

// Create builds a record from attrs and inserts it.
func (s *Service) Create(ctx context.Context, table string, attrs map[string]any) (*Record, error) {
	rec, err := s.New(table)
	if err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(attrs) {
		if err := rec.SetAttribute(k, attrs[k]); err != nil {
			return nil, err
		}
	}
	if err := s.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert stores a new record: id and created_at are assigned, the IP is stamped, then
// the row is written.
func (s *Service) Insert(ctx context.Context, rec *Record) error {
	if !rec.IsNew() {
		return ErrDuplicate
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock().UTC()
	}
	ctx = logger.WithAttrs(ctx, "table", rec.Table, "id", rec.ID)
	if s.ip != nil {
		if err := s.ip.BeforeInsert(ctx, rec); err != nil {
			return err
		}
	}
	if err := s.store.Insert(ctx, rec.Table, rec.row()); err != nil {
		return err
	}
	rec.store = s.store
	rec.persisted = true

	logger.From(ctx).Debug("record inserted")
	return nil
}

// Save inserts new records and writes every attribute of stored ones.
func (s *Service) Save(ctx context.Context, rec *Record) error {
	if rec.IsNew() {
		return s.Insert(ctx, rec)
	}
	if s.ip != nil {
		if err := s.ip.BeforeUpdate(ctx, rec); err != nil {
			return err
		}
	}
	return s.store.UpdateAttributes(ctx, rec.Table, rec.ID, rec.Attributes())
}

// Find loads a stored record.
func (s *Service) Find(ctx context.Context, table, id string) (*Record, error) {
	cols, ok := s.schema.Columns(table)
	if !ok {
		return nil, ErrUnknownTable
	}
	row, err := s.store.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	rec := newRecord(table, cols)
	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	for k, v := range row.Attributes {
		rec.attrs[k] = v
	}
	rec.store = s.store
	rec.persisted = true
	return rec, nil
}

// IPAttribute is the attribute Touch defaults to, or "" when IP stamping is not wired.
func (s *Service) IPAttribute() string {
	if s.ip == nil {
		return ""
	}
	return s.ip.IPAttribute()
}

// Touch re-stamps the named attributes of a stored record with a single partial update.
// With no names, the behavior's configured IP attribute is touched.
func (s *Service) Touch(ctx context.Context, table, id string, names ...string) (*Record, error) {
	if s.ip == nil {
		return nil, ipstamp.ErrNotConfigured
	}
	if len(names) == 0 {
		names = []string{s.ip.IPAttribute()}
	}
	ctx = logger.WithAttrs(ctx, "table", table, "id", id)
	rec, err := s.Find(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if err := s.ip.Touch(ctx, rec, names...); err != nil {
		return nil, err
	}
	return rec, nil
}
