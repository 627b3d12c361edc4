package ipstamp

import (
	"context"

	"ipstamp/internal/requestip"
	"ipstamp/pkg/logger"
)

// Record is the host entity the behavior writes into.
//
// The behavior never validates attribute names; SetAttribute and UpdateAttributes
// report unknown columns, missing rows and constraint violations themselves.
type Record interface {
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any) error
	// UpdateAttributes persists only the given attributes of an already stored record.
	UpdateAttributes(ctx context.Context, values map[string]any) error
}

// Value sources reported to Metrics.
const (
	SourceOverride = "override"
	SourceRequest  = "request"
	SourceNone     = "none"
)

// Behavior stamps the originating client IP onto records.
//
// It holds no per-request state and is safe for concurrent use once built.
type Behavior struct {
	cfg     Config
	metrics Metrics
}

type Option func(*Behavior)

// WithMetrics installs a Metrics implementation. nil keeps the noop default.
func WithMetrics(m Metrics) Option {
	return func(b *Behavior) {
		if m != nil {
			b.metrics = m
		}
	}
}

func New(cfg Config, opts ...Option) (*Behavior, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &Behavior{cfg: cfg, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// IPAttribute returns the configured default attribute name.
func (b *Behavior) IPAttribute() string { return b.cfg.IPAttribute }

// Attributes returns a copy of the attribute names bound to ev.
func (b *Behavior) Attributes(ev Event) []string {
	names := b.cfg.Attributes[ev]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Resolve returns the override value if configured, otherwise the client IP carried by ctx.
// The result is never cached.
func (b *Behavior) Resolve(ctx context.Context) string {
	v, _ := b.resolve(ctx)
	return v
}

// Source reports where Resolve would take its value from for ctx.
func (b *Behavior) Source(ctx context.Context) string {
	_, src := b.resolve(ctx)
	return src
}

func (b *Behavior) resolve(ctx context.Context) (string, string) {
	if b.cfg.Value != nil {
		return *b.cfg.Value, SourceOverride
	}
	if ip := requestip.FromContext(ctx); ip != "" {
		return ip, SourceRequest
	}
	return "", SourceNone
}

// stored is the value written into records: nil when there is nothing to record,
// so stores keep the column NULL or absent.
func (b *Behavior) stored(ctx context.Context) (any, string) {
	v, src := b.resolve(ctx)
	if src == SourceNone {
		return nil, src
	}
	return v, src
}

// Apply writes the resolved value into every attribute bound to ev, overwriting prior values.
// Without an override or a client IP the attributes are set to nil.
// Nothing is written when no attribute is bound to ev.
func (b *Behavior) Apply(ctx context.Context, ev Event, rec Record) error {
	names := b.cfg.Attributes[ev]
	if len(names) == 0 {
		return nil
	}

	value, src := b.stored(ctx)
	for _, name := range names {
		if err := rec.SetAttribute(name, value); err != nil {
			return err
		}
	}
	b.metrics.RecordWrite(ev, src, len(names))
	logger.From(ctx).Debug("ip attributes stamped", "event", string(ev), "attributes", names, "source", src)
	return nil
}

// BeforeInsert is the step a creation path calls right before persisting a new record.
func (b *Behavior) BeforeInsert(ctx context.Context, rec Record) error {
	return b.Apply(ctx, EventBeforeInsert, rec)
}

// BeforeUpdate is the step an update path calls right before saving an existing record.
func (b *Behavior) BeforeUpdate(ctx context.Context, rec Record) error {
	return b.Apply(ctx, EventBeforeUpdate, rec)
}

// Touch resolves a fresh value and persists it immediately into the named attributes
// with a single partial update, bypassing the record's save path.
//
// Errors from UpdateAttributes are returned as-is.
func (b *Behavior) Touch(ctx context.Context, rec Record, names ...string) error {
	names = uniqueNonEmpty(names)
	if len(names) == 0 {
		return nil
	}

	value, src := b.stored(ctx)
	values := make(map[string]any, len(names))
	for _, name := range names {
		values[name] = value
	}
	if err := rec.UpdateAttributes(ctx, values); err != nil {
		return err
	}
	b.metrics.RecordTouch(src, len(names))
	return nil
}
