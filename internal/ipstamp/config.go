package ipstamp

import "errors"

// DefaultAttribute is the attribute populated when Config.IPAttribute is empty.
const DefaultAttribute = "ip"

// Event is a point in a record's persistence lifecycle at which attributes are stamped.
type Event string

const (
	EventBeforeInsert Event = "before_insert"
	EventBeforeUpdate Event = "before_update"
)

// Config controls which attributes receive the client IP and where the value comes from.
//
// The zero value records the request IP into "ip" before insert.
type Config struct {
	// IPAttribute is the attribute bound to EventBeforeInsert when Attributes is empty.
	IPAttribute string

	// Value, when non-nil, replaces the request IP for every write (including Touch).
	Value *string

	// Attributes binds attribute names to lifecycle events explicitly.
	// When set, IPAttribute is ignored for event binding.
	Attributes map[Event][]string

	// Disabled turns off lifecycle stamping. Touch still works for explicitly named attributes.
	Disabled bool
}

var (
	ErrUnknownEvent  = errors.New("ipstamp: unknown event")
	ErrNotConfigured = errors.New("ipstamp: behavior not configured")
)

// Fixed returns a pointer to v, for use as Config.Value.
func Fixed(v string) *string { return &v }

func (c Config) withDefaults() Config {
	out := c
	if out.IPAttribute == "" {
		out.IPAttribute = DefaultAttribute
	}
	if out.Disabled {
		out.Attributes = nil
		return out
	}

	bound := make(map[Event][]string, len(out.Attributes))
	for ev, names := range out.Attributes {
		if cleaned := uniqueNonEmpty(names); len(cleaned) > 0 {
			bound[ev] = cleaned
		}
	}
	if len(bound) == 0 {
		bound[EventBeforeInsert] = []string{out.IPAttribute}
	}
	out.Attributes = bound
	return out
}

func (c Config) validate() error {
	for ev := range c.Attributes {
		if !isKnownEvent(ev) {
			return ErrUnknownEvent
		}
	}
	return nil
}

func isKnownEvent(ev Event) bool {
	switch ev {
	case EventBeforeInsert, EventBeforeUpdate:
		return true
	default:
		return false
	}
}

func uniqueNonEmpty(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
