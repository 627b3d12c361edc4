package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block record writes on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the client IP of the request that caused the event.
	// Service.Append fills it from the request context when empty.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target record.
	Table    string `json:"table" db:"record_table"`
	RecordID string `json:"record_id" db:"record_id"`

	// Attributes lists the record attributes written, comma separated.
	Attributes string `json:"attributes,omitempty" db:"attributes"`

	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRecordCreated EventType = "record_created"
	EventTypeIPTouched     EventType = "ip_touched"
)
