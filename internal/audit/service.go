package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"ipstamp/internal/requestip"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Table == "" || e.RecordID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = requestip.FromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// LogRecordCreated records a record insertion.
func (s *Service) LogRecordCreated(ctx context.Context, actorUserID, actorRole, table, recordID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeRecordCreated,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		Table:       table,
		RecordID:    recordID,
		Message:     "record created",
	})
}

// LogTouch records an explicit IP touch of the given attributes.
func (s *Service) LogTouch(ctx context.Context, actorUserID, actorRole, table, recordID string, attributes []string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeIPTouched,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		Table:       table,
		RecordID:    recordID,
		Attributes:  strings.Join(attributes, ","),
		Message:     "ip attributes touched",
	})
}
