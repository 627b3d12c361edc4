package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps audit events in process, indexed by the record they concern.
// The api binary uses it when the record backend is not Postgres; events are lost on restart.

type MemoryRepo struct {
	mu       sync.Mutex
	events   []Event
	byRecord map[recordKey][]int
}

type recordKey struct{ table, id string }

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byRecord: map[recordKey][]int{}}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recordKey{e.Table, e.RecordID}
	r.byRecord[k] = append(r.byRecord[k], len(r.events))
	r.events = append(r.events, e)
	return nil
}

// Events returns every event in append order.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ForRecord returns the events recorded against table/id in append order.
func (r *MemoryRepo) ForRecord(table, id string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.byRecord[recordKey{table, id}]
	out := make([]Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.events[i])
	}
	return out
}
