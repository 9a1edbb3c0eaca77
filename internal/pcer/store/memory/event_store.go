package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/store"
)

// EventStore is an in-memory append-only verification log for tests and
// dev environments.  It needs the registry to resolve an owner's phones
// for history aggregation.
type EventStore struct {
	mu       sync.Mutex
	nextID   int64
	events   []store.VerificationEvent
	registry *RegistryStore
}

func NewEventStore(registry *RegistryStore) *EventStore {
	return &EventStore{nextID: 1, registry: registry}
}

func (s *EventStore) LastKind(_ context.Context, serial string) (store.EventKind, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].PCSerial == serial {
			return s.events[i].Kind, true, nil
		}
	}
	return "", false, nil
}

func (s *EventStore) AppendEvent(_ context.Context, ev store.NewEvent) (store.VerificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := store.VerificationEvent{
		ID:         s.nextID,
		PCSerial:   ev.PCSerial,
		Phone:      ev.Phone,
		Gate:       ev.Gate,
		Kind:       ev.Kind,
		OccurredAt: time.Now().UTC(),
	}
	s.nextID++
	s.events = append(s.events, rec)
	return rec, nil
}

func (s *EventStore) OwnerHistory(_ context.Context, ownerID string) ([]store.OwnerEvent, error) {
	phones := s.registry.OwnerPhones(ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		at   time.Time
		kind store.EventKind
	}
	seen := make(map[key]struct{})

	// Append order is the temporal order here, so walking the log backward
	// yields newest first without a sort.
	var out []store.OwnerEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if _, ok := phones[ev.Phone]; !ok {
			continue
		}
		k := key{at: ev.OccurredAt, kind: ev.Kind}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, store.OwnerEvent{OccurredAt: ev.OccurredAt, Kind: ev.Kind})
	}
	return out, nil
}

func (s *EventStore) OpenEntriesOlderThan(_ context.Context, cutoff time.Time) ([]store.OpenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[string]store.VerificationEvent)
	for _, ev := range s.events {
		latest[ev.PCSerial] = ev // ascending id order, last one wins
	}

	var out []store.OpenEntry
	for serial, ev := range latest {
		if ev.Kind == store.KindEntry && ev.OccurredAt.Before(cutoff) {
			out = append(out, store.OpenEntry{PCSerial: serial, EnteredAt: ev.OccurredAt})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PCSerial < out[j].PCSerial })
	return out, nil
}

// Events returns a copy of all recorded events.  Test-only helper.
func (s *EventStore) Events() []store.VerificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.VerificationEvent, len(s.events))
	copy(out, s.events)
	return out
}
