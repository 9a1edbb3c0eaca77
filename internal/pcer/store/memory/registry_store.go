package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/store"
)

// RegistryStore is an in-memory registry for tests and dev environments.
type RegistryStore struct {
	mu     sync.RWMutex
	nextID int64
	recs   []store.RegistrationRecord
}

func NewRegistryStore() *RegistryStore {
	return &RegistryStore{nextID: 1}
}

func (s *RegistryStore) CreateRegistration(_ context.Context, reg store.NewRegistration) (store.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.recs {
		if r.PCSerial == reg.PCSerial {
			return store.RegistrationRecord{}, store.ErrDuplicateSerial
		}
	}

	rec := store.RegistrationRecord{
		ID:           s.nextID,
		OwnerName:    reg.OwnerName,
		OwnerID:      reg.OwnerID,
		Phone:        reg.Phone,
		PCSerial:     reg.PCSerial,
		RegisteredAt: time.Now().UTC(),
	}
	s.nextID++
	s.recs = append(s.recs, rec)
	return rec, nil
}

func (s *RegistryStore) FindBySerialAndPhone(_ context.Context, serial, phone string) (store.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.recs {
		if r.PCSerial == serial && r.Phone == phone {
			return r, nil
		}
	}
	return store.RegistrationRecord{}, store.ErrNotFound
}

func (s *RegistryStore) ListByRegistrationTime(_ context.Context, desc bool) ([]store.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RegistrationRecord, len(s.recs))
	copy(out, s.recs)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			if desc {
				return out[i].ID > out[j].ID
			}
			return out[i].ID < out[j].ID
		}
		if desc {
			return out[i].RegisteredAt.After(out[j].RegisteredAt)
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

// OwnerPhones returns the phones of all registrations owned by ownerID.
// Used by the memory EventStore to aggregate owner history.
func (s *RegistryStore) OwnerPhones(ownerID string) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phones := make(map[string]struct{})
	for _, r := range s.recs {
		if r.OwnerID == ownerID {
			phones[r.Phone] = struct{}{}
		}
	}
	return phones
}
