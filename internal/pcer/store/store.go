package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateSerial is returned by CreateRegistration when a
	// registration with the same serial already exists.
	ErrDuplicateSerial = errors.New("pc_serial already registered")

	// ErrNotFound is returned by lookups that match no registration.
	ErrNotFound = errors.New("registration not found")
)

// EventKind is the direction of a verification event.
type EventKind string

const (
	KindEntry EventKind = "ENTRY"
	KindExit  EventKind = "EXIT"
)

// RegistrationRecord is one (owner, PC serial) registration.  Identifying
// fields are stored trimmed and upper-cased; the engine normalizes before
// every store call, so stores compare with plain equality.
type RegistrationRecord struct {
	ID           int64
	OwnerName    string
	OwnerID      string
	Phone        string
	PCSerial     string
	RegisteredAt time.Time
}

// NewRegistration carries the normalized fields of a registration to be
// created.  ID and RegisteredAt are assigned by the store.
type NewRegistration struct {
	OwnerName string
	OwnerID   string
	Phone     string
	PCSerial  string
}

// VerificationEvent is one ENTRY or EXIT recorded for a serial.  Events
// are append-only; the id order is the authoritative temporal order.
type VerificationEvent struct {
	ID         int64
	PCSerial   string
	Phone      string
	Gate       string
	Kind       EventKind
	OccurredAt time.Time
}

// NewEvent carries the normalized fields of an event to be appended.
// ID and OccurredAt are assigned by the store.
type NewEvent struct {
	PCSerial string
	Phone    string
	Gate     string
	Kind     EventKind
}

// OwnerEvent is one row of an owner's aggregated traversal history.
type OwnerEvent struct {
	OccurredAt time.Time
	Kind       EventKind
}

// OpenEntry identifies a device whose latest event is an ENTRY, i.e. a
// device currently inside the facility.
type OpenEntry struct {
	PCSerial  string
	EnteredAt time.Time
}

// RegistryStore persists registrations and enforces serial uniqueness.
// It holds no sequencing rules; those belong to the engine.
type RegistryStore interface {
	CreateRegistration(ctx context.Context, reg NewRegistration) (RegistrationRecord, error)
	FindBySerialAndPhone(ctx context.Context, serial, phone string) (RegistrationRecord, error)
	ListByRegistrationTime(ctx context.Context, desc bool) ([]RegistrationRecord, error)
}

// EventStore persists verification events as an append-only log.
type EventStore interface {
	// LastKind returns the kind of the newest event for the serial by id
	// order.  ok is false when the serial has no events.
	LastKind(ctx context.Context, serial string) (kind EventKind, ok bool, err error)

	// AppendEvent always appends; whether the event is legal is the
	// engine's decision, made before calling.
	AppendEvent(ctx context.Context, ev NewEvent) (VerificationEvent, error)

	// OwnerHistory returns events whose phone matches any registration
	// owned by ownerID, de-duplicated, newest first.  Unknown owners get
	// an empty slice, not an error.
	OwnerHistory(ctx context.Context, ownerID string) ([]OwnerEvent, error)

	// OpenEntriesOlderThan returns devices whose latest event is an ENTRY
	// recorded before cutoff.  Read-only audit query.
	OpenEntriesOlderThan(ctx context.Context, cutoff time.Time) ([]OpenEntry, error)
}
