package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/store"
	"github.com/pcer-project/pcer/internal/pcer/types"
)

var (
	ErrInvalidOwnerName = errors.New("owner_name is required")
	ErrInvalidOwnerID   = errors.New("owner_id is required")
	ErrInvalidPhone     = errors.New("phone is required")
	ErrInvalidSerial    = errors.New("pc_serial is required")
	ErrInvalidGate      = errors.New("gate is required")
)

// Rejection reasons carried in responses.  Business rejections are typed
// results, not errors: the caller can always render a specific message and
// retrying without new information cannot succeed.
const (
	ReasonDuplicateSerial = "duplicate_serial"
	ReasonNotRegistered   = "not_registered"
	ReasonAlreadyEntered  = "already_entered"
	ReasonNoPriorEntry    = "no_prior_entry"
	ReasonEntryRecorded   = "entry_recorded"
	ReasonExitRecorded    = "exit_recorded"
)

// VerificationService is the gate-verification engine.  It mediates every
// write to the record store and derives a device's INSIDE/OUTSIDE state
// from the tail of its event log rather than storing it separately — one
// piece of state that cannot drift from the history.
type VerificationService struct {
	registry store.RegistryStore
	events   store.EventStore
	locks    *serialLocks
}

func NewVerificationService(reg store.RegistryStore, ev store.EventStore) *VerificationService {
	return &VerificationService{
		registry: reg,
		events:   ev,
		locks:    newSerialLocks(),
	}
}

func (s *VerificationService) Register(ctx context.Context, req types.RegisterRequest) (types.RegisterResponse, error) {
	ownerName := normalize(req.OwnerName)
	ownerID := normalize(req.OwnerID)
	phone := normalize(req.Phone)
	serial := normalize(req.PCSerial)

	if ownerName == "" {
		return types.RegisterResponse{}, ErrInvalidOwnerName
	}
	if ownerID == "" {
		return types.RegisterResponse{}, ErrInvalidOwnerID
	}
	if phone == "" {
		return types.RegisterResponse{}, ErrInvalidPhone
	}
	if serial == "" {
		return types.RegisterResponse{}, ErrInvalidSerial
	}

	rec, err := s.registry.CreateRegistration(ctx, store.NewRegistration{
		OwnerName: ownerName,
		OwnerID:   ownerID,
		Phone:     phone,
		PCSerial:  serial,
	})
	if errors.Is(err, store.ErrDuplicateSerial) {
		return types.RegisterResponse{
			OK:         true,
			Registered: false,
			Reason:     ReasonDuplicateSerial,
			PCSerial:   serial,
		}, nil
	}
	if err != nil {
		return types.RegisterResponse{}, err
	}

	return types.RegisterResponse{
		OK:           true,
		Registered:   true,
		ID:           rec.ID,
		OwnerName:    rec.OwnerName,
		OwnerID:      rec.OwnerID,
		PCSerial:     rec.PCSerial,
		RegisteredAt: rec.RegisteredAt.Format(time.RFC3339Nano),
	}, nil
}

func (s *VerificationService) VerifyEntry(ctx context.Context, req types.VerifyRequest) (types.VerifyResponse, error) {
	return s.verify(ctx, req, store.KindEntry)
}

func (s *VerificationService) VerifyExit(ctx context.Context, req types.VerifyRequest) (types.VerifyResponse, error) {
	return s.verify(ctx, req, store.KindExit)
}

// verify runs the two-state machine for one serial: ENTRY moves
// OUTSIDE→INSIDE, EXIT moves INSIDE→OUTSIDE, and any other requested
// transition is rejected with no event appended.  The registration lookup,
// last-event read and append run under the serial's mutex so concurrent
// requests for the same device serialize.
func (s *VerificationService) verify(ctx context.Context, req types.VerifyRequest, kind store.EventKind) (types.VerifyResponse, error) {
	serial := normalize(req.PCSerial)
	phone := normalize(req.Phone)
	gate := normalize(req.Gate)

	if serial == "" {
		return types.VerifyResponse{}, ErrInvalidSerial
	}
	if phone == "" {
		return types.VerifyResponse{}, ErrInvalidPhone
	}
	if gate == "" {
		return types.VerifyResponse{}, ErrInvalidGate
	}

	mu := s.locks.forSerial(serial)
	mu.Lock()
	defer mu.Unlock()

	reg, err := s.registry.FindBySerialAndPhone(ctx, serial, phone)
	if errors.Is(err, store.ErrNotFound) {
		return types.VerifyResponse{
			OK:       true,
			Verified: false,
			Reason:   ReasonNotRegistered,
			PCSerial: serial,
		}, nil
	}
	if err != nil {
		return types.VerifyResponse{}, err
	}

	last, hasEvents, err := s.events.LastKind(ctx, serial)
	if err != nil {
		return types.VerifyResponse{}, err
	}

	inside := hasEvents && last == store.KindEntry
	if kind == store.KindEntry && inside {
		return types.VerifyResponse{
			OK:       true,
			Verified: false,
			Reason:   ReasonAlreadyEntered,
			PCSerial: serial,
		}, nil
	}
	if kind == store.KindExit && !inside {
		return types.VerifyResponse{
			OK:       true,
			Verified: false,
			Reason:   ReasonNoPriorEntry,
			PCSerial: serial,
		}, nil
	}

	ev, err := s.events.AppendEvent(ctx, store.NewEvent{
		PCSerial: serial,
		Phone:    phone,
		Gate:     gate,
		Kind:     kind,
	})
	if err != nil {
		return types.VerifyResponse{}, err
	}

	reason := ReasonEntryRecorded
	if kind == store.KindExit {
		reason = ReasonExitRecorded
	}

	return types.VerifyResponse{
		OK:         true,
		Verified:   true,
		Reason:     reason,
		OwnerName:  reg.OwnerName,
		OwnerID:    reg.OwnerID,
		PCSerial:   serial,
		Gate:       ev.Gate,
		Kind:       string(ev.Kind),
		OccurredAt: ev.OccurredAt.Format(time.RFC3339Nano),
	}, nil
}

func (s *VerificationService) ListRegistrations(ctx context.Context, desc bool) ([]types.RegistrationView, error) {
	recs, err := s.registry.ListByRegistrationTime(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	out := make([]types.RegistrationView, 0, len(recs))
	for _, r := range recs {
		out = append(out, types.RegistrationView{
			ID:           r.ID,
			OwnerName:    r.OwnerName,
			OwnerID:      r.OwnerID,
			Phone:        r.Phone,
			PCSerial:     r.PCSerial,
			RegisteredAt: r.RegisteredAt.Format(time.RFC3339Nano),
		})
	}
	return out, nil
}

// OwnerHistory aggregates one person's traversals across all their
// registered devices, newest first, with each timestamp decomposed into
// the display components the audit view renders.  An unknown or empty
// owner id yields an empty list, not an error.
func (s *VerificationService) OwnerHistory(ctx context.Context, ownerID string) ([]types.OwnerHistoryEntry, error) {
	ownerID = normalize(ownerID)
	if ownerID == "" {
		return []types.OwnerHistoryEntry{}, nil
	}

	events, err := s.events.OwnerHistory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner history: %w", err)
	}

	out := make([]types.OwnerHistoryEntry, 0, len(events))
	for i, ev := range events {
		t := ev.OccurredAt.UTC()
		out = append(out, types.OwnerHistoryEntry{
			Seq:        i + 1,
			Kind:       string(ev.Kind),
			Time:       t.Format("15:04"),
			Weekday:    t.Weekday().String(),
			Month:      t.Month().String(),
			Year:       strconv.Itoa(t.Year()),
			OccurredAt: t.Format(time.RFC3339Nano),
		})
	}
	return out, nil
}
