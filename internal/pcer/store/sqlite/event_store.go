package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/pcer-project/pcer/internal/db"
	"github.com/pcer-project/pcer/internal/pcer/store"
)

type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

func (s *EventStore) LastKind(ctx context.Context, serial string) (store.EventKind, bool, error) {
	var kind string
	err := s.db.QueryRowContext(ctx, `
SELECT kind FROM verification_events
WHERE pc_serial = ?
ORDER BY id DESC
LIMIT 1;
`, serial).Scan(&kind)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("LastKind query: %w", err)
	}
	return store.EventKind(kind), true, nil
}

func (s *EventStore) AppendEvent(ctx context.Context, ev store.NewEvent) (store.VerificationEvent, error) {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO verification_events(pc_serial, phone, gate, kind, occurred_at_ms)
VALUES (?, ?, ?, ?, ?);
`, ev.PCSerial, ev.Phone, ev.Gate, string(ev.Kind), nowMs)
		if err != nil {
			return fmt.Errorf("AppendEvent insert: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("AppendEvent last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.VerificationEvent{}, err
	}

	return store.VerificationEvent{
		ID:         id,
		PCSerial:   ev.PCSerial,
		Phone:      ev.Phone,
		Gate:       ev.Gate,
		Kind:       ev.Kind,
		OccurredAt: now,
	}, nil
}

// OwnerHistory joins events to the owner's registrations through phone
// equality, mirroring how the registry associates a person with their
// devices.  DISTINCT collapses events shared by registrations with the
// same phone.
func (s *EventStore) OwnerHistory(ctx context.Context, ownerID string) ([]store.OwnerEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT occurred_at_ms, kind
FROM verification_events
WHERE phone IN (
  SELECT phone FROM pc_registry WHERE owner_id = ?
)
ORDER BY occurred_at_ms DESC;
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("OwnerHistory query: %w", err)
	}
	defer rows.Close()

	var out []store.OwnerEvent
	for rows.Next() {
		var (
			ms   int64
			kind string
		)
		if err := rows.Scan(&ms, &kind); err != nil {
			return nil, fmt.Errorf("OwnerHistory scan: %w", err)
		}
		out = append(out, store.OwnerEvent{
			OccurredAt: time.UnixMilli(ms).UTC(),
			Kind:       store.EventKind(kind),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OwnerHistory rows: %w", err)
	}
	return out, nil
}

// OpenEntriesOlderThan finds devices whose newest event is an ENTRY older
// than cutoff.  Uses the (pc_serial, id) index for the per-serial MAX scan.
func (s *EventStore) OpenEntriesOlderThan(ctx context.Context, cutoff time.Time) ([]store.OpenEntry, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	rows, err := s.db.QueryContext(ctx, `
SELECT e.pc_serial, e.occurred_at_ms
FROM verification_events e
WHERE e.id = (
  SELECT MAX(id) FROM verification_events WHERE pc_serial = e.pc_serial
)
AND e.kind = 'ENTRY'
AND e.occurred_at_ms < ?;
`, cutoffMs)
	if err != nil {
		return nil, fmt.Errorf("OpenEntriesOlderThan query: %w", err)
	}
	defer rows.Close()

	var out []store.OpenEntry
	for rows.Next() {
		var (
			serial string
			ms     int64
		)
		if err := rows.Scan(&serial, &ms); err != nil {
			return nil, fmt.Errorf("OpenEntriesOlderThan scan: %w", err)
		}
		out = append(out, store.OpenEntry{
			PCSerial:  serial,
			EnteredAt: time.UnixMilli(ms).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OpenEntriesOlderThan rows: %w", err)
	}
	return out, nil
}
