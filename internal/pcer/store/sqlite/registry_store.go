package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/pcer-project/pcer/internal/db"
	"github.com/pcer-project/pcer/internal/pcer/store"
)

type RegistryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRegistryStore(db *sql.DB, writer *dbpkg.Worker) *RegistryStore {
	return &RegistryStore{db: db, writer: writer}
}

// CreateRegistration inserts a new registration, rejecting duplicates of
// pc_serial.  The existence check and the insert run in one transaction on
// the single writer goroutine, so there is no window for a racing insert;
// the UNIQUE constraint on pc_serial backstops the check.
func (s *RegistryStore) CreateRegistration(ctx context.Context, reg store.NewRegistration) (store.RegistrationRecord, error) {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, `
SELECT id FROM pc_registry WHERE pc_serial = ?;
`, reg.PCSerial).Scan(&existing)
		if err == nil {
			return store.ErrDuplicateSerial
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("CreateRegistration check serial: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO pc_registry(owner_name, owner_id, phone, pc_serial, registered_at_ms)
VALUES (?, ?, ?, ?, ?);
`, reg.OwnerName, reg.OwnerID, reg.Phone, reg.PCSerial, nowMs)
		if err != nil {
			return fmt.Errorf("CreateRegistration insert: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("CreateRegistration last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.RegistrationRecord{}, err
	}

	return store.RegistrationRecord{
		ID:           id,
		OwnerName:    reg.OwnerName,
		OwnerID:      reg.OwnerID,
		Phone:        reg.Phone,
		PCSerial:     reg.PCSerial,
		RegisteredAt: now,
	}, nil
}

func (s *RegistryStore) FindBySerialAndPhone(ctx context.Context, serial, phone string) (store.RegistrationRecord, error) {
	var (
		rec   store.RegistrationRecord
		regMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, owner_name, owner_id, phone, pc_serial, registered_at_ms
FROM pc_registry
WHERE pc_serial = ? AND phone = ?;
`, serial, phone).Scan(&rec.ID, &rec.OwnerName, &rec.OwnerID, &rec.Phone, &rec.PCSerial, &regMs)

	if err == sql.ErrNoRows {
		return store.RegistrationRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.RegistrationRecord{}, fmt.Errorf("FindBySerialAndPhone query: %w", err)
	}

	rec.RegisteredAt = time.UnixMilli(regMs).UTC()
	return rec, nil
}

func (s *RegistryStore) ListByRegistrationTime(ctx context.Context, desc bool) ([]store.RegistrationRecord, error) {
	order := "ASC"
	if desc {
		order = "DESC"
	}

	// Tie-break on id so records registered in the same millisecond keep a
	// stable order.
	rows, err := s.db.QueryContext(ctx, `
SELECT id, owner_name, owner_id, phone, pc_serial, registered_at_ms
FROM pc_registry
ORDER BY registered_at_ms `+order+`, id `+order+`;
`)
	if err != nil {
		return nil, fmt.Errorf("ListByRegistrationTime query: %w", err)
	}
	defer rows.Close()

	var out []store.RegistrationRecord
	for rows.Next() {
		var (
			rec   store.RegistrationRecord
			regMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerName, &rec.OwnerID, &rec.Phone, &rec.PCSerial, &regMs); err != nil {
			return nil, fmt.Errorf("ListByRegistrationTime scan: %w", err)
		}
		rec.RegisteredAt = time.UnixMilli(regMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRegistrationTime rows: %w", err)
	}
	return out, nil
}
