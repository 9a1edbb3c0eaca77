package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Optional: extra registrations to pre-create in dev, as
	// (ownerName, ownerID, phone, serial) rows.
	Registrations [][4]string
}

// SeedDev inserts a starter registration so a fresh dev database has
// something to verify against.  Safe to call repeatedly.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	rows := [][4]string{
		{"DEV STUDENT", "ETS/0000/00", "0911000000", "DEV-SERIAL-001"},
	}
	rows = append(rows, opt.Registrations...)

	for _, r := range rows {
		if _, err := db.ExecContext(ctx, `
INSERT INTO pc_registry(owner_name, owner_id, phone, pc_serial, registered_at_ms)
SELECT ?, ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM pc_registry WHERE pc_serial = ?);
`, r[0], r[1], r[2], r[3], now, r[3]); err != nil {
			return fmt.Errorf("seed registration %s: %w", r[3], err)
		}
	}

	return nil
}
