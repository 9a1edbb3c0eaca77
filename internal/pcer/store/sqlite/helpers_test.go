package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/pcer-project/pcer/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedEvent inserts a verification event with an explicit timestamp so
// ordering tests are deterministic.
func seedEvent(t *testing.T, conn *sql.DB, serial, phone, gate, kind string, occurredMs int64) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO verification_events(pc_serial, phone, gate, kind, occurred_at_ms)
VALUES (?, ?, ?, ?, ?);`, serial, phone, gate, kind, occurredMs)
	if err != nil {
		t.Fatalf("seedEvent(%s %s): %v", serial, kind, err)
	}
}

// seedRegistration inserts a registration row directly.
func seedRegistration(t *testing.T, conn *sql.DB, name, ownerID, phone, serial string, registeredMs int64) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO pc_registry(owner_name, owner_id, phone, pc_serial, registered_at_ms)
VALUES (?, ?, ?, ?, ?);`, name, ownerID, phone, serial, registeredMs)
	if err != nil {
		t.Fatalf("seedRegistration(%s): %v", serial, err)
	}
}
