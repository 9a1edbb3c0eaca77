package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/store"
	sqlitestore "github.com/pcer-project/pcer/internal/pcer/store/sqlite"
)

func TestRegistryStore_CreateRegistration_InsertsRow(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewRegistryStore(conn, w)

	rec, err := rs.CreateRegistration(context.Background(), store.NewRegistration{
		OwnerName: "ABEBE KEBEDE",
		OwnerID:   "ETS/001/12",
		Phone:     "0911000000",
		PCSerial:  "ABC123",
	})
	if err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected an assigned id")
	}
	if rec.RegisteredAt.IsZero() {
		t.Error("expected registered_at to be set")
	}

	var count int
	err = conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM pc_registry WHERE pc_serial = ?`, "ABC123",
	).Scan(&count)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 registry row, got %d", count)
	}
}

func TestRegistryStore_CreateRegistration_DuplicateSerial(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewRegistryStore(conn, w)
	ctx := context.Background()

	first := store.NewRegistration{
		OwnerName: "X", OwnerID: "ETS/001", Phone: "0911000000", PCSerial: "ABC123",
	}
	if _, err := rs.CreateRegistration(ctx, first); err != nil {
		t.Fatalf("first CreateRegistration: %v", err)
	}

	second := store.NewRegistration{
		OwnerName: "Y", OwnerID: "ETS/002", Phone: "0922000000", PCSerial: "ABC123",
	}
	_, err := rs.CreateRegistration(ctx, second)
	if !errors.Is(err, store.ErrDuplicateSerial) {
		t.Fatalf("expected ErrDuplicateSerial, got %v", err)
	}

	// The store is unchanged.
	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM pc_registry`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 registry row after rejected duplicate, got %d", count)
	}
}

func TestRegistryStore_FindBySerialAndPhone(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewRegistryStore(conn, w)
	ctx := context.Background()

	if _, err := rs.CreateRegistration(ctx, store.NewRegistration{
		OwnerName: "X", OwnerID: "ETS/001", Phone: "0911000000", PCSerial: "ABC123",
	}); err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}

	rec, err := rs.FindBySerialAndPhone(ctx, "ABC123", "0911000000")
	if err != nil {
		t.Fatalf("FindBySerialAndPhone: %v", err)
	}
	if rec.OwnerName != "X" || rec.OwnerID != "ETS/001" {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Wrong phone: no match.
	_, err = rs.FindBySerialAndPhone(ctx, "ABC123", "0999999999")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong phone, got %v", err)
	}

	// Unknown serial: no match.
	_, err = rs.FindBySerialAndPhone(ctx, "ZZZ999", "0911000000")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown serial, got %v", err)
	}
}

func TestRegistryStore_ListByRegistrationTime(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewRegistryStore(conn, w)
	ctx := context.Background()

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	seedRegistration(t, conn, "A", "ETS/001", "0911000000", "SER1", base)
	seedRegistration(t, conn, "B", "ETS/002", "0922000000", "SER2", base+1000)
	seedRegistration(t, conn, "C", "ETS/003", "0933000000", "SER3", base+2000)

	descRecs, err := rs.ListByRegistrationTime(ctx, true)
	if err != nil {
		t.Fatalf("ListByRegistrationTime desc: %v", err)
	}
	if len(descRecs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(descRecs))
	}
	if descRecs[0].PCSerial != "SER3" || descRecs[2].PCSerial != "SER1" {
		t.Errorf("expected newest first, got %s..%s", descRecs[0].PCSerial, descRecs[2].PCSerial)
	}

	ascRecs, err := rs.ListByRegistrationTime(ctx, false)
	if err != nil {
		t.Fatalf("ListByRegistrationTime asc: %v", err)
	}
	if ascRecs[0].PCSerial != "SER1" {
		t.Errorf("expected oldest first, got %s", ascRecs[0].PCSerial)
	}
}
