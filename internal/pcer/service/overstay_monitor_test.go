package service_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/service"
	"github.com/pcer-project/pcer/internal/pcer/store"
	"github.com/pcer-project/pcer/internal/pcer/store/memory"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestOverstayMonitor_DisabledWhenThresholdZero(t *testing.T) {
	registry := memory.NewRegistryStore()
	es := memory.NewEventStore(registry)
	monitor := service.NewOverstayMonitor(es, service.MonitorConfig{
		ThresholdHours: 0,
		IntervalHours:  1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)
	// Stop should return immediately without error.
	monitor.Stop()
}

func TestOverstayMonitor_FlagsOnlyDevicesStillInside(t *testing.T) {
	registry := memory.NewRegistryStore()
	es := memory.NewEventStore(registry)
	ctx := context.Background()

	// INSIDE: entered and never exited.
	if _, err := es.AppendEvent(ctx, store.NewEvent{
		PCSerial: "SER-INSIDE", Phone: "0911000000", Gate: "G1", Kind: store.KindEntry,
	}); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	// OUTSIDE: entered, then exited.
	if _, err := es.AppendEvent(ctx, store.NewEvent{
		PCSerial: "SER-OUT", Phone: "0922000000", Gate: "G1", Kind: store.KindEntry,
	}); err != nil {
		t.Fatalf("append entry: %v", err)
	}
	if _, err := es.AppendEvent(ctx, store.NewEvent{
		PCSerial: "SER-OUT", Phone: "0922000000", Gate: "G2", Kind: store.KindExit,
	}); err != nil {
		t.Fatalf("append exit: %v", err)
	}

	// Same query the sweep runs, with a cutoff in the future so the fresh
	// ENTRY counts as overdue.
	cutoff := time.Now().UTC().Add(time.Minute)
	entries, err := es.OpenEntriesOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("OpenEntriesOlderThan: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 open entry, got %d", len(entries))
	}
	if entries[0].PCSerial != "SER-INSIDE" {
		t.Errorf("expected SER-INSIDE, got %s", entries[0].PCSerial)
	}
}

func TestOverstayMonitor_CutoffExcludesRecentEntries(t *testing.T) {
	registry := memory.NewRegistryStore()
	es := memory.NewEventStore(registry)
	ctx := context.Background()

	if _, err := es.AppendEvent(ctx, store.NewEvent{
		PCSerial: "SER1", Phone: "0911000000", Gate: "G1", Kind: store.KindEntry,
	}); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	// Cutoff in the past: the entry just recorded is not overdue.
	cutoff := time.Now().UTC().Add(-time.Hour)
	entries, err := es.OpenEntriesOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("OpenEntriesOlderThan: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no open entries before cutoff, got %d", len(entries))
	}
}

func TestOverstayMonitor_StopIsIdempotent(t *testing.T) {
	registry := memory.NewRegistryStore()
	es := memory.NewEventStore(registry)
	monitor := service.NewOverstayMonitor(es, service.MonitorConfig{
		ThresholdHours: 24,
		IntervalHours:  1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)

	cancel()
	// Multiple stops should not panic.
	monitor.Stop()
	monitor.Stop()
}
