package service

import (
	"context"
	"log"
	"time"

	"github.com/pcer-project/pcer/internal/pcer/store"
)

// OverstayMonitor periodically reports devices whose derived state is
// INSIDE with an entry older than a configurable threshold, so operators
// notice machines that entered and never exited.  It only reads and logs —
// the verification log is append-only and nothing is ever deleted.
//
// A threshold of 0 disables the monitor entirely.
type OverstayMonitor struct {
	events    store.EventStore
	threshold time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// MonitorConfig holds the parameters for NewOverstayMonitor.
type MonitorConfig struct {
	// ThresholdHours is how long a device may stay inside before it is
	// reported.  0 means never report (monitor will not start).
	ThresholdHours int

	// IntervalHours is how often the sweep runs.  Defaults to 6.
	IntervalHours int
}

// NewOverstayMonitor creates a monitor but does not start it.
// Call Start to begin the background loop.
func NewOverstayMonitor(es store.EventStore, cfg MonitorConfig, logger *log.Logger) *OverstayMonitor {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &OverstayMonitor{
		events:    es,
		threshold: time.Duration(cfg.ThresholdHours) * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background sweep loop.  It runs an immediate sweep on
// startup, then repeats on the configured interval.  The loop exits when
// ctx is cancelled or Stop is called.
func (m *OverstayMonitor) Start(ctx context.Context) {
	if m.threshold <= 0 {
		m.logger.Printf("overstay monitor disabled (threshold=0)")
		close(m.done)
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)

	go m.loop(ctx)

	m.logger.Printf("overstay monitor started (threshold=%dh, interval=%dh)",
		int(m.threshold.Hours()), int(m.interval.Hours()))
}

// Stop signals the monitor to exit and waits for it to finish.
func (m *OverstayMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *OverstayMonitor) loop(ctx context.Context) {
	defer close(m.done)

	// Run immediately on startup to surface any existing backlog.
	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *OverstayMonitor) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.threshold)
	entries, err := m.events.OpenEntriesOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.Printf("overstay sweep error: %v", err)
		return
	}
	for _, e := range entries {
		m.logger.Printf("overstay: %s inside since %s",
			e.PCSerial, e.EnteredAt.Format(time.RFC3339))
	}
}
