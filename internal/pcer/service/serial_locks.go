package service

import "sync"

// serialLocks hands out one mutex per PC serial.  The check-then-append in
// a verification is a critical section keyed by serial: without it, two
// near-simultaneous ENTRY requests could both observe "no prior ENTRY" and
// both succeed.  The serial set is small (one per registered device), so
// entries are never evicted.
type serialLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSerialLocks() *serialLocks {
	return &serialLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *serialLocks) forSerial(serial string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[serial]
	if !ok {
		m = &sync.Mutex{}
		l.locks[serial] = m
	}
	return m
}
