// Package bus keeps the append-only log of transfers shown on the
// visualization buses. Records are purely observational: they carry no
// causal weight in the simulation and expire on a wall-clock delay.
package bus

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// Kind names the bus a transfer travelled on.
type Kind string

const (
	Data    Kind = "DATA"
	Address Kind = "ADDRESS"
	Control Kind = "CONTROL"
)

// A Transfer is one value moving between two named components.
type Transfer struct {
	ID        string
	Kind      Kind
	From      string
	To        string
	Value     int
	Active    bool
	CreatedAt time.Time
}

// A Log is an append-only list of transfers owned by one machine. Expiry
// callbacks fire on their own goroutine, so the log carries its own lock;
// everything else about the machine stays single-threaded.
type Log struct {
	mu        sync.Mutex
	epoch     uint64
	ttl       time.Duration
	transfers []*Transfer
}

// NewLog creates an empty transfer log.
func NewLog() *Log {
	return &Log{}
}

// SetTTL makes every future Record expire after d. A zero d keeps records
// active forever, which is what tests want.
func (l *Log) SetTTL(d time.Duration) {
	l.mu.Lock()
	l.ttl = d
	l.mu.Unlock()
}

// Record appends an active transfer and returns it. When a TTL is set, the
// transfer deactivates on its own after that delay.
func (l *Log) Record(kind Kind, from, to string, value int) *Transfer {
	t := &Transfer{
		ID:        xid.New().String(),
		Kind:      kind,
		From:      from,
		To:        to,
		Value:     value,
		Active:    true,
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	l.transfers = append(l.transfers, t)
	ttl := l.ttl
	l.mu.Unlock()

	if ttl > 0 {
		l.DeactivateAfter(t, ttl)
	}

	return t
}

// DeactivateAfter clears the transfer's active flag once d has elapsed. A
// log reset in the meantime makes the callback a no-op, so a pending timer
// can never touch a machine that restarted.
func (l *Log) DeactivateAfter(t *Transfer, d time.Duration) {
	l.mu.Lock()
	epoch := l.epoch
	l.mu.Unlock()

	time.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.epoch != epoch {
			return
		}

		t.Active = false
	})
}

// Len returns the number of recorded transfers.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.transfers)
}

// Transfers returns a copy of all records in append order.
func (l *Log) Transfers() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]Transfer, 0, len(l.transfers))
	for _, t := range l.transfers {
		snapshot = append(snapshot, *t)
	}

	return snapshot
}

// Reset clears the log and invalidates every pending expiry callback.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch++
	l.transfers = nil
}
