// Package schedule coalesces bursts of change notifications into delayed work.
package schedule

import (
	"sync"
	"time"
)

// Debouncer runs at most one delayed call per key. Every Trigger for a key
// restarts its delay, so only the last call of a burst runs.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	seq    map[string]uint64
	next   uint64
}

// New creates a debouncer. A non-positive delay runs triggers on the next
// timer tick without coalescing.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		seq:    make(map[string]uint64),
	}
}

// Trigger schedules fn for key, replacing any call still pending for it.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.next++
	mine := d.next
	d.seq[key] = mine

	d.timers[key] = time.AfterFunc(max(d.delay, 0), func() {
		d.mu.Lock()
		if d.seq[key] != mine {
			// Superseded after the timer had already fired
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		delete(d.seq, key)
		d.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending call for key. Returns false if none was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked(key)
}

func (d *Debouncer) cancelLocked(key string) bool {
	t, ok := d.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(d.timers, key)
	delete(d.seq, key)
	return true
}

// SetDelay changes the delay for calls triggered from now on.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Delay returns the current delay.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// Pending returns the number of keys with a scheduled call.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.timers {
		d.cancelLocked(key)
	}
}
