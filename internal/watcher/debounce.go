package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per path: the callback runs once,
// delay after the last Add for that path.
type Debouncer struct {
	delay    time.Duration
	pending  map[string]pendingTimer
	seq      uint64
	callback func(path string)
	mu       sync.Mutex
	inflight sync.WaitGroup
}

// pendingTimer is the timer currently scheduled for a path. seq tells a
// firing timer whether it is still the current one.
type pendingTimer struct {
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a Debouncer
func NewDebouncer(delay time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		pending:  make(map[string]pendingTimer),
		callback: callback,
	}
}

// Add schedules path, restarting its timer if it is already pending
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, exists := d.pending[path]; exists && p.timer.Stop() {
		d.inflight.Done()
	}

	d.seq++
	seq := d.seq
	d.inflight.Add(1)
	d.pending[path] = pendingTimer{
		seq: seq,
		timer: time.AfterFunc(d.delay, func() {
			defer d.inflight.Done()

			d.release(path, seq)
			if d.callback != nil {
				d.callback(path)
			}
		}),
	}
}

// release forgets path unless a later Add has already replaced its timer
func (d *Debouncer) release(path string, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, exists := d.pending[path]; exists && p.seq == seq {
		delete(d.pending, path)
	}
}

// CancelAll drops every pending path
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, p := range d.pending {
		if p.timer.Stop() {
			d.inflight.Done()
		}
		delete(d.pending, path)
	}
}

// Wait blocks until every callback that already started has returned
func (d *Debouncer) Wait() {
	d.inflight.Wait()
}

// PendingCount returns the number of paths waiting to settle
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
