package progress

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fenilsonani/fileflow/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseHashing   Phase = "hashing"
	PhaseMoving    Phase = "moving"
	PhaseDeleting  Phase = "deleting"
	PhaseAnalyzing Phase = "analyzing"
	PhaseSweeping  Phase = "sweeping"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// Event is one progress update. Done/Total count work units of the phase
// (directories while scanning, files otherwise).
type Event struct {
	Operation string
	Phase     Phase
	Current   string
	Done      int
	Total     int
	Bytes     int64
	Failed    int
	StartTime time.Time
	Error     error
}

// Percent returns completion in [0,1]
func (e *Event) Percent() float64 {
	if e == nil || e.Total <= 0 {
		return 0
	}
	p := float64(e.Done) / float64(e.Total)
	if p > 1 {
		return 1
	}
	return p
}

// Reporter fans progress events out to subscribers without blocking the
// publisher. A nil *Reporter discards everything.
type Reporter struct {
	mu        sync.RWMutex
	last      *Event
	listeners []chan *Event
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan *Event, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan *Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan *Event, 32)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Publish records update as the latest event and notifies listeners
func (r *Reporter) Publish(update *Event) {
	if r == nil || update == nil {
		return
	}

	// sends happen under the lock so Unsubscribe cannot close a channel mid-send
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = update

	for _, listener := range r.listeners {
		select {
		case listener <- update:
		default:
			// slow subscriber, drop
		}
	}
}

// Last returns the most recent event
func (r *Reporter) Last() *Event {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Tracker counts completed units of one phase and publishes after each.
// Safe for concurrent use by pool workers.
type Tracker struct {
	reporter  *Reporter
	operation string
	phase     Phase
	total     int
	start     time.Time
	done      atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
}

// Track starts a tracker for total units and publishes the initial event
func (r *Reporter) Track(operation string, phase Phase, total int) *Tracker {
	t := &Tracker{
		reporter:  r,
		operation: operation,
		phase:     phase,
		total:     total,
		start:     time.Now(),
	}
	r.Publish(t.event("", nil))
	return t
}

// Step marks one unit done
func (t *Tracker) Step(current string, bytes int64, failed bool) {
	t.done.Add(1)
	t.bytes.Add(bytes)
	if failed {
		t.failed.Add(1)
	}
	t.reporter.Publish(t.event(current, nil))
}

// Finish publishes the completion event, or an error event when err is set
func (t *Tracker) Finish(err error) {
	e := t.event("", err)
	if err != nil {
		e.Phase = PhaseError
	} else {
		e.Phase = PhaseComplete
	}
	t.reporter.Publish(e)
}

func (t *Tracker) event(current string, err error) *Event {
	return &Event{
		Operation: t.operation,
		Phase:     t.phase,
		Current:   current,
		Done:      int(t.done.Load()),
		Total:     t.total,
		Bytes:     t.bytes.Load(),
		Failed:    int(t.failed.Load()),
		StartTime: t.start,
		Error:     err,
	}
}

// Format returns a human-readable progress line
func Format(e *Event) string {
	if e == nil {
		return "Initializing..."
	}

	elapsed := time.Since(e.StartTime)

	switch e.Phase {
	case PhaseComplete:
		return fmt.Sprintf("%s complete: %d/%d (%s) in %s",
			e.Operation, e.Done, e.Total, utils.FormatBytes(e.Bytes), FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("%s error: %v", e.Operation, e.Error)
	}

	percentage := int(e.Percent() * 100)
	eta := ""
	if e.Done > 0 && e.Total > e.Done {
		avg := elapsed / time.Duration(e.Done)
		eta = fmt.Sprintf(" ETA: %s", FormatDuration(time.Duration(e.Total-e.Done)*avg))
	}

	failed := ""
	if e.Failed > 0 {
		failed = fmt.Sprintf(", %d failed", e.Failed)
	}

	return fmt.Sprintf("%s (%s)... %d/%d (%d%%)%s%s",
		e.Operation, e.Phase, e.Done, e.Total, percentage, failed, eta)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
