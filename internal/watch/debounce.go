package watch

import (
	"sync"
	"time"
)

// Debouncer collects events and delivers them as a single batch once no
// new event has arrived for a full quiet window. Later events for the
// same path replace earlier ones, so a create followed by several
// writes surfaces as one entry.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]Event
	order   []string
	timer   *time.Timer
	deliver func([]Event)
	stopped bool
}

// NewDebouncer returns a debouncer that calls deliver with the batched
// events after the quiet window elapses. deliver runs on a timer
// goroutine and must not call back into the debouncer.
func NewDebouncer(window time.Duration, deliver func([]Event)) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]Event),
		deliver: deliver,
	}
}

// Add records an event and restarts the quiet window.
func (d *Debouncer) Add(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if _, seen := d.pending[event.Path]; !seen {
		d.order = append(d.order, event.Path)
	}
	d.pending[event.Path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Flush delivers any pending events immediately. Used during shutdown
// so queued changes are not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.take()
	d.mu.Unlock()
	if len(batch) > 0 {
		d.deliver(batch)
	}
}

// Stop halts the debouncer and discards pending events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]Event)
	d.order = nil
}

// Pending reports how many paths are waiting for delivery.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	batch := d.take()
	d.mu.Unlock()
	if len(batch) > 0 {
		d.deliver(batch)
	}
}

// take drains the pending set in arrival order. Caller holds the lock.
func (d *Debouncer) take() []Event {
	if len(d.pending) == 0 {
		return nil
	}
	batch := make([]Event, 0, len(d.pending))
	for _, path := range d.order {
		if event, ok := d.pending[path]; ok {
			batch = append(batch, event)
		}
	}
	d.pending = make(map[string]Event)
	d.order = nil
	return batch
}
