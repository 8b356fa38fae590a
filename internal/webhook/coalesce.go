package webhook

import (
	"sync"
	"time"

	"embyscan/internal/notify"
)

// coalescer delays library.new deliveries per item so the last payload
// Emby sends during metadata enrichment wins. Events without an item ID
// pass straight through.
type coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	events  map[string]notify.LibraryEvent
	deliver func(notify.LibraryEvent)
	stopped bool
}

func newCoalescer(delay time.Duration, deliver func(notify.LibraryEvent)) *coalescer {
	return &coalescer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		events:  make(map[string]notify.LibraryEvent),
		deliver: deliver,
	}
}

func (c *coalescer) Offer(event notify.LibraryEvent) {
	if event.ItemID == "" || c.delay <= 0 {
		c.deliver(event)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	id := event.ItemID
	c.events[id] = event
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
	}
	c.timers[id] = time.AfterFunc(c.delay, func() { c.fire(id) })
}

// Stop cancels pending timers and delivers what was queued so shutdown
// does not drop announcements.
func (c *coalescer) Stop() {
	c.mu.Lock()
	c.stopped = true
	queued := make([]notify.LibraryEvent, 0, len(c.events))
	for id, timer := range c.timers {
		timer.Stop()
		if event, ok := c.events[id]; ok {
			queued = append(queued, event)
		}
	}
	c.timers = make(map[string]*time.Timer)
	c.events = make(map[string]notify.LibraryEvent)
	c.mu.Unlock()
	for _, event := range queued {
		c.deliver(event)
	}
}

func (c *coalescer) fire(id string) {
	c.mu.Lock()
	event, ok := c.events[id]
	delete(c.events, id)
	delete(c.timers, id)
	c.mu.Unlock()
	if ok {
		c.deliver(event)
	}
}
