package watch

import (
	"sync"
	"time"
)

// debouncer batches file events so a burst of writes becomes one update
type debouncer struct {
	mu       sync.Mutex
	events   map[string]EventType
	debounce time.Duration
	timer    *time.Timer
	closed   bool
	inflight sync.WaitGroup
	flushMu  sync.Mutex // one flush at a time
	flushFn  func(map[string]EventType)
}

func newDebouncer(debounce time.Duration, flush func(map[string]EventType)) *debouncer {
	return &debouncer{
		events:   make(map[string]EventType),
		debounce: debounce,
		flushFn:  flush,
	}
}

// add records the latest event for path and restarts the timer
func (d *debouncer) add(path string, event EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	// a create followed by writes is still a create
	if prev, ok := d.events[path]; !ok || prev != EventCreate || event == EventRemove {
		d.events[path] = event
	}

	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.debounce, func() {
		defer d.inflight.Done()
		d.flush()
	})
}

func (d *debouncer) flush() {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	events := d.events
	d.events = make(map[string]EventType)
	d.mu.Unlock()

	if len(events) == 0 {
		return
	}
	d.flushFn(events)
}

// stop drops pending events and waits for a running flush
func (d *debouncer) stop() {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.events = make(map[string]EventType)
	d.mu.Unlock()

	d.inflight.Wait()
}
