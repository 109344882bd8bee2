package watcher

import (
	"sort"
	"sync"
	"time"
)

// debouncer collects change events and hands the distinct paths to the
// handler once no new event arrived for delay.
type debouncer struct {
	delay   time.Duration
	events  map[string]FileChangeEvent
	timer   *time.Timer
	mu      sync.Mutex
	stopped bool
	onError func(error)
}

func newDebouncer(delay time.Duration, onError func(error)) *debouncer {
	return &debouncer{
		delay:   delay,
		events:  make(map[string]FileChangeEvent),
		onError: onError,
	}
}

func (d *debouncer) add(event FileChangeEvent, handler FileChangeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events[event.Path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.flush(handler)
	})
}

func (d *debouncer) flush(handler FileChangeHandler) {
	d.mu.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(d.events))
	for path := range d.events {
		changed = append(changed, path)
	}
	d.events = make(map[string]FileChangeEvent)
	d.mu.Unlock()

	sort.Strings(changed)
	if err := handler(changed); err != nil && d.onError != nil {
		d.onError(err)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
