package socketio

import (
	"sync"
	"time"
)

// Topic is a kind of push that the debouncer can coalesce.
type Topic int

const (
	TopicState Topic = iota
	TopicFavorites
)

// PushDebouncer collapses bursts of session and favorites changes into one
// broadcast per topic. A selection typically mutates the session two or three
// times in a row; views only need the final snapshot.
type PushDebouncer struct {
	window    time.Duration
	callbacks map[Topic]func()

	mu      sync.Mutex
	pending map[Topic]bool
	timer   *time.Timer
	stopped bool
}

// NewPushDebouncer creates a debouncer with the given window. onState runs
// for TopicState, onFavorites for TopicFavorites; either may be nil.
func NewPushDebouncer(window time.Duration, onState, onFavorites func()) *PushDebouncer {
	return &PushDebouncer{
		window: window,
		callbacks: map[Topic]func(){
			TopicState:     onState,
			TopicFavorites: onFavorites,
		},
		pending: make(map[Topic]bool),
	}
}

// Trigger marks topic as changed and restarts the window.
func (d *PushDebouncer) Trigger(topic Topic) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[topic] = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// Flush runs pending callbacks immediately.
func (d *PushDebouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.flush()
}

func (d *PushDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	due := make([]Topic, 0, len(d.pending))
	for _, topic := range []Topic{TopicState, TopicFavorites} {
		if d.pending[topic] {
			due = append(due, topic)
		}
	}
	d.pending = make(map[Topic]bool)
	d.mu.Unlock()

	for _, topic := range due {
		if cb := d.callbacks[topic]; cb != nil {
			cb()
		}
	}
}

// Stop drops anything pending and ignores later triggers.
func (d *PushDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[Topic]bool)
}
