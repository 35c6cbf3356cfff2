// Package notify delivers transient user-facing notifications (toasts).
package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Level is the toast severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is a single transient notification.
type Toast struct {
	ID      string `json:"id"`
	Level   Level  `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier receives toasts.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

// Notify implements Notifier.
func (f NotifierFunc) Notify(t Toast) { f(t) }

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})

// Success sends a success toast with the given message.
func Success(n Notifier, message string) {
	send(n, LevelSuccess, message)
}

// Error sends an error toast with the given message.
func Error(n Notifier, message string) {
	send(n, LevelError, message)
}

// Info sends an info toast with the given message.
func Info(n Notifier, message string) {
	send(n, LevelInfo, message)
}

func send(n Notifier, level Level, message string) {
	if n == nil {
		return
	}
	n.Notify(Toast{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   titleFor(level),
		Message: message,
	})
}

func titleFor(level Level) string {
	switch level {
	case LevelSuccess:
		return "Success"
	case LevelError:
		return "Error"
	default:
		return "Info"
	}
}

// Hub fans toasts out to every attached sink.
type Hub struct {
	mu    sync.RWMutex
	sinks []Notifier
}

// NewHub creates a hub with the given initial sinks.
func NewHub(sinks ...Notifier) *Hub {
	return &Hub{sinks: sinks}
}

// Attach adds a sink.
func (h *Hub) Attach(n Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, n)
}

// Notify implements Notifier.
func (h *Hub) Notify(t Toast) {
	h.mu.RLock()
	sinks := make([]Notifier, len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.RUnlock()

	for _, sink := range sinks {
		sink.Notify(t)
	}
}

// LogSink writes toasts to the global logger.
var LogSink Notifier = NotifierFunc(func(t Toast) {
	event := log.Info()
	if t.Level == LevelError {
		event = log.Warn()
	}
	event.Str("toast", string(t.Level)).Str("id", t.ID).Msg(t.Message)
})

// Recorder keeps every toast it receives. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Notify implements Notifier.
func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
