package notify

import (
	"sync/atomic"
	"time"

	"github.com/fjod/gogift/internal/broadcast"
	"github.com/sirupsen/logrus"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"

	// SeverityRemove tells listeners to dismiss the notification with the same ID.
	SeverityRemove Severity = "remove"
)

// DefaultDismissAfter is how long a notification stays visible.
const DefaultDismissAfter = 3 * time.Second

// Sink receives user-facing notifications. Show is fire-and-forget.
type Sink interface {
	Show(message string, severity Severity)
}

type Notification struct {
	ID       int64    `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
}

// Hub is an observable Sink: every notification gets an id and is followed by a
// remove event once its display time elapses.
type Hub struct {
	dismissAfter time.Duration
	nextID       atomic.Int64
	bc           *broadcast.Broadcaster[Notification]
}

func NewHub(dismissAfter time.Duration) *Hub {
	return &Hub{
		dismissAfter: dismissAfter,
		bc:           broadcast.New[Notification](),
	}
}

func (h *Hub) Show(message string, severity Severity) {
	id := h.nextID.Add(1) - 1
	h.bc.Publish(Notification{ID: id, Message: message, Severity: severity})

	if h.dismissAfter > 0 {
		time.AfterFunc(h.dismissAfter, func() { h.Remove(id) })
	}
}

// Remove dismisses a notification ahead of its timer.
func (h *Hub) Remove(id int64) {
	h.bc.Publish(Notification{ID: id, Severity: SeverityRemove})
}

func (h *Hub) Subscribe(fn func(Notification)) (unsubscribe func()) {
	return h.bc.Subscribe(fn)
}

func (h *Hub) Close() {
	h.bc.Close()
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Show(message string, severity Severity) {
	entry := s.Log.WithField("severity", string(severity))
	switch severity {
	case SeverityError:
		entry.Error(message)
	case SeverityWarning:
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}

// Multi fans a notification out to several sinks.
type Multi []Sink

func (m Multi) Show(message string, severity Severity) {
	for _, s := range m {
		s.Show(message, severity)
	}
}
