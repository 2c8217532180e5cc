package services

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
)

// Listener receives every event of one debate. Long-running handlers
// should spawn their own goroutine; Notify calls listeners inline.
type Listener func(models.Event)

// ListenerRegistry is a per-debate collection of event listeners. Each
// delivery is isolated: one panicking listener is logged and the rest
// still fire.
type ListenerRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	logger    *logrus.Logger
}

func NewListenerRegistry(logger *logrus.Logger) *ListenerRegistry {
	return &ListenerRegistry{
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener and returns its handle for Unsubscribe.
func (r *ListenerRegistry) Subscribe(l Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return id
}

// Unsubscribe removes a listener; it receives no further events.
func (r *ListenerRegistry) Unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

// Len reports the number of registered listeners.
func (r *ListenerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Notify delivers the event to every registered listener.
func (r *ListenerRegistry) Notify(event models.Event) {
	r.mu.Lock()
	snapshot := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.mu.Unlock()

	for _, l := range snapshot {
		r.deliver(l, event)
	}
}

func (r *ListenerRegistry) deliver(l Listener, event models.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Listener notification failed: %v", rec)
		}
	}()
	l(event)
}
