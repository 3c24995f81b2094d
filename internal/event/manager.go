package event

import (
	"go.uber.org/zap"
	"sync"
)

// listenerBuffer is how many events a listener may fall behind before
// EmitEvent blocks.
const listenerBuffer = 64

var (
	mu        sync.RWMutex
	listeners = make([]*Listener, 0)
)

// Listener receives the events of its types in the order they were emitted,
// one at a time, on its own goroutine.
type Listener struct {
	eventTypes map[Type]bool
	channel    chan interface{}
}

func AddEventListener(eventType Type, callback func(msg interface{})) {
	AddListener(callback, eventType)
}

// AddListener registers a single callback for several event types. Events of
// different types keep their relative order, which separate listeners do not
// guarantee.
func AddListener(callback func(msg interface{}), eventTypes ...Type) {
	listener := Listener{
		eventTypes: make(map[Type]bool, len(eventTypes)),
		channel:    make(chan interface{}, listenerBuffer),
	}
	for _, eventType := range eventTypes {
		zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")
		listener.eventTypes[eventType] = true
	}

	mu.Lock()
	listeners = append(listeners, &listener)
	mu.Unlock()

	go func() {
		for msg := range listener.channel {
			callback(msg)
		}
	}()
}

// EmitEvent queues msg on every listener of eventType. It blocks while a
// listener's buffer is full, so callbacks must not emit events themselves.
func EmitEvent(eventType Type, msg interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if len(listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}
	for _, listener := range listeners {
		if listener.eventTypes[eventType] {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			listener.channel <- msg
		}
	}
}

// RemoveAllListeners stops every listener goroutine once it has drained its
// queued events.
func RemoveAllListeners() {
	mu.Lock()
	defer mu.Unlock()

	for _, listener := range listeners {
		close(listener.channel)
	}
	listeners = make([]*Listener, 0)
}
