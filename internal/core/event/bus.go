package event

import (
	"reflect"
	"sync"
)

// Bus delivers typed notifications synchronously to subscribers in
// registration order. Publishing happens on the game loop goroutine only;
// the mutex guards registration, which may happen during startup wiring.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]any),
	}
}

// Subscribe registers a typed handler for events of type T. The returned
// func removes it again.
func Subscribe[T any](b *Bus, fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
	idx := len(b.handlers[t]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[t]
		if idx < len(hs) {
			hs[idx] = nil
		}
	}
}

// Publish delivers event to every handler subscribed to T before returning.
func Publish[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.RLock()
	hs := append([]any(nil), b.handlers[t]...)
	b.mu.RUnlock()
	for _, h := range hs {
		if fn, ok := h.(func(T)); ok {
			fn(event)
		}
	}
}
