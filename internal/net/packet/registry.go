package packet

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateHandshake SessionState = iota // connected, awaiting hello
	StateBound                         // owns an actor
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateBound:
		return "Bound"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for message handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps message types to handlers with state-based access control.
type Registry struct {
	handlers map[string]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		log:      log,
	}
}

// Register maps a message type to a handler, restricted to the given session
// states. Registering a type twice is a wiring bug and panics.
func (reg *Registry) Register(msgType string, states []SessionState, fn HandlerFunc) {
	if _, dup := reg.handlers[msgType]; dup {
		panic(fmt.Sprintf("packet: duplicate handler for %q", msgType))
	}
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[msgType] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Types returns the registered message types in sorted order.
func (reg *Registry) Types() []string {
	out := make([]string, 0, len(reg.handlers))
	for t := range reg.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Dispatch decodes the envelope, validates the session state and calls the
// handler. Unknown types are ignored.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	r, err := NewReader(data)
	if err != nil {
		return err
	}
	reg.log.Debug("message received",
		zap.String("type", r.Type()),
		zap.Int("size", len(data)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[r.Type()]
	if !ok {
		reg.log.Debug("unknown message type", zap.String("type", r.Type()), zap.String("state", state.String()))
		return nil
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("message not allowed in this state",
			zap.String("type", r.Type()),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("message %q not allowed in state %s", r.Type(), state)
	}

	return reg.safeCall(entry.fn, sess, r)
}

// safeCall executes a handler with panic recovery to prevent a single
// bad message from crashing the entire game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("type", r.Type()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %q: %v", r.Type(), rec)
		}
	}()
	fn(sess, r)
	return nil
}
