package system

import (
	"time"

	coresys "github.com/l1jgo/armory/internal/core/system"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/persist"
	"github.com/l1jgo/armory/internal/world"
	"go.uber.org/zap"
)

// SessionSource delivers connected and dead sessions. *net.Server implements it.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
}

// InputSystem drains request queues from all sessions and dispatches them
// through the message registry. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	sessions   *net.SessionStore
	world      *world.State
	store      persist.Store
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	sessions *net.SessionStore,
	ws *world.State,
	store persist.Store,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &InputSystem{
		source:     source,
		registry:   registry,
		sessions:   sessions,
		world:      ws,
		store:      store,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.sessions.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Dead session IDs only prompt a sweep; closed sessions are found below.
	for {
		select {
		case <-s.source.DeadSessions():
		default:
			goto doneDead
		}
	}
doneDead:

	s.sessions.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			// Requests sent just before the socket closed are still applied,
			// using the last bound state.
			s.drain(sess, packet.StateBound)
			s.handleDisconnect(sess)
			s.sessions.Remove(sess.ID)
			return
		}
		s.drain(sess, sess.State())
	})

	// Early flush so replies leave before the output phase.
	s.sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *InputSystem) drain(sess *net.Session, fallback packet.SessionState) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			state := sess.State()
			if state == packet.StateDisconnecting && sess.Actor != "" {
				state = fallback
			}
			if err := s.registry.Dispatch(sess, state, data); err != nil {
				s.log.Debug("dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect saves and despawns the session's actor if the session
// still owns it. A session that lost ownership to a newer one leaves the
// actor alone.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	s.log.Info("client disconnected", zap.Uint64("session", sess.ID), zap.String("actor", sess.Actor))
	defer s.world.ReleaseOwner(sess.ID)

	if sess.Actor == "" {
		return
	}
	a, ok := s.world.Get(sess.Actor)
	if !ok || a.Info.Owner != sess.ID {
		return
	}
	saveInventory(s.store, a.Info, a.Inv, s.log)
	s.world.Despawn(sess.Actor)
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return s.sessions.Count()
}
