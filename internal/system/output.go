package system

import (
	"time"

	"github.com/l1jgo/armory/internal/core/event"
	coresys "github.com/l1jgo/armory/internal/core/system"
	"github.com/l1jgo/armory/internal/item"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/world"
	"go.uber.org/zap"
)

// Event names on the wire.
const (
	EventInitialized      = "initialized"
	EventInventoryChanged = "inventory_changed"
	EventItemEquipped     = "item_equipped"
	EventItemUnequipped   = "item_unequipped"
)

type pendingEvent struct {
	actor string
	msg   packet.Event
}

// OutputSystem delivers equipment notifications and mirrors to the owning
// session of each actor, then flushes all session buffers. Phase 1 (Output).
type OutputSystem struct {
	world    *world.State
	sessions *net.SessionStore
	pending  []pendingEvent
	unsubs   []func()
	log      *zap.Logger
}

func NewOutputSystem(ws *world.State, sessions *net.SessionStore, bus *event.Bus, log *zap.Logger) *OutputSystem {
	s := &OutputSystem{
		world:    ws,
		sessions: sessions,
		log:      log,
	}
	s.unsubs = append(s.unsubs,
		event.Subscribe(bus, func(e event.Initialized) {
			s.queue(e.Actor, EventInitialized, nil, nil)
		}),
		event.Subscribe(bus, func(e event.InventoryChanged) {
			s.queue(e.Actor, EventInventoryChanged, nil, nil)
		}),
		event.Subscribe(bus, func(e event.ItemEquipped) {
			s.queue(e.Actor, EventItemEquipped, &e.Slot, &e.Stack)
		}),
		event.Subscribe(bus, func(e event.ItemUnequipped) {
			s.queue(e.Actor, EventItemUnequipped, &e.Slot, &e.Stack)
		}),
	)
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) queue(actor, name string, slot *int, stack *item.Stack) {
	s.pending = append(s.pending, pendingEvent{
		actor: actor,
		msg:   packet.Event{Type: packet.S_Event, Name: name, Slot: slot, Stack: stack},
	})
}

func (s *OutputSystem) Update(_ time.Duration) {
	for _, p := range s.pending {
		if sess := s.owner(p.actor); sess != nil {
			sess.Send(packet.Encode(p.msg))
		}
	}
	clear(s.pending)
	s.pending = s.pending[:0]

	s.sessions.ForEach(func(sess *net.Session) {
		if sess.State() == packet.StateBound {
			s.mirror(sess)
		}
		sess.FlushOutput()
	})
}

// mirror sends the actor's view when its version moved since the last mirror.
func (s *OutputSystem) mirror(sess *net.Session) {
	a, ok := s.world.Get(sess.Actor)
	if !ok || a.Info.Owner != sess.ID {
		return
	}
	v := a.Equip.Version()
	if sess.Mirrored && v == sess.LastVersion {
		return
	}
	sess.Send(packet.Encode(packet.Mirror{Type: packet.S_Mirror, View: a.Equip.View()}))
	sess.LastVersion = v
	sess.Mirrored = true
}

// owner returns the live session owning actor, if any.
func (s *OutputSystem) owner(actor string) *net.Session {
	a, ok := s.world.Get(actor)
	if !ok || a.Info.Owner == 0 {
		return nil
	}
	sess := s.sessions.Get(a.Info.Owner)
	if sess == nil || sess.IsClosed() {
		return nil
	}
	return sess
}

// Close unsubscribes from the event bus.
func (s *OutputSystem) Close() {
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
}
