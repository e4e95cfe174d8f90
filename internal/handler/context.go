package handler

import (
	"github.com/l1jgo/armory/internal/ability"
	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/persist"
	"github.com/l1jgo/armory/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Store    persist.Store
	Effects  ability.EffectTable
	Sessions *net.SessionStore
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Handshake phase
	reg.Register(packet.C_Hello,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHello(sess.(*net.Session), r, deps)
		},
	)

	// Bound phase
	bound := []packet.SessionState{packet.StateBound}

	reg.Register(packet.C_AddItem, bound,
		func(sess any, r *packet.Reader) {
			HandleAddItem(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_RemoveItem, bound,
		func(sess any, r *packet.Reader) {
			HandleRemoveItem(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_Discard, bound,
		func(sess any, r *packet.Reader) {
			HandleDiscard(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_Swap, bound,
		func(sess any, r *packet.Reader) {
			HandleSwap(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_Equip, bound,
		func(sess any, r *packet.Reader) {
			HandleEquip(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_Unequip, bound,
		func(sess any, r *packet.Reader) {
			HandleUnequip(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_CanEquip, bound,
		func(sess any, r *packet.Reader) {
			HandleCanEquip(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_FirstFreeSlot, bound,
		func(sess any, r *packet.Reader) {
			HandleFirstFreeSlot(sess.(*net.Session), r, deps)
		},
	)

	// Always allowed
	reg.Register(packet.C_Quit,
		[]packet.SessionState{packet.StateHandshake, packet.StateBound},
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}
