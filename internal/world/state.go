package world

import (
	"errors"
	"fmt"

	"github.com/l1jgo/armory/internal/ability"
	"github.com/l1jgo/armory/internal/core/ecs"
	"github.com/l1jgo/armory/internal/core/event"
	"github.com/l1jgo/armory/internal/equipment"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

var (
	ErrActorExists   = errors.New("actor already spawned")
	ErrActorNotFound = errors.New("actor not found")
)

// ActorInfo is the identity component of a spawned actor.
type ActorInfo struct {
	ID string
	// Owner is the session ID of the single observer allowed to see this
	// actor's equipment; zero when nobody owns it.
	Owner uint64
}

// Actor bundles the components of one spawned actor.
type Actor struct {
	Entity    ecs.EntityID
	Info      *ActorInfo
	Inv       *Inventory
	Equip     *equipment.Manager
	Authority *ability.System // nil until attached
}

// Options configures the actor registry.
type Options struct {
	MaxSlots int
	Capacity int
	Resolver equipment.Resolver
	Known    func(item.ID) bool
	Bus      *event.Bus
	Recorder equipment.Recorder
	Log      *zap.Logger
}

// State is the registry of spawned actors, built on ECS component stores.
// Accessed only from the game loop goroutine.
type State struct {
	world       *ecs.World
	infos       *ecs.Store[ActorInfo]
	inventories *ecs.Store[Inventory]
	equipment   *ecs.Store[equipment.Manager]
	authorities *ecs.Store[ability.System]
	byID        map[string]ecs.EntityID
	opts        Options
	log         *zap.Logger
}

func NewState(opts Options) *State {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	s := &State{
		infos:       ecs.NewStore[ActorInfo](),
		inventories: ecs.NewStore[Inventory](),
		equipment:   ecs.NewStore[equipment.Manager](),
		authorities: ecs.NewStore[ability.System](),
		byID:        make(map[string]ecs.EntityID, 64),
		opts:        opts,
		log:         opts.Log,
	}
	s.world = ecs.NewWorld(s.infos, s.inventories, s.equipment, s.authorities)
	return s
}

// Spawn creates an actor with the given persisted stacks, binds its
// equipment manager to its inventory and initializes it.
func (s *State) Spawn(id string, stacks []item.Stack) (*Actor, error) {
	if _, ok := s.byID[id]; ok {
		return nil, fmt.Errorf("spawn %s: %w", id, ErrActorExists)
	}
	e := s.world.Create()

	inv := NewInventory(s.opts.Capacity, s.opts.Known)
	inv.Load(stacks)
	s.infos.Set(e, &ActorInfo{ID: id})
	s.inventories.Set(e, inv)

	m := equipment.NewManager(equipment.Options{
		Actor:     id,
		MaxSlots:  s.opts.MaxSlots,
		Storage:   s.storageLocator(e),
		Authority: s.authorityLocator(e),
		Resolver:  s.opts.Resolver,
		Bus:       s.opts.Bus,
		Recorder:  s.opts.Recorder,
		Log:       s.log,
	})
	s.equipment.Set(e, m)
	s.byID[id] = e
	m.Initialize()

	s.log.Info("actor spawned", zap.String("actor", id), zap.Int("stacks", inv.Size()))
	return s.actor(e), nil
}

// AttachAuthority attaches a capability authority, detaching any previous one.
func (s *State) AttachAuthority(id string, a *ability.System) error {
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("attach authority %s: %w", id, ErrActorNotFound)
	}
	if old, ok := s.authorities.Get(e); ok && old != a {
		old.Detach()
	}
	s.authorities.Set(e, a)
	return nil
}

// DetachAuthority detaches and forgets the actor's capability authority.
func (s *State) DetachAuthority(id string) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	if a, ok := s.authorities.Get(e); ok {
		a.Detach()
		s.authorities.Remove(e)
	}
}

// Despawn shuts the actor's equipment down and queues its entity for
// destruction at the end of the tick. The returned actor stays readable
// until then so its inventory can be saved.
func (s *State) Despawn(id string) (*Actor, bool) {
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	a := s.actor(e)
	if a.Equip != nil {
		a.Equip.Shutdown()
	}
	if a.Authority != nil {
		a.Authority.Detach()
	}
	delete(s.byID, id)
	s.world.Destroy(e)
	s.log.Info("actor despawned", zap.String("actor", id))
	return a, true
}

// Get returns the actor with the given ID.
func (s *State) Get(id string) (*Actor, bool) {
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.actor(e), true
}

// SetOwner makes session the single owner of the actor, returning the
// previous owner.
func (s *State) SetOwner(id string, session uint64) (prev uint64, err error) {
	e, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("set owner %s: %w", id, ErrActorNotFound)
	}
	info, _ := s.infos.Get(e)
	prev = info.Owner
	info.Owner = session
	return prev, nil
}

// ReleaseOwner clears ownership of every actor owned by session.
func (s *State) ReleaseOwner(session uint64) {
	s.infos.Each(func(_ ecs.EntityID, info *ActorInfo) {
		if info.Owner == session {
			info.Owner = 0
		}
	})
}

// EachInventory calls fn for every spawned actor's inventory.
func (s *State) EachInventory(fn func(*ActorInfo, *Inventory)) {
	ecs.Join(s.infos, s.inventories, func(e ecs.EntityID, info *ActorInfo, inv *Inventory) {
		if cur, alive := s.byID[info.ID]; alive && cur == e {
			fn(info, inv)
		}
	})
}

// All calls fn for every spawned actor.
func (s *State) All(fn func(*Actor)) {
	for _, e := range s.byID {
		fn(s.actor(e))
	}
}

func (s *State) Count() int { return len(s.byID) }

// FlushDestroyed removes despawned actors' components. Called once per tick
// by the cleanup system.
func (s *State) FlushDestroyed() int {
	return s.world.Flush()
}

func (s *State) actor(e ecs.EntityID) *Actor {
	a := &Actor{Entity: e}
	a.Info, _ = s.infos.Get(e)
	a.Inv, _ = s.inventories.Get(e)
	a.Equip, _ = s.equipment.Get(e)
	a.Authority, _ = s.authorities.Get(e)
	return a
}

func (s *State) storageLocator(e ecs.EntityID) equipment.StorageLocator {
	return func() (equipment.Storage, bool) {
		inv, ok := s.inventories.Get(e)
		if !ok {
			return nil, false
		}
		return inv, true
	}
}

func (s *State) authorityLocator(e ecs.EntityID) equipment.AuthorityLocator {
	return func() (equipment.CapabilityAuthority, bool) {
		a, ok := s.authorities.Get(e)
		if !ok {
			return nil, false
		}
		return a, true
	}
}
