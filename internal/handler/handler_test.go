package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/core/event"
	"github.com/l1jgo/armory/internal/data"
	"github.com/l1jgo/armory/internal/item"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/persist"
	"github.com/l1jgo/armory/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalog = `
items:
  - id: sword
    name: Iron Sword
    equippable: true
    fragment:
      abilities: [Slash]
      effects: [Sharpness]
      equipped_tags: [Status.Armed]
  - id: shield
    name: Buckler
    equippable: true
    fragment:
      abilities: [Block]
      required_slot: 1
  - id: potion
    name: Red Potion
`

const testEffects = `
effects:
  - class: Sharpness
    grant_tags: [Buff.Sharp]
`

type fixture struct {
	deps  *Deps
	reg   *packet.Registry
	store *persist.MemoryStore
	next  uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := data.ParseCatalog([]byte(testCatalog), nil)
	require.NoError(t, err)
	effects, err := data.ParseEffectTable([]byte(testEffects))
	require.NoError(t, err)

	store := persist.NewMemoryStore()
	ws := world.NewState(world.Options{
		MaxSlots: 3,
		Capacity: 10,
		Resolver: catalog,
		Known:    catalog.Has,
		Bus:      event.NewBus(),
	})
	deps := &Deps{
		Config:   &config.Config{},
		Log:      zap.NewNop(),
		World:    ws,
		Store:    store,
		Effects:  effects,
		Sessions: net.NewSessionStore(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	RegisterAll(reg, deps)
	return &fixture{deps: deps, reg: reg, store: store}
}

func (f *fixture) connect() *net.Session {
	f.next++
	s := net.NewSession(nil, f.next, "test", net.SessionOptions{OutQueueSize: 64}, nil)
	f.deps.Sessions.Add(s)
	return s
}

func (f *fixture) send(t *testing.T, s *net.Session, msg string) error {
	t.Helper()
	return f.reg.Dispatch(s, s.State(), []byte(msg))
}

// replies flushes the session and decodes everything it queued.
func replies(t *testing.T, s *net.Session) []map[string]any {
	t.Helper()
	s.FlushOutput()
	var out []map[string]any
	for {
		select {
		case b := <-s.OutQueue:
			var m map[string]any
			require.NoError(t, json.Unmarshal(b, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func lastResult(t *testing.T, s *net.Session) map[string]any {
	t.Helper()
	rs := replies(t, s)
	require.NotEmpty(t, rs)
	last := rs[len(rs)-1]
	require.Equal(t, packet.S_Result, last["type"])
	return last
}

func (f *fixture) bind(t *testing.T, actor string) *net.Session {
	t.Helper()
	s := f.connect()
	require.NoError(t, f.send(t, s, `{"type":"hello","actor":"`+actor+`"}`))
	rs := replies(t, s)
	require.Len(t, rs, 1)
	require.Equal(t, packet.S_Welcome, rs[0]["type"])
	return s
}

func TestHelloSpawnsFromStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveInventory(context.Background(), "hero", []item.Stack{
		{ID: "sword", Quantity: 1},
		{},
		{ID: "potion", Quantity: 4},
	}))

	s := f.bind(t, "hero")
	assert.Equal(t, packet.StateBound, s.State())
	assert.Equal(t, "hero", s.Actor)

	a, ok := f.deps.World.Get("hero")
	require.True(t, ok)
	assert.Equal(t, s.ID, a.Info.Owner)
	require.NotNil(t, a.Authority)
	assert.True(t, a.Authority.Active())
	assert.True(t, a.Equip.IsReady())

	stacks := a.Equip.ListInventory()
	require.Len(t, stacks, 3)
	assert.True(t, stacks[1].IsEmpty())
	assert.Equal(t, 4, stacks[2].Quantity)
}

func TestHelloRejectsBadActor(t *testing.T) {
	f := newFixture(t)
	s := f.connect()
	require.NoError(t, f.send(t, s, `{"type":"hello","actor":""}`))
	assert.Equal(t, packet.CodeBadRequest, lastResult(t, s)["code"])
	assert.Equal(t, packet.StateHandshake, s.State())
}

func TestRequestsNeedHello(t *testing.T) {
	f := newFixture(t)
	s := f.connect()
	assert.Error(t, f.send(t, s, `{"type":"equip","index":0}`))
	assert.Empty(t, replies(t, s))
}

func TestHelloTakesOverOwnership(t *testing.T) {
	f := newFixture(t)
	first := f.bind(t, "hero")
	second := f.bind(t, "hero")

	assert.True(t, first.IsClosed())
	assert.Empty(t, first.Actor)
	a, _ := f.deps.World.Get("hero")
	assert.Equal(t, second.ID, a.Info.Owner)
	assert.Equal(t, 1, f.deps.World.Count())
}

func TestEquipFlow(t *testing.T) {
	f := newFixture(t)
	s := f.bind(t, "hero")

	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"sword","quantity":1}`))
	assert.Equal(t, packet.CodeOK, lastResult(t, s)["code"])
	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"shield","quantity":1}`))
	assert.Equal(t, packet.CodeOK, lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"can_equip","index":1,"slot":0}`))
	assert.Equal(t, "SLOT_MISMATCH", lastResult(t, s)["code"])

	// Without a slot only a fragment's required slot is used.
	require.NoError(t, f.send(t, s, `{"type":"equip","index":0}`))
	assert.Equal(t, "NO_AVAILABLE_SLOTS", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"first_free_slot"}`))
	assert.EqualValues(t, 0, lastResult(t, s)["slot"])

	require.NoError(t, f.send(t, s, `{"type":"equip","index":0,"slot":0}`))
	res := lastResult(t, s)
	assert.Equal(t, "SUCCESS", res["code"])
	assert.EqualValues(t, 0, res["slot"])

	a, _ := f.deps.World.Get("hero")
	assert.Equal(t, []item.AbilityClass{"Slash"}, a.Authority.Abilities())
	assert.Equal(t, []item.EffectClass{"Sharpness"}, a.Authority.Effects())
	assert.True(t, a.Authority.OwnedTags().Has("Buff.Sharp"))
	assert.True(t, a.Authority.OwnedTags().Has("Status.Armed"))

	require.NoError(t, f.send(t, s, `{"type":"equip","index":0,"slot":2}`))
	assert.Equal(t, "ALREADY_EQUIPPED", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"equip","index":1}`))
	res = lastResult(t, s)
	assert.Equal(t, "SUCCESS", res["code"])
	assert.EqualValues(t, 1, res["slot"])
	assert.Equal(t, []item.AbilityClass{"Block", "Slash"}, a.Authority.Abilities())

	require.NoError(t, f.send(t, s, `{"type":"first_free_slot"}`))
	assert.EqualValues(t, 2, lastResult(t, s)["slot"])

	require.NoError(t, f.send(t, s, `{"type":"discard","index":0,"quantity":1}`))
	assert.Equal(t, "ALREADY_EQUIPPED", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"unequip","slot":0}`))
	assert.Equal(t, packet.CodeOK, lastResult(t, s)["code"])
	assert.Equal(t, []item.AbilityClass{"Block"}, a.Authority.Abilities())
	assert.False(t, a.Authority.OwnedTags().Has("Status.Armed"))

	require.NoError(t, f.send(t, s, `{"type":"unequip","slot":0}`))
	assert.Equal(t, packet.CodeNotEquipped, lastResult(t, s)["code"])
}

func TestInventoryRequests(t *testing.T) {
	f := newFixture(t)
	s := f.bind(t, "hero")

	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"dragon","quantity":1}`))
	assert.Equal(t, "UNKNOWN_ITEM", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"potion","quantity":0}`))
	assert.Equal(t, packet.CodeBadRequest, lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"potion","quantity":3}`))
	require.NoError(t, f.send(t, s, `{"type":"add_item","item":"sword","quantity":1}`))
	replies(t, s)

	require.NoError(t, f.send(t, s, `{"type":"remove_item","item":"potion","quantity":9}`))
	assert.Equal(t, "INSUFFICIENT_QUANTITY", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"swap","from":0,"to":1}`))
	assert.Equal(t, packet.CodeOK, lastResult(t, s)["code"])

	a, _ := f.deps.World.Get("hero")
	stacks := a.Equip.ListInventory()
	assert.Equal(t, item.ID("sword"), stacks[0].ID)
	assert.Equal(t, item.ID("potion"), stacks[1].ID)

	require.NoError(t, f.send(t, s, `{"type":"swap","from":0,"to":7}`))
	assert.Equal(t, "INVALID_SLOT", lastResult(t, s)["code"])

	require.NoError(t, f.send(t, s, `{"type":"discard","index":1,"quantity":2}`))
	assert.Equal(t, packet.CodeOK, lastResult(t, s)["code"])
	assert.Equal(t, 1, a.Inv.Quantity("potion"))

	require.NoError(t, f.send(t, s, `{"type":"swap","from":"x"}`))
	assert.Equal(t, packet.CodeBadRequest, lastResult(t, s)["code"])
}

func TestUnknownActorAfterDespawn(t *testing.T) {
	f := newFixture(t)
	s := f.bind(t, "hero")
	f.deps.World.Despawn("hero")

	require.NoError(t, f.send(t, s, `{"type":"first_free_slot"}`))
	assert.Equal(t, packet.CodeUnknownActor, lastResult(t, s)["code"])
}

func TestQuitClosesSession(t *testing.T) {
	f := newFixture(t)
	s := f.bind(t, "hero")
	require.NoError(t, f.send(t, s, `{"type":"quit"}`))
	assert.True(t, s.IsClosed())
}
