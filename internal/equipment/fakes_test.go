package equipment

import (
	"fmt"
	"testing"

	"github.com/l1jgo/armory/internal/core/event"
	"github.com/l1jgo/armory/internal/item"
	"github.com/stretchr/testify/assert"
)

// memStorage keeps vacated slots and refills the most recent hole first.
type memStorage struct {
	stacks []item.Stack
	holes  []int
	subs   []func()
}

func (s *memStorage) AddStacks(stacks []item.Stack) error {
	for _, in := range stacks {
		if in.IsEmpty() {
			return fmt.Errorf("empty stack")
		}
		if i := s.find(in.ID); i >= 0 {
			s.stacks[i].Quantity += in.Quantity
			continue
		}
		if n := len(s.holes); n > 0 {
			i := s.holes[n-1]
			s.holes = s.holes[:n-1]
			s.stacks[i] = in
			continue
		}
		s.stacks = append(s.stacks, in)
	}
	s.notify()
	return nil
}

func (s *memStorage) RemoveStacks(stacks []item.Stack) error {
	for _, out := range stacks {
		i := s.find(out.ID)
		if i < 0 {
			return fmt.Errorf("unknown item %s", out.ID)
		}
		s.stacks[i].Quantity -= min(out.Quantity, s.stacks[i].Quantity)
		if s.stacks[i].Quantity == 0 {
			s.stacks[i] = item.Stack{}
			s.holes = append(s.holes, i)
		}
	}
	s.notify()
	return nil
}

func (s *memStorage) ListStacks() []item.Stack {
	return append([]item.Stack(nil), s.stacks...)
}

func (s *memStorage) Restore(index int, st item.Stack) bool {
	if index < 0 || index >= len(s.stacks) || !s.stacks[index].IsEmpty() || s.find(st.ID) >= 0 {
		return false
	}
	for i, h := range s.holes {
		if h == index {
			s.holes = append(s.holes[:i], s.holes[i+1:]...)
			break
		}
	}
	s.stacks[index] = st
	s.notify()
	return true
}

func (s *memStorage) OnChange(fn func()) func() {
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() { s.subs[idx] = nil }
}

func (s *memStorage) find(id item.ID) int {
	for i, st := range s.stacks {
		if !st.IsEmpty() && st.ID == id {
			return i
		}
	}
	return -1
}

func (s *memStorage) notify() {
	for _, fn := range s.subs {
		if fn != nil {
			fn()
		}
	}
}

// memAuthority counts grants so tests can check nothing leaks.
type memAuthority struct {
	active    bool
	next      int
	abilities map[item.Handle]item.AbilityClass
	effects   map[item.Handle]item.EffectClass
	tags      map[item.Tag]int
	base      item.TagSet
	failing   map[item.EffectClass]bool
	onRevoke  func()
	revoked   map[item.Handle]int
	stray     int // releases of handles this authority never issued or already released
}

func newMemAuthority(base ...item.Tag) *memAuthority {
	return &memAuthority{
		active:    true,
		abilities: make(map[item.Handle]item.AbilityClass),
		effects:   make(map[item.Handle]item.EffectClass),
		tags:      make(map[item.Tag]int),
		base:      item.NewTagSet(base...),
		failing:   make(map[item.EffectClass]bool),
		revoked:   make(map[item.Handle]int),
	}
}

func (a *memAuthority) handle() item.Handle {
	a.next++
	return item.Handle(fmt.Sprintf("h%d", a.next))
}

func (a *memAuthority) Active() bool { return a.active }

func (a *memAuthority) GrantAbility(c item.AbilityClass) item.Handle {
	h := a.handle()
	a.abilities[h] = c
	return h
}

func (a *memAuthority) RevokeAbility(h item.Handle) {
	if _, ok := a.abilities[h]; !ok {
		a.stray++
	}
	a.revoked[h]++
	delete(a.abilities, h)
	if a.onRevoke != nil {
		fn := a.onRevoke
		a.onRevoke = nil
		fn()
	}
}

func (a *memAuthority) ApplyEffect(c item.EffectClass) item.Handle {
	if a.failing[c] {
		return ""
	}
	h := a.handle()
	a.effects[h] = c
	return h
}

func (a *memAuthority) RemoveEffect(h item.Handle) {
	if _, ok := a.effects[h]; !ok {
		a.stray++
	}
	a.revoked[h]++
	delete(a.effects, h)
}

func (a *memAuthority) AddTags(tags item.TagSet) {
	for t := range tags {
		a.tags[t]++
	}
}

func (a *memAuthority) RemoveTags(tags item.TagSet) {
	for t := range tags {
		if a.tags[t]--; a.tags[t] <= 0 {
			delete(a.tags, t)
		}
	}
}

func (a *memAuthority) OwnedTags() item.TagSet {
	out := a.base.Clone()
	for t := range a.tags {
		out.Add(t)
	}
	return out
}

// assertRevokedOnce checks that each of the entry's handles was released
// exactly once and that nothing unknown was released.
func (a *memAuthority) assertRevokedOnce(t *testing.T, e EquippedEntry) {
	t.Helper()
	handles := append(append([]item.Handle(nil), e.AbilityHandles...), e.EffectHandles...)
	assert.NotEmpty(t, handles)
	for _, h := range handles {
		assert.Equal(t, 1, a.revoked[h], "releases of %s", h)
	}
	assert.Zero(t, a.stray, "released an unknown handle")
}

func (a *memAuthority) granted() int { return len(a.abilities) + len(a.effects) + len(a.tags) }

type memResolver struct {
	defs    map[item.ID]*item.Definition
	noInst  map[item.ID]bool
	instErr int
}

func (r *memResolver) Resolve(id item.ID) (*item.Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

func (r *memResolver) Instantiate(id item.ID) (*item.Instance, bool) {
	if _, ok := r.defs[id]; !ok || r.noInst[id] {
		r.instErr++
		return nil, false
	}
	return &item.Instance{ItemID: id, Props: map[string]any{"id": string(id)}}, true
}

type memRecorder struct{ records []Record }

func (r *memRecorder) Record(rec Record) { r.records = append(r.records, rec) }

func (r *memRecorder) kinds() []string {
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Kind)
	}
	return out
}

type eventLog struct {
	changed    int
	equipped   []event.ItemEquipped
	unequipped []event.ItemUnequipped
}

func watch(b *event.Bus) *eventLog {
	l := &eventLog{}
	event.Subscribe(b, func(event.InventoryChanged) { l.changed++ })
	event.Subscribe(b, func(e event.ItemEquipped) { l.equipped = append(l.equipped, e) })
	event.Subscribe(b, func(e event.ItemUnequipped) { l.unequipped = append(l.unequipped, e) })
	return l
}

func sword() *item.Definition {
	return &item.Definition{
		ID:         "sword",
		Equippable: true,
		Fragment: &item.CapabilityFragment{
			Abilities:    []item.AbilityClass{"Slash"},
			Effects:      []item.EffectClass{"Sharpness"},
			EquippedTags: item.NewTagSet("Status.Armed.Sword"),
			RequiredSlot: item.NoRequiredSlot,
		},
	}
}

func shield() *item.Definition {
	return &item.Definition{
		ID:         "shield",
		Equippable: true,
		Fragment: &item.CapabilityFragment{
			Abilities:    []item.AbilityClass{"Block"},
			EquippedTags: item.NewTagSet("Status.Shielded"),
			RequiredSlot: 1,
		},
	}
}

type harness struct {
	m         *Manager
	storage   *memStorage
	authority *memAuthority
	resolver  *memResolver
	recorder  *memRecorder
	events    *eventLog
}

func newHarness(stacks ...item.Stack) *harness {
	h := &harness{
		storage:   &memStorage{stacks: stacks},
		authority: newMemAuthority(),
		resolver: &memResolver{
			defs: map[item.ID]*item.Definition{
				"sword":  sword(),
				"shield": shield(),
				"potion": {ID: "potion"},
				"relic":  {ID: "relic", Equippable: true},
			},
			noInst: map[item.ID]bool{},
		},
		recorder: &memRecorder{},
	}
	bus := event.NewBus()
	h.events = watch(bus)
	h.m = NewManager(Options{
		Actor:     "actor-1",
		MaxSlots:  3,
		Storage:   func() (Storage, bool) { return h.storage, true },
		Authority: func() (CapabilityAuthority, bool) { return h.authority, h.authority != nil },
		Resolver:  h.resolver,
		Bus:       bus,
		Recorder:  h.recorder,
	})
	h.m.Initialize()
	return h
}
