// Package equipment keeps an actor's equipment slots consistent with its item
// storage and its capability authority. The Manager is the single writer for
// one actor and must only be used from the game loop goroutine.
package equipment

import (
	"fmt"

	"github.com/l1jgo/armory/internal/core/event"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

const (
	DefaultMaxSlots = 3
	MaxSlotsLimit   = 10
)

// EquippedEntry is the state of one occupied equipment slot.
type EquippedEntry struct {
	SourceID       item.ID
	InventoryIndex int
	Stack          item.Stack
	Instance       *item.Instance
	AbilityHandles []item.Handle
	EffectHandles  []item.Handle
	GrantedTags    item.TagSet
}

func (e *EquippedEntry) clearGrants() {
	e.AbilityHandles = nil
	e.EffectHandles = nil
	e.GrantedTags = nil
}

func (e *EquippedEntry) clone() *EquippedEntry {
	c := *e
	c.AbilityHandles = append([]item.Handle(nil), e.AbilityHandles...)
	c.EffectHandles = append([]item.Handle(nil), e.EffectHandles...)
	if e.GrantedTags != nil {
		c.GrantedTags = e.GrantedTags.Clone()
	}
	return &c
}

// Options configures a Manager.
type Options struct {
	Actor     string
	MaxSlots  int
	Storage   StorageLocator
	Authority AuthorityLocator
	Resolver  Resolver
	Bus       *event.Bus
	Recorder  Recorder
	Log       *zap.Logger
}

// Manager owns an actor's equipment table.
type Manager struct {
	actor    string
	slots    []*EquippedEntry // nil = empty; length fixed at construction
	bridge   storageBridge
	grants   grantCoordinator
	resolver Resolver
	bus      *event.Bus
	recorder Recorder
	log      *zap.Logger

	reconciling bool
	pending     bool
	version     uint64
}

// NewManager creates a manager with every slot empty. MaxSlots outside
// 1..MaxSlotsLimit falls back to DefaultMaxSlots.
func NewManager(opts Options) *Manager {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("actor", opts.Actor), zap.String("role", "authority"))

	n := opts.MaxSlots
	if n < 1 || n > MaxSlotsLimit {
		n = DefaultMaxSlots
	}

	return &Manager{
		actor:    opts.Actor,
		slots:    make([]*EquippedEntry, n),
		bridge:   storageBridge{locate: opts.Storage, log: log},
		grants:   grantCoordinator{locate: opts.Authority, log: log},
		resolver: opts.Resolver,
		bus:      opts.Bus,
		recorder: opts.Recorder,
		log:      log,
	}
}

// Initialize binds the storage service. It reports whether the manager is
// ready; a manager that failed to bind never becomes ready.
func (m *Manager) Initialize() bool {
	if m.bridge.bind(m.onStorageChange) {
		m.version++
		event.Publish(m.bus, event.Initialized{Actor: m.actor})
	}
	return m.bridge.ready()
}

// Shutdown revokes the capabilities of every occupied slot, empties the
// table and detaches from storage.
func (m *Manager) Shutdown() {
	for slot, e := range m.slots {
		if e == nil {
			continue
		}
		m.grants.revoke(slot, e)
		m.slots[slot] = nil
		m.record(Record{Kind: RecordUnequip, Slot: slot, Index: e.InventoryIndex, Stack: e.Stack})
	}
	m.bridge.unbind()
	m.version++
	m.log.Debug("equipment shut down")
}

func (m *Manager) Actor() string   { return m.actor }
func (m *Manager) MaxSlots() int   { return len(m.slots) }
func (m *Manager) IsReady() bool   { return m.bridge.ready() }
func (m *Manager) Version() uint64 { return m.version }

// ==================== Storage requests ====================

// AddItem asks storage to add qty of id.
func (m *Manager) AddItem(id item.ID, qty int) error {
	if !m.requireStorage() {
		return ErrStorageNotReady
	}
	if id == "" || qty <= 0 {
		m.log.Warn("add rejected", zap.String("item", string(id)), zap.Int("qty", qty))
		return ErrInvalidQuantity
	}
	m.log.Info("adding item", zap.String("item", string(id)), zap.Int("qty", qty))
	if err := m.bridge.storage.AddStacks([]item.Stack{{ID: id, Quantity: qty}}); err != nil {
		m.log.Warn("add failed", zap.String("item", string(id)), zap.Error(err))
		return fmt.Errorf("add %s: %w", id, err)
	}
	return nil
}

// RemoveItem asks storage to remove qty of id. Removing an equipped item is
// allowed; reconciliation unequips it once the identity leaves storage.
func (m *Manager) RemoveItem(id item.ID, qty int) error {
	if !m.requireStorage() {
		return ErrStorageNotReady
	}
	if id == "" || qty <= 0 {
		m.log.Warn("remove rejected", zap.String("item", string(id)), zap.Int("qty", qty))
		return ErrInvalidQuantity
	}
	m.log.Info("removing item", zap.String("item", string(id)), zap.Int("qty", qty))
	if err := m.bridge.storage.RemoveStacks([]item.Stack{{ID: id, Quantity: qty}}); err != nil {
		m.log.Warn("remove failed", zap.String("item", string(id)), zap.Error(err))
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// DiscardAtSlot removes up to qty from the stack at index. Equipped items
// must be unequipped first.
func (m *Manager) DiscardAtSlot(index, qty int) error {
	if !m.requireStorage() {
		return ErrStorageNotReady
	}
	stack, ok := m.ItemAt(index)
	if !ok {
		m.log.Warn("discard rejected: invalid inventory index", zap.Int("index", index))
		return ErrInvalidIndex
	}
	if qty <= 0 {
		m.log.Warn("discard rejected: invalid quantity", zap.Int("index", index), zap.Int("qty", qty))
		return ErrInvalidQuantity
	}
	if m.slotOf(stack.ID) >= 0 {
		m.log.Warn("cannot discard equipped item, unequip first",
			zap.Int("index", index),
			zap.String("item", string(stack.ID)),
		)
		return ErrItemEquipped
	}

	removeQty := min(qty, stack.Quantity)
	m.log.Info("discarding item",
		zap.Int("index", index),
		zap.String("item", string(stack.ID)),
		zap.Int("qty", removeQty),
	)
	discarded := item.Stack{ID: stack.ID, Quantity: removeQty}
	if err := m.bridge.storage.RemoveStacks([]item.Stack{discarded}); err != nil {
		m.log.Warn("discard failed", zap.Int("index", index), zap.Error(err))
		return fmt.Errorf("discard %s: %w", stack.ID, err)
	}
	m.record(Record{Kind: RecordDiscard, Slot: -1, Index: index, Stack: discarded})
	return nil
}

// Swap exchanges the stacks at two inventory indices. Storage performs the
// move; equipped entries are remapped by index afterwards. Notifications
// raised while storage is rearranged are coalesced into one reconciliation.
// When storage refuses the re-add, both stacks are restored in place and the
// error is returned with nothing changed.
func (m *Manager) Swap(from, to int) error {
	if !m.requireStorage() {
		return ErrStorageNotReady
	}
	if from == to {
		return nil
	}
	stacks := m.bridge.storage.ListStacks()
	if !validStackIndex(stacks, from) || !validStackIndex(stacks, to) {
		m.log.Warn("swap rejected: invalid indices",
			zap.Int("from", from),
			zap.Int("to", to),
			zap.Int("size", len(stacks)),
		)
		return ErrInvalidIndex
	}
	fromStack, toStack := stacks[from], stacks[to]

	m.log.Info("swapping stacks",
		zap.Int("from", from), zap.String("from_item", string(fromStack.ID)),
		zap.Int("to", to), zap.String("to_item", string(toStack.ID)),
	)

	var err error
	m.holdReconcile(func() {
		pair := []item.Stack{fromStack, toStack}
		if err = m.bridge.storage.RemoveStacks(pair); err != nil {
			return
		}
		// Storage refills the most recently vacated slot first, so re-adding
		// the pair in the same order lands each stack on the other's index.
		if err = m.bridge.storage.AddStacks(pair); err != nil {
			m.rollbackSwap(from, fromStack, to, toStack)
			return
		}
		m.remapAfterSwap(from, to)
	})
	if err != nil {
		m.log.Error("swap failed", zap.Int("from", from), zap.Int("to", to), zap.Error(err))
		return fmt.Errorf("swap %d<->%d: %w", from, to, err)
	}
	m.record(Record{Kind: RecordSwap, Slot: -1, Index: from, Stack: fromStack})
	return nil
}

// rollbackSwap returns a removed pair to its original indices. It runs
// with reconciliation held, so the reconciler never sees the gap.
func (m *Manager) rollbackSwap(from int, fromStack item.Stack, to int, toStack item.Stack) {
	for _, r := range []struct {
		index int
		stack item.Stack
	}{{from, fromStack}, {to, toStack}} {
		if !m.bridge.storage.Restore(r.index, r.stack) {
			m.log.Error("swap rollback failed",
				zap.Int("index", r.index),
				zap.String("item", string(r.stack.ID)),
			)
		}
	}
}

// remapAfterSwap rewrites cached inventory indices of equipped entries.
func (m *Manager) remapAfterSwap(from, to int) {
	for _, e := range m.slots {
		if e == nil {
			continue
		}
		switch e.InventoryIndex {
		case from:
			e.InventoryIndex = to
			m.log.Debug("remapped equipped index", zap.Int("old", from), zap.Int("new", to))
		case to:
			e.InventoryIndex = from
			m.log.Debug("remapped equipped index", zap.Int("old", to), zap.Int("new", from))
		}
	}
	m.version++
}

// ==================== Equip / Unequip ====================

// Equip equips the stack at inventory index source into target, or into a
// slot chosen by slot selection when target is AutoSlot. State changes if
// and only if the returned result is Success.
func (m *Manager) Equip(source, target int) EquipResult {
	res, plan := m.evaluate(source, target)
	if !res.OK() {
		m.log.Warn("cannot equip item",
			zap.Int("index", source),
			zap.Int("target", target),
			zap.Stringer("result", res),
		)
		m.record(Record{Kind: RecordEquipRejected, Slot: target, Index: source, Stack: plan.stack, Result: res.String()})
		return res
	}

	if m.slots[plan.slot] != nil {
		m.log.Debug("unequipping current occupant", zap.Int("slot", plan.slot))
		m.Unequip(plan.slot)
	}

	e := &EquippedEntry{
		SourceID:       plan.stack.ID,
		InventoryIndex: source,
		Stack:          plan.stack,
		Instance:       m.instantiate(plan.stack.ID),
	}
	m.slots[plan.slot] = e
	m.grants.grant(plan.slot, e, plan.def.Fragment)
	m.version++

	m.log.Info("equipped item", zap.String("item", string(e.SourceID)), zap.Int("slot", plan.slot))
	m.record(Record{Kind: RecordEquip, Slot: plan.slot, Index: source, Stack: e.Stack, Result: res.String()})
	event.Publish(m.bus, event.ItemEquipped{Actor: m.actor, Slot: plan.slot, Stack: e.Stack})
	return res
}

// Unequip empties slot, revoking everything its item granted. It reports
// whether anything was unequipped.
func (m *Manager) Unequip(slot int) bool {
	if !m.validEquipSlot(slot) {
		m.log.Warn("invalid equipment slot", zap.Int("slot", slot))
		return false
	}
	e := m.slots[slot]
	if e == nil {
		m.log.Debug("equipment slot already empty", zap.Int("slot", slot))
		return false
	}

	m.grants.revoke(slot, e)
	m.slots[slot] = nil
	m.version++

	m.log.Info("unequipped item", zap.String("item", string(e.SourceID)), zap.Int("slot", slot))
	m.record(Record{Kind: RecordUnequip, Slot: slot, Index: e.InventoryIndex, Stack: e.Stack})
	event.Publish(m.bus, event.ItemUnequipped{Actor: m.actor, Slot: slot, Stack: e.Stack})
	return true
}

// ==================== Queries ====================

// ListInventory returns the ordered storage contents, including empty slots.
func (m *Manager) ListInventory() []item.Stack {
	if !m.bridge.ready() {
		return nil
	}
	return m.bridge.storage.ListStacks()
}

// ItemAt returns the stack at inventory index, if it holds one.
func (m *Manager) ItemAt(index int) (item.Stack, bool) {
	if !m.bridge.ready() {
		return item.Stack{}, false
	}
	stacks := m.bridge.storage.ListStacks()
	if !validStackIndex(stacks, index) {
		return item.Stack{}, false
	}
	return stacks[index], true
}

// Equipped returns a copy of the table, one element per slot, nil for empty.
func (m *Manager) Equipped() []*EquippedEntry {
	out := make([]*EquippedEntry, len(m.slots))
	for i, e := range m.slots {
		if e != nil {
			out[i] = e.clone()
		}
	}
	return out
}

// EquippedAt returns a copy of the entry in slot.
func (m *Manager) EquippedAt(slot int) (EquippedEntry, bool) {
	if !m.validEquipSlot(slot) || m.slots[slot] == nil {
		return EquippedEntry{}, false
	}
	return *m.slots[slot].clone(), true
}

// InstanceAt returns the runtime instance of the item in slot, if any.
func (m *Manager) InstanceAt(slot int) *item.Instance {
	if !m.validEquipSlot(slot) || m.slots[slot] == nil {
		return nil
	}
	return m.slots[slot].Instance
}

// IsEquipped reports whether the stack at inventory index is equipped.
func (m *Manager) IsEquipped(index int) bool {
	stack, ok := m.ItemAt(index)
	if !ok {
		return false
	}
	return m.slotOf(stack.ID) >= 0
}

// SlotOfIndex returns the equipment slot holding the stack at inventory
// index, or -1.
func (m *Manager) SlotOfIndex(index int) int {
	stack, ok := m.ItemAt(index)
	if !ok {
		return -1
	}
	return m.slotOf(stack.ID)
}

// IsSlotItemEquippable reports whether the stack at inventory index has an
// equippable definition, ignoring slot and tag conditions.
func (m *Manager) IsSlotItemEquippable(index int) bool {
	stack, ok := m.ItemAt(index)
	if !ok {
		return false
	}
	def, ok := m.resolve(stack.ID)
	return ok && def.Equippable
}

// FindFirstAvailableSlot returns the lowest empty equipment slot, or -1.
func (m *Manager) FindFirstAvailableSlot() int {
	for i, e := range m.slots {
		if e == nil {
			return i
		}
	}
	return -1
}

// ==================== Internals ====================

func (m *Manager) requireStorage() bool {
	if !m.bridge.ready() {
		m.log.Warn("storage not ready")
		return false
	}
	return true
}

func (m *Manager) validEquipSlot(slot int) bool {
	return slot >= 0 && slot < len(m.slots)
}

// slotOf returns the equipment slot holding id, or -1.
func (m *Manager) slotOf(id item.ID) int {
	for i, e := range m.slots {
		if e != nil && e.SourceID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) resolve(id item.ID) (*item.Definition, bool) {
	if m.resolver == nil {
		return nil, false
	}
	def, ok := m.resolver.Resolve(id)
	if !ok || def == nil {
		return nil, false
	}
	return def, true
}

func (m *Manager) instantiate(id item.ID) *item.Instance {
	if m.resolver == nil {
		return nil
	}
	inst, ok := m.resolver.Instantiate(id)
	if !ok {
		m.log.Debug("no runtime instance for item", zap.String("item", string(id)))
		return nil
	}
	return inst
}

func (m *Manager) record(r Record) {
	if m.recorder == nil {
		return
	}
	r.Actor = m.actor
	m.recorder.Record(r)
}

func validStackIndex(stacks []item.Stack, index int) bool {
	return index >= 0 && index < len(stacks) && !stacks[index].IsEmpty()
}
