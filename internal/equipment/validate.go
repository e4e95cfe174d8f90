package equipment

import "github.com/l1jgo/armory/internal/item"

// equipPlan carries what validation resolved so Equip does not resolve twice.
type equipPlan struct {
	stack item.Stack
	def   *item.Definition
	slot  int
}

// CanEquip runs the equip validation pipeline without side effects.
func (m *Manager) CanEquip(source, target int) EquipResult {
	res, _ := m.evaluate(source, target)
	return res
}

// evaluate checks, in order: storage, source index, duplicate identity,
// equippability, slot resolution, slot range, required slot, owner tags.
// The order decides which result a caller sees and must not change.
func (m *Manager) evaluate(source, target int) (EquipResult, equipPlan) {
	var plan equipPlan

	if !m.bridge.ready() {
		return StorageNotReady, plan
	}

	stacks := m.bridge.storage.ListStacks()
	if !validStackIndex(stacks, source) {
		return InvalidSlot, plan
	}
	plan.stack = stacks[source]

	if m.slotOf(plan.stack.ID) >= 0 {
		return AlreadyEquipped, plan
	}

	def, ok := m.resolve(plan.stack.ID)
	if !ok || !def.Equippable || def.Fragment == nil {
		return ItemNotEquippable, plan
	}
	plan.def = def
	frag := def.Fragment

	slot := target
	if slot == AutoSlot {
		slot = m.selectSlot(frag, target)
		if slot < 0 {
			return NoAvailableSlots, plan
		}
	}

	if !m.validEquipSlot(slot) {
		return InvalidSlot, plan
	}
	plan.slot = slot

	if frag.HasRequiredSlot() && target != AutoSlot && target != frag.RequiredSlot {
		return SlotMismatch, plan
	}

	if !frag.CanBeEquippedBy(m.grants.ownedTags()) {
		return TagRequirementsFailed, plan
	}

	return Success, plan
}

// selectSlot picks a target slot for an item. A slot required by the
// fragment is never substituted; otherwise only an empty preferred slot is
// accepted. There is no first-free-slot fallback. Returns -1 when nothing fits.
func (m *Manager) selectSlot(frag *item.CapabilityFragment, preferred int) int {
	if frag.HasRequiredSlot() {
		if frag.RequiredSlot < len(m.slots) {
			return frag.RequiredSlot
		}
		return -1
	}
	if m.validEquipSlot(preferred) && m.slots[preferred] == nil {
		return preferred
	}
	return -1
}
