package handler

import (
	"github.com/l1jgo/armory/internal/equipment"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
)

// HandleEquip equips the stack at an inventory index. The result code is the
// validation outcome.
func HandleEquip(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Equip
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_Equip, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_Equip, deps)
	if !ok {
		return
	}
	res := a.Equip.Equip(msg.Index, msg.TargetSlot())
	if !res.OK() {
		sendResult(sess, packet.C_Equip, res.String())
		return
	}
	sendSlotResult(sess, packet.C_Equip, res.String(), a.Equip.SlotOfIndex(msg.Index))
}

// HandleUnequip clears an equipment slot.
func HandleUnequip(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Unequip
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_Unequip, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_Unequip, deps)
	if !ok {
		return
	}
	if !a.Equip.Unequip(msg.Slot) {
		sendSlotResult(sess, packet.C_Unequip, packet.CodeNotEquipped, msg.Slot)
		return
	}
	sendSlotResult(sess, packet.C_Unequip, packet.CodeOK, msg.Slot)
}

// HandleCanEquip runs the equip validation without side effects.
func HandleCanEquip(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Equip
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_CanEquip, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_CanEquip, deps)
	if !ok {
		return
	}
	sendResult(sess, packet.C_CanEquip, a.Equip.CanEquip(msg.Index, msg.TargetSlot()).String())
}

// HandleFirstFreeSlot reports the lowest empty equipment slot, or
// NO_AVAILABLE_SLOTS.
func HandleFirstFreeSlot(sess *net.Session, _ *packet.Reader, deps *Deps) {
	a, ok := boundActor(sess, packet.C_FirstFreeSlot, deps)
	if !ok {
		return
	}
	slot := a.Equip.FindFirstAvailableSlot()
	if slot < 0 {
		sendResult(sess, packet.C_FirstFreeSlot, equipment.NoAvailableSlots.String())
		return
	}
	sendSlotResult(sess, packet.C_FirstFreeSlot, packet.CodeOK, slot)
}
