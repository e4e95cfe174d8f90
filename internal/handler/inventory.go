package handler

import (
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
)

// HandleAddItem adds a quantity of an item identity to the actor's storage.
func HandleAddItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.AddItem
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_AddItem, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_AddItem, deps)
	if !ok {
		return
	}
	if err := a.Equip.AddItem(msg.Item, msg.Quantity); err != nil {
		sendError(sess, packet.C_AddItem, err)
		return
	}
	sendResult(sess, packet.C_AddItem, packet.CodeOK)
}

// HandleRemoveItem removes a quantity of an item identity. Removing an
// equipped identity entirely unequips it on the next reconciliation.
func HandleRemoveItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.RemoveItem
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_RemoveItem, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_RemoveItem, deps)
	if !ok {
		return
	}
	if err := a.Equip.RemoveItem(msg.Item, msg.Quantity); err != nil {
		sendError(sess, packet.C_RemoveItem, err)
		return
	}
	sendResult(sess, packet.C_RemoveItem, packet.CodeOK)
}

// HandleDiscard drops part or all of the stack at an inventory index.
func HandleDiscard(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Discard
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_Discard, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_Discard, deps)
	if !ok {
		return
	}
	if err := a.Equip.DiscardAtSlot(msg.Index, msg.Quantity); err != nil {
		sendError(sess, packet.C_Discard, err)
		return
	}
	sendResult(sess, packet.C_Discard, packet.CodeOK)
}

// HandleSwap exchanges two inventory indices, keeping equipment bound.
func HandleSwap(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Swap
	if err := r.Decode(&msg); err != nil {
		sendResult(sess, packet.C_Swap, packet.CodeBadRequest)
		return
	}
	a, ok := boundActor(sess, packet.C_Swap, deps)
	if !ok {
		return
	}
	if err := a.Equip.Swap(msg.From, msg.To); err != nil {
		sendError(sess, packet.C_Swap, err)
		return
	}
	sendResult(sess, packet.C_Swap, packet.CodeOK)
}
