package handler

import (
	"errors"

	"github.com/l1jgo/armory/internal/equipment"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/world"
)

func sendResult(sess *net.Session, request, code string) {
	sess.Send(packet.Encode(packet.Result{Type: packet.S_Result, Request: request, Code: code}))
}

func sendSlotResult(sess *net.Session, request, code string, slot int) {
	sess.Send(packet.Encode(packet.Result{Type: packet.S_Result, Request: request, Code: code, Slot: &slot}))
}

func sendError(sess *net.Session, request string, err error) {
	sess.Send(packet.Encode(packet.Result{
		Type:    packet.S_Result,
		Request: request,
		Code:    errorCode(err),
		Error:   err.Error(),
	}))
}

// errorCode maps storage and manager errors onto wire result codes.
func errorCode(err error) string {
	switch {
	case err == nil:
		return packet.CodeOK
	case errors.Is(err, equipment.ErrStorageNotReady):
		return equipment.StorageNotReady.String()
	case errors.Is(err, equipment.ErrItemEquipped):
		return equipment.AlreadyEquipped.String()
	case errors.Is(err, equipment.ErrInvalidIndex):
		return equipment.InvalidSlot.String()
	case errors.Is(err, equipment.ErrInvalidQuantity),
		errors.Is(err, world.ErrInvalidQuantity):
		return packet.CodeBadRequest
	case errors.Is(err, world.ErrInventoryFull):
		return "INVENTORY_FULL"
	case errors.Is(err, world.ErrUnknownItem):
		return "UNKNOWN_ITEM"
	case errors.Is(err, world.ErrInsufficientQuantity):
		return "INSUFFICIENT_QUANTITY"
	default:
		return packet.CodeRejected
	}
}

// boundActor returns the session's actor, answering UNKNOWN_ACTOR when it
// is no longer spawned.
func boundActor(sess *net.Session, request string, deps *Deps) (*world.Actor, bool) {
	a, ok := deps.World.Get(sess.Actor)
	if !ok {
		sendResult(sess, request, packet.CodeUnknownActor)
		return nil, false
	}
	return a, true
}
