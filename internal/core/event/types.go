package event

import "github.com/l1jgo/armory/internal/item"

// Equipment notifications. Actor is the owning actor's ID.

// Initialized is published once the equipment manager bound its storage.
type Initialized struct {
	Actor string
}

// InventoryChanged is published once per reconciliation pass, after every
// equipment correction of that pass has been applied.
type InventoryChanged struct {
	Actor string
}

type ItemEquipped struct {
	Actor string
	Slot  int
	Stack item.Stack
}

type ItemUnequipped struct {
	Actor string
	Slot  int
	Stack item.Stack
}
