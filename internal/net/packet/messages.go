package packet

import (
	"github.com/l1jgo/armory/internal/equipment"
	"github.com/l1jgo/armory/internal/item"
)

// Client message types.
const (
	C_Hello         = "hello"
	C_AddItem       = "add_item"
	C_RemoveItem    = "remove_item"
	C_Discard       = "discard"
	C_Swap          = "swap"
	C_Equip         = "equip"
	C_Unequip       = "unequip"
	C_CanEquip      = "can_equip"
	C_FirstFreeSlot = "first_free_slot"
	C_Quit          = "quit"
)

// Server message types.
const (
	S_Welcome = "welcome"
	S_Result  = "result"
	S_Event   = "event"
	S_Mirror  = "mirror"
	S_Kicked  = "kicked"
)

// Result codes for requests that are not equip validations.
const (
	CodeOK           = "OK"
	CodeBadRequest   = "BAD_REQUEST"
	CodeRejected     = "REJECTED"
	CodeNotEquipped  = "NOT_EQUIPPED"
	CodeUnknownActor = "UNKNOWN_ACTOR"
)

type Hello struct {
	Actor string `json:"actor"`
}

type AddItem struct {
	Item     item.ID `json:"item"`
	Quantity int     `json:"quantity"`
}

type RemoveItem struct {
	Item     item.ID `json:"item"`
	Quantity int     `json:"quantity"`
}

type Discard struct {
	Index    int `json:"index"`
	Quantity int `json:"quantity"`
}

type Swap struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Equip also serves can_equip. Without a slot only the item's required
// slot can be chosen.
type Equip struct {
	Index int  `json:"index"`
	Slot  *int `json:"slot,omitempty"`
}

// TargetSlot returns the requested slot or equipment.AutoSlot.
func (m Equip) TargetSlot() int {
	if m.Slot == nil {
		return equipment.AutoSlot
	}
	return *m.Slot
}

type Unequip struct {
	Slot int `json:"slot"`
}

type Welcome struct {
	Type    string `json:"type"`
	Session uint64 `json:"session"`
	Actor   string `json:"actor"`
}

type Result struct {
	Type    string `json:"type"`
	Request string `json:"request"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
	Slot    *int   `json:"slot,omitempty"`
}

type Event struct {
	Type  string      `json:"type"`
	Name  string      `json:"name"`
	Slot  *int        `json:"slot,omitempty"`
	Stack *item.Stack `json:"stack,omitempty"`
}

type Mirror struct {
	Type string `json:"type"`
	equipment.View
}

type Kicked struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
