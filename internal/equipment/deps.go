package equipment

import (
	"errors"

	"github.com/l1jgo/armory/internal/item"
)

var (
	ErrStorageNotReady = errors.New("storage not ready")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidIndex    = errors.New("invalid inventory index")
	ErrItemEquipped    = errors.New("item is equipped")
)

// Storage is the external item storage service. Stacks are ordered; the
// position of a stack is not stable, its ID is.
type Storage interface {
	AddStacks(stacks []item.Stack) error
	RemoveStacks(stacks []item.Stack) error
	ListStacks() []item.Stack
	// Restore puts s back into the vacated slot at index without the checks
	// AddStacks applies. It reports false when the slot is not free or the
	// identity is already held elsewhere.
	Restore(index int, s item.Stack) bool
	// OnChange registers fn to run after every storage mutation. The
	// notification has no payload; subscribers re-read ListStacks.
	OnChange(fn func()) (unsubscribe func())
}

// CapabilityAuthority owns abilities, effects and the standing tag set of
// one actor.
type CapabilityAuthority interface {
	// Active reports whether the authority is still attached to its actor.
	Active() bool
	GrantAbility(class item.AbilityClass) item.Handle
	RevokeAbility(h item.Handle)
	// ApplyEffect returns the zero Handle when the effect could not be applied.
	ApplyEffect(class item.EffectClass) item.Handle
	RemoveEffect(h item.Handle)
	AddTags(tags item.TagSet)
	RemoveTags(tags item.TagSet)
	OwnedTags() item.TagSet
}

// Resolver maps item identities to definitions and builds runtime instances.
type Resolver interface {
	Resolve(id item.ID) (*item.Definition, bool)
	// Instantiate is best effort; false means no instance could be built.
	Instantiate(id item.ID) (*item.Instance, bool)
}

// StorageLocator finds the storage service attached to the actor.
type StorageLocator func() (Storage, bool)

// AuthorityLocator finds the capability authority attached to the actor. It
// is called again whenever the cached authority is no longer active.
type AuthorityLocator func() (CapabilityAuthority, bool)

// Record is one journaled equipment transaction.
type Record struct {
	Actor  string     `json:"actor"`
	Kind   string     `json:"kind"`
	Slot   int        `json:"slot"`
	Index  int        `json:"index"`
	Stack  item.Stack `json:"stack"`
	Result string     `json:"result,omitempty"`
}

// Record kinds.
const (
	RecordEquip         = "equip"
	RecordEquipRejected = "equip_rejected"
	RecordUnequip       = "unequip"
	RecordAutoUnequip   = "auto_unequip"
	RecordSwap          = "swap"
	RecordDiscard       = "discard"
)

// Recorder receives equipment transactions, typically an audit journal.
type Recorder interface {
	Record(r Record)
}
