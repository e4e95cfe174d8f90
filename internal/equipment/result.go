package equipment

import "fmt"

// AutoSlot asks Equip to choose the target equipment slot itself.
const AutoSlot = -1

// EquipResult is the outcome of the equip validation pipeline.
type EquipResult int

const (
	Success EquipResult = iota
	StorageNotReady
	InvalidSlot
	AlreadyEquipped
	ItemNotEquippable
	NoAvailableSlots
	SlotMismatch
	TagRequirementsFailed
)

func (r EquipResult) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case StorageNotReady:
		return "STORAGE_NOT_READY"
	case InvalidSlot:
		return "INVALID_SLOT"
	case AlreadyEquipped:
		return "ALREADY_EQUIPPED"
	case ItemNotEquippable:
		return "ITEM_NOT_EQUIPPABLE"
	case NoAvailableSlots:
		return "NO_AVAILABLE_SLOTS"
	case SlotMismatch:
		return "SLOT_MISMATCH"
	case TagRequirementsFailed:
		return "TAG_REQUIREMENTS_FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(r))
	}
}

// OK reports whether the result allows the equip to proceed.
func (r EquipResult) OK() bool { return r == Success }
