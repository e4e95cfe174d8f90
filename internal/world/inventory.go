package world

import (
	"errors"
	"fmt"

	"github.com/l1jgo/armory/internal/item"
)

const DefaultCapacity = 180

var (
	ErrInventoryFull        = errors.New("inventory full")
	ErrUnknownItem          = errors.New("unknown item")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Inventory is an actor's ordered item storage. A stack keeps its slot until
// its quantity reaches zero; the vacated slot stays in place as an empty
// stack and is refilled before the list grows, most recently vacated first.
// Accessed only from the game loop goroutine.
type Inventory struct {
	stacks   []item.Stack
	holes    []int
	capacity int
	known    func(item.ID) bool
	subs     []func()
	dirty    bool
}

// NewInventory creates an empty inventory. known, when set, rejects item
// identities the catalog does not define.
func NewInventory(capacity int, known func(item.ID) bool) *Inventory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inventory{
		stacks:   make([]item.Stack, 0, 16),
		capacity: capacity,
		known:    known,
	}
}

// Load replaces the contents with persisted stacks without notifying
// subscribers. Empty entries are kept as vacated slots.
func (inv *Inventory) Load(stacks []item.Stack) {
	inv.stacks = append(inv.stacks[:0], stacks...)
	inv.holes = inv.holes[:0]
	for i := len(inv.stacks) - 1; i >= 0; i-- {
		if inv.stacks[i].IsEmpty() {
			inv.stacks[i] = item.Stack{}
			inv.holes = append(inv.holes, i)
		}
	}
	inv.dirty = false
}

// AddStacks merges each stack into the slot already holding its identity or
// places it in a free slot. The call is all or nothing.
func (inv *Inventory) AddStacks(stacks []item.Stack) error {
	newIDs := make(map[item.ID]struct{})
	for _, s := range stacks {
		if s.ID == "" || s.Quantity <= 0 {
			return fmt.Errorf("add %q x%d: %w", s.ID, s.Quantity, ErrInvalidQuantity)
		}
		if inv.known != nil && !inv.known(s.ID) {
			return fmt.Errorf("add %s: %w", s.ID, ErrUnknownItem)
		}
		if inv.find(s.ID) < 0 {
			newIDs[s.ID] = struct{}{}
		}
	}
	free := len(inv.holes) + inv.capacity - len(inv.stacks)
	if len(newIDs) > free {
		return fmt.Errorf("add %d new stacks with %d free: %w", len(newIDs), free, ErrInventoryFull)
	}
	if len(stacks) == 0 {
		return nil
	}

	for _, s := range stacks {
		if i := inv.find(s.ID); i >= 0 {
			inv.stacks[i].Quantity += s.Quantity
			continue
		}
		if n := len(inv.holes); n > 0 {
			i := inv.holes[n-1]
			inv.holes = inv.holes[:n-1]
			inv.stacks[i] = s
			continue
		}
		inv.stacks = append(inv.stacks, s)
	}
	inv.changed()
	return nil
}

// RemoveStacks subtracts each stack's quantity from the slot holding its
// identity. The call is all or nothing.
func (inv *Inventory) RemoveStacks(stacks []item.Stack) error {
	need := make(map[item.ID]int)
	for _, s := range stacks {
		if s.ID == "" || s.Quantity <= 0 {
			return fmt.Errorf("remove %q x%d: %w", s.ID, s.Quantity, ErrInvalidQuantity)
		}
		need[s.ID] += s.Quantity
	}
	for id, qty := range need {
		i := inv.find(id)
		if i < 0 {
			return fmt.Errorf("remove %s: %w", id, ErrUnknownItem)
		}
		if inv.stacks[i].Quantity < qty {
			return fmt.Errorf("remove %s x%d of %d: %w", id, qty, inv.stacks[i].Quantity, ErrInsufficientQuantity)
		}
	}
	if len(stacks) == 0 {
		return nil
	}

	for _, s := range stacks {
		i := inv.find(s.ID)
		inv.stacks[i].Quantity -= s.Quantity
		if inv.stacks[i].Quantity == 0 {
			inv.stacks[i] = item.Stack{}
			inv.holes = append(inv.holes, i)
		}
	}
	inv.changed()
	return nil
}

// Restore puts s back into the vacated slot at index. Unlike AddStacks it
// skips the catalog check, so stacks loaded from persistence can always
// return to where they were.
func (inv *Inventory) Restore(index int, s item.Stack) bool {
	if index < 0 || index >= len(inv.stacks) || !inv.stacks[index].IsEmpty() {
		return false
	}
	if s.IsEmpty() || inv.find(s.ID) >= 0 {
		return false
	}
	for i, h := range inv.holes {
		if h == index {
			inv.holes = append(inv.holes[:i], inv.holes[i+1:]...)
			break
		}
	}
	inv.stacks[index] = s
	inv.changed()
	return true
}

// ListStacks returns a copy of every slot in order, empty slots included.
func (inv *Inventory) ListStacks() []item.Stack {
	out := make([]item.Stack, len(inv.stacks))
	copy(out, inv.stacks)
	return out
}

// OnChange registers fn to run after every successful mutation.
func (inv *Inventory) OnChange(fn func()) (unsubscribe func()) {
	inv.subs = append(inv.subs, fn)
	idx := len(inv.subs) - 1
	return func() {
		if idx < len(inv.subs) {
			inv.subs[idx] = nil
		}
	}
}

// Quantity returns how many of id the inventory holds.
func (inv *Inventory) Quantity(id item.ID) int {
	if i := inv.find(id); i >= 0 {
		return inv.stacks[i].Quantity
	}
	return 0
}

// Size returns the number of occupied slots.
func (inv *Inventory) Size() int {
	return len(inv.stacks) - len(inv.holes)
}

func (inv *Inventory) Capacity() int { return inv.capacity }

// IsFull returns true if no new identity can be added.
func (inv *Inventory) IsFull() bool {
	return inv.Size() >= inv.capacity
}

// Dirty reports whether the contents changed since the last ClearDirty.
func (inv *Inventory) Dirty() bool { return inv.dirty }

func (inv *Inventory) ClearDirty() { inv.dirty = false }

func (inv *Inventory) find(id item.ID) int {
	for i, s := range inv.stacks {
		if !s.IsEmpty() && s.ID == id {
			return i
		}
	}
	return -1
}

func (inv *Inventory) changed() {
	inv.dirty = true
	// Subscribers may mutate the inventory again; iterate over a snapshot.
	subs := append([]func(){}, inv.subs...)
	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}
