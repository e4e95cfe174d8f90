package world

import (
	"testing"

	"github.com/l1jgo/armory/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stacks(inv *Inventory) []item.Stack { return inv.ListStacks() }

func TestInventoryMergesByIdentity(t *testing.T) {
	inv := NewInventory(0, nil)
	notified := 0
	inv.OnChange(func() { notified++ })

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "potion", Quantity: 2}}))
	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "potion", Quantity: 3}, {ID: "sword", Quantity: 1}}))

	assert.Equal(t, []item.Stack{{ID: "potion", Quantity: 5}, {ID: "sword", Quantity: 1}}, stacks(inv))
	assert.Equal(t, 2, notified)
	assert.Equal(t, DefaultCapacity, inv.Capacity())
	assert.True(t, inv.Dirty())
}

func TestInventoryRemoveKeepsSlots(t *testing.T) {
	inv := NewInventory(10, nil)
	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}, {ID: "c", Quantity: 1}}))

	require.NoError(t, inv.RemoveStacks([]item.Stack{{ID: "b", Quantity: 1}}))
	assert.Equal(t, 1, inv.Quantity("b"))

	require.NoError(t, inv.RemoveStacks([]item.Stack{{ID: "a", Quantity: 1}}))
	assert.Equal(t, []item.Stack{{}, {ID: "b", Quantity: 1}, {ID: "c", Quantity: 1}}, stacks(inv))
	assert.Equal(t, 2, inv.Size())

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "d", Quantity: 4}}))
	assert.Equal(t, item.ID("d"), stacks(inv)[0].ID, "vacated slot is reused")
}

func TestInventoryRefillsMostRecentHoleFirst(t *testing.T) {
	inv := NewInventory(10, nil)
	pair := []item.Stack{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 1}}
	require.NoError(t, inv.AddStacks(pair))

	require.NoError(t, inv.RemoveStacks(pair))
	require.NoError(t, inv.AddStacks(pair))

	assert.Equal(t, []item.Stack{{ID: "b", Quantity: 1}, {ID: "a", Quantity: 1}}, stacks(inv))
}

func TestInventoryRejectsAtomically(t *testing.T) {
	inv := NewInventory(2, func(id item.ID) bool { return id != "bogus" })
	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "a", Quantity: 1}}))
	inv.ClearDirty()
	notified := 0
	inv.OnChange(func() { notified++ })

	err := inv.AddStacks([]item.Stack{{ID: "b", Quantity: 1}, {ID: "c", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInventoryFull)

	err = inv.AddStacks([]item.Stack{{ID: "b", Quantity: 1}, {ID: "bogus", Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnknownItem)

	assert.ErrorIs(t, inv.AddStacks([]item.Stack{{ID: "b", Quantity: 0}}), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.RemoveStacks([]item.Stack{{ID: "a", Quantity: 2}}), ErrInsufficientQuantity)
	assert.ErrorIs(t, inv.RemoveStacks([]item.Stack{{ID: "a", Quantity: 1}, {ID: "z", Quantity: 1}}), ErrUnknownItem)
	assert.ErrorIs(t, inv.RemoveStacks([]item.Stack{{ID: "a", Quantity: 1}, {ID: "a", Quantity: 1}}), ErrInsufficientQuantity)

	assert.Equal(t, []item.Stack{{ID: "a", Quantity: 1}}, stacks(inv))
	assert.Zero(t, notified)
	assert.False(t, inv.Dirty())

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "a", Quantity: 5}}), "merging needs no free slot")
	assert.False(t, inv.IsFull())
}

func TestInventoryLoad(t *testing.T) {
	inv := NewInventory(10, nil)
	notified := 0
	inv.OnChange(func() { notified++ })

	inv.Load([]item.Stack{{ID: "a", Quantity: 1}, {}, {ID: "c", Quantity: 0}, {ID: "d", Quantity: 2}})

	assert.Zero(t, notified)
	assert.False(t, inv.Dirty())
	assert.Equal(t, 2, inv.Size())

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "e", Quantity: 1}}))
	assert.Equal(t, item.ID("e"), stacks(inv)[1].ID, "lowest hole refills first after load")
}

func TestInventoryUnsubscribe(t *testing.T) {
	inv := NewInventory(10, nil)
	notified := 0
	unsub := inv.OnChange(func() { notified++ })
	unsub()

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "a", Quantity: 1}}))
	assert.Zero(t, notified)
}

func TestInventoryListIsCopy(t *testing.T) {
	inv := NewInventory(10, nil)
	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "a", Quantity: 1}}))

	l := inv.ListStacks()
	l[0].Quantity = 50
	assert.Equal(t, 1, inv.Quantity("a"))
}

func TestInventoryRestore(t *testing.T) {
	inv := NewInventory(10, func(id item.ID) bool { return id != "retired" })
	inv.Load([]item.Stack{{ID: "sword", Quantity: 1}, {ID: "retired", Quantity: 7}})
	notified := 0
	inv.OnChange(func() { notified++ })

	require.NoError(t, inv.RemoveStacks([]item.Stack{{ID: "retired", Quantity: 7}}))
	assert.ErrorIs(t, inv.AddStacks([]item.Stack{{ID: "retired", Quantity: 7}}), ErrUnknownItem)

	assert.False(t, inv.Restore(0, item.Stack{ID: "retired", Quantity: 7}), "slot taken")
	assert.False(t, inv.Restore(5, item.Stack{ID: "retired", Quantity: 7}), "out of range")
	assert.False(t, inv.Restore(1, item.Stack{ID: "sword", Quantity: 1}), "identity held elsewhere")
	require.True(t, inv.Restore(1, item.Stack{ID: "retired", Quantity: 7}))

	assert.Equal(t, []item.Stack{{ID: "sword", Quantity: 1}, {ID: "retired", Quantity: 7}}, stacks(inv))
	assert.Equal(t, 2, inv.Size())
	assert.Equal(t, 2, notified)

	require.NoError(t, inv.AddStacks([]item.Stack{{ID: "potion", Quantity: 1}}))
	assert.Equal(t, item.ID("potion"), stacks(inv)[2].ID, "restored slot is no longer free")
}
