package equipment

import "github.com/l1jgo/armory/internal/item"

// View is the read-only projection of an actor's equipment handed to its
// owning observer. It shares no memory with the Manager.
type View struct {
	Actor     string       `json:"actor"`
	Version   uint64       `json:"version"`
	Ready     bool         `json:"ready"`
	MaxSlots  int          `json:"max_slots"`
	Inventory []item.Stack `json:"inventory"`
	Equipped  []*EntryView `json:"equipped"`
}

// EntryView describes one occupied slot. Capability handles stay on the
// authoritative side; observers see counts and tags.
type EntryView struct {
	Slot           int            `json:"slot"`
	InventoryIndex int            `json:"inventory_index"`
	Stack          item.Stack     `json:"stack"`
	Instance       *item.Instance `json:"instance,omitempty"`
	Abilities      int            `json:"abilities"`
	Effects        int            `json:"effects"`
	Tags           []item.Tag     `json:"tags,omitempty"`
}

// View builds the owner projection of the current state.
func (m *Manager) View() View {
	v := View{
		Actor:     m.actor,
		Version:   m.version,
		Ready:     m.bridge.ready(),
		MaxSlots:  len(m.slots),
		Inventory: m.ListInventory(),
		Equipped:  make([]*EntryView, len(m.slots)),
	}
	for slot, e := range m.slots {
		if e == nil {
			continue
		}
		ev := &EntryView{
			Slot:           slot,
			InventoryIndex: e.InventoryIndex,
			Stack:          e.Stack,
			Abilities:      len(e.AbilityHandles),
			Effects:        len(e.EffectHandles),
			Tags:           e.GrantedTags.Slice(),
		}
		if e.Instance != nil {
			inst := *e.Instance
			inst.Props = make(map[string]any, len(e.Instance.Props))
			for k, val := range e.Instance.Props {
				inst.Props[k] = val
			}
			ev.Instance = &inst
		}
		v.Equipped[slot] = ev
	}
	return v
}
