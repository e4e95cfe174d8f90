package equipment

import (
	"github.com/l1jgo/armory/internal/core/event"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

// ReconcileReport counts the corrections made by reconciliation.
type ReconcileReport struct {
	Moved      int // entries whose stack changed index
	Refreshed  int // entries whose cached stack snapshot changed
	Unequipped int // entries whose item left storage
	Instanced  int // runtime instances built on retry
	Coalesced  bool
}

// Corrections is the number of entry-level changes made.
func (r ReconcileReport) Corrections() int {
	return r.Moved + r.Refreshed + r.Unequipped + r.Instanced
}

func (r *ReconcileReport) add(o ReconcileReport) {
	r.Moved += o.Moved
	r.Refreshed += o.Refreshed
	r.Unequipped += o.Unequipped
	r.Instanced += o.Instanced
}

func (m *Manager) onStorageChange() {
	m.Reconcile()
}

// Reconcile re-derives the equipment table from storage. A call made while
// a pass is already running is coalesced: it only schedules one follow-up
// pass and returns a report with Coalesced set. InventoryChanged is
// published once, after all corrections are applied.
func (m *Manager) Reconcile() ReconcileReport {
	if m.reconciling {
		m.pending = true
		m.log.Debug("storage change coalesced")
		return ReconcileReport{Coalesced: true}
	}
	if !m.bridge.ready() {
		return ReconcileReport{}
	}

	m.reconciling = true
	m.log.Debug("storage updated, synchronizing equipment")
	rep := m.reconcilePass()
	if m.pending {
		m.pending = false
		rep.add(m.reconcilePass())
	}
	m.pending = false
	m.reconciling = false

	m.version++
	event.Publish(m.bus, event.InventoryChanged{Actor: m.actor})
	return rep
}

// holdReconcile runs fn with reconciliation suspended, then runs a single
// pass if storage changed meanwhile.
func (m *Manager) holdReconcile(fn func()) {
	m.reconciling = true
	m.pending = false
	fn()
	m.reconciling = false
	if m.pending {
		m.pending = false
		m.Reconcile()
	}
}

func (m *Manager) reconcilePass() ReconcileReport {
	var rep ReconcileReport
	stacks := m.bridge.storage.ListStacks()

	for slot, e := range m.slots {
		if e == nil {
			continue
		}
		idx := indexOf(stacks, e.SourceID)
		if idx < 0 {
			m.log.Warn("equipped item no longer in storage, auto-unequipping",
				zap.String("item", string(e.SourceID)),
				zap.Int("slot", slot),
			)
			m.grants.revoke(slot, e)
			m.slots[slot] = nil
			rep.Unequipped++
			m.record(Record{Kind: RecordAutoUnequip, Slot: slot, Index: e.InventoryIndex, Stack: e.Stack})
			continue
		}
		if idx != e.InventoryIndex {
			m.log.Debug("equipped item moved",
				zap.String("item", string(e.SourceID)),
				zap.Int("from", e.InventoryIndex),
				zap.Int("to", idx),
			)
			e.InventoryIndex = idx
			rep.Moved++
		}
		if stacks[idx] != e.Stack {
			e.Stack = stacks[idx]
			rep.Refreshed++
		}
	}

	for _, e := range m.slots {
		if e == nil || e.Instance != nil {
			continue
		}
		if e.Instance = m.instantiate(e.SourceID); e.Instance != nil {
			rep.Instanced++
		}
	}
	return rep
}

// indexOf finds the storage index of id, or -1.
func indexOf(stacks []item.Stack, id item.ID) int {
	for i, s := range stacks {
		if !s.IsEmpty() && s.ID == id {
			return i
		}
	}
	return -1
}
