package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/armory/internal/core/system"
	"github.com/l1jgo/armory/internal/persist"
	"github.com/l1jgo/armory/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves the inventories of spawned actors.
// Phase 2 (Persist).
type PersistenceSystem struct {
	world     *world.State
	store     persist.Store
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(ws *world.State, store persist.Store, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		world:    ws,
		store:    store,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.save(true)
}

// SaveAll persists every spawned actor immediately, ignoring dirty flags.
// Called for graceful shutdown.
func (s *PersistenceSystem) SaveAll() {
	s.save(false)
}

// save persists inventories. If dirtyOnly is true, only inventories changed
// since their last save are written.
func (s *PersistenceSystem) save(dirtyOnly bool) {
	count := 0
	s.world.EachInventory(func(info *world.ActorInfo, inv *world.Inventory) {
		if dirtyOnly && !inv.Dirty() {
			return
		}
		if saveInventory(s.store, info, inv, s.log) {
			count++
		}
	})
	if count > 0 {
		s.log.Debug("inventories saved", zap.Int("actors", count))
	}
}

// saveInventory writes one inventory and clears its dirty flag on success.
func saveInventory(store persist.Store, info *world.ActorInfo, inv *world.Inventory, log *zap.Logger) bool {
	if store == nil || info == nil || inv == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SaveInventory(ctx, info.ID, inv.ListStacks()); err != nil {
		log.Error("save inventory failed", zap.String("actor", info.ID), zap.Error(err))
		return false
	}
	inv.ClearDirty()
	return true
}
