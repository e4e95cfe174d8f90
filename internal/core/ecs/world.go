package ecs

// World owns entity allocation, the registered component stores and the
// deferred destruction queue flushed by the cleanup system each tick.
type World struct {
	ids    entities
	stores []Removable
	doomed []EntityID
	queued map[EntityID]bool
}

func NewWorld(stores ...Removable) *World {
	return &World{
		stores: stores,
		doomed: make([]EntityID, 0, 16),
		queued: make(map[EntityID]bool, 16),
	}
}

// Register adds component stores cleared on destruction.
func (w *World) Register(stores ...Removable) {
	w.stores = append(w.stores, stores...)
}

func (w *World) Create() EntityID { return w.ids.create() }

func (w *World) Alive(id EntityID) bool { return w.ids.alive(id) }

// Destroy queues id for the next Flush. Dead and already queued IDs are
// ignored.
func (w *World) Destroy(id EntityID) {
	if !w.ids.alive(id) || w.queued[id] {
		return
	}
	w.queued[id] = true
	w.doomed = append(w.doomed, id)
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.doomed) }

// Flush destroys every queued entity, clears its components from all stores
// and returns how many were destroyed.
func (w *World) Flush() int {
	n := 0
	for _, id := range w.doomed {
		for _, s := range w.stores {
			s.Remove(id)
		}
		if w.ids.destroy(id) {
			n++
		}
		delete(w.queued, id)
	}
	w.doomed = w.doomed[:0]
	return n
}
