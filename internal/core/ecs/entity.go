// Package ecs holds actor components in typed stores keyed by generational
// entity IDs. Everything here is game-loop only.
package ecs

import "fmt"

// EntityID packs a slot index in the low 32 bits and the slot's generation
// in the high 32 bits. Destroying an entity bumps its slot's generation, so
// IDs held past destruction stop matching.
type EntityID uint64

func makeID(slot, gen uint32) EntityID {
	return EntityID(uint64(gen)<<32 | uint64(slot))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

func (id EntityID) String() string {
	return fmt.Sprintf("%d#%d", id.Index(), id.Generation())
}

// entities allocates IDs. Freed slots are reused last-in first-out.
type entities struct {
	gen  []uint32 // current generation per slot ever allocated
	free []uint32
}

func (p *entities) create() EntityID {
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		return makeID(slot, p.gen[slot])
	}
	p.gen = append(p.gen, 0)
	return makeID(uint32(len(p.gen)-1), 0)
}

func (p *entities) alive(id EntityID) bool {
	slot := id.Index()
	return int(slot) < len(p.gen) && p.gen[slot] == id.Generation()
}

// destroy retires id and reports whether it was live.
func (p *entities) destroy(id EntityID) bool {
	if !p.alive(id) {
		return false
	}
	slot := id.Index()
	p.gen[slot]++
	p.free = append(p.free, slot)
	return true
}
