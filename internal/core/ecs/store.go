package ecs

import "sort"

// Removable is implemented by every component store so the World can drop
// a destroyed entity's data everywhere at once.
type Removable interface {
	Remove(id EntityID)
}

// Store maps entities to one component type held by pointer.
type Store[T any] struct {
	data map[EntityID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{data: make(map[EntityID]*T, 64)}
}

func (s *Store[T]) Set(id EntityID, c *T) { s.data[id] = c }

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) { delete(s.data, id) }

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int { return len(s.data) }

// Each visits components in ascending entity ID order.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.ids() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *Store[T]) ids() []EntityID {
	ids := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Join visits, in ascending ID order, every entity present in both stores.
// The smaller store drives the walk.
func Join[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.ids() {
			a, aok := sa.data[id]
			b, bok := sb.data[id]
			if aok && bok {
				fn(id, a, b)
			}
		}
		return
	}
	for _, id := range sb.ids() {
		a, aok := sa.data[id]
		b, bok := sb.data[id]
		if aok && bok {
			fn(id, a, b)
		}
	}
}
