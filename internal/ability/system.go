// Package ability is the in-process capability authority: it tracks granted
// abilities, applied effects and the standing tag set of one actor.
package ability

import (
	"sort"

	"github.com/google/uuid"
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

// EffectSpec is the static description of an effect class.
type EffectSpec struct {
	Class     item.EffectClass
	GrantTags item.TagSet
}

// EffectTable looks up effect classes. Unknown classes cannot be applied.
type EffectTable interface {
	Effect(class item.EffectClass) (EffectSpec, bool)
}

type appliedEffect struct {
	class item.EffectClass
	tags  item.TagSet
}

// System is one actor's capability authority. Accessed only from the game
// loop goroutine.
type System struct {
	owner     string
	active    bool
	effects   EffectTable
	abilities map[item.Handle]item.AbilityClass
	applied   map[item.Handle]appliedEffect
	loose     map[item.Tag]int // reference counted
	log       *zap.Logger
}

func NewSystem(owner string, effects EffectTable, log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		owner:     owner,
		active:    true,
		effects:   effects,
		abilities: make(map[item.Handle]item.AbilityClass),
		applied:   make(map[item.Handle]appliedEffect),
		loose:     make(map[item.Tag]int),
		log:       log.With(zap.String("actor", owner)),
	}
}

func (s *System) Owner() string { return s.owner }

// Active reports whether the system is still attached to its actor.
func (s *System) Active() bool { return s.active }

// Detach drops every grant and marks the system inactive. Handles issued
// before Detach become meaningless.
func (s *System) Detach() {
	if !s.active {
		return
	}
	s.active = false
	clear(s.abilities)
	clear(s.applied)
	clear(s.loose)
	s.log.Debug("capability authority detached")
}

func newHandle() item.Handle {
	return item.Handle(uuid.NewString())
}

func (s *System) GrantAbility(class item.AbilityClass) item.Handle {
	if !s.active || class == "" {
		return ""
	}
	h := newHandle()
	s.abilities[h] = class
	s.log.Debug("ability granted", zap.String("ability", string(class)), zap.String("handle", string(h)))
	return h
}

func (s *System) RevokeAbility(h item.Handle) {
	if _, ok := s.abilities[h]; !ok {
		return
	}
	delete(s.abilities, h)
}

// ApplyEffect applies a known effect class and returns its handle, or the
// zero Handle if the class is not in the effect table.
func (s *System) ApplyEffect(class item.EffectClass) item.Handle {
	if !s.active || s.effects == nil {
		return ""
	}
	spec, ok := s.effects.Effect(class)
	if !ok {
		s.log.Warn("unknown effect class", zap.String("effect", string(class)))
		return ""
	}
	h := newHandle()
	s.applied[h] = appliedEffect{class: class, tags: spec.GrantTags.Clone()}
	return h
}

func (s *System) RemoveEffect(h item.Handle) {
	delete(s.applied, h)
}

// AddTags adds one reference to each tag.
func (s *System) AddTags(tags item.TagSet) {
	if !s.active {
		return
	}
	for t := range tags {
		s.loose[t]++
	}
}

// RemoveTags drops one reference to each tag; a tag is gone once its count
// reaches zero.
func (s *System) RemoveTags(tags item.TagSet) {
	for t := range tags {
		n, ok := s.loose[t]
		if !ok {
			continue
		}
		if n <= 1 {
			delete(s.loose, t)
		} else {
			s.loose[t] = n - 1
		}
	}
}

// OwnedTags returns the loose tags plus every tag granted by an active effect.
func (s *System) OwnedTags() item.TagSet {
	out := make(item.TagSet, len(s.loose))
	for t := range s.loose {
		out.Add(t)
	}
	for _, e := range s.applied {
		for t := range e.tags {
			out.Add(t)
		}
	}
	return out
}

// Abilities returns the granted ability classes, sorted, duplicates kept.
func (s *System) Abilities() []item.AbilityClass {
	out := make([]item.AbilityClass, 0, len(s.abilities))
	for _, c := range s.abilities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Effects returns the applied effect classes, sorted, duplicates kept.
func (s *System) Effects() []item.EffectClass {
	out := make([]item.EffectClass, 0, len(s.applied))
	for _, e := range s.applied {
		out = append(out, e.class)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TagCount returns the reference count of a loose tag.
func (s *System) TagCount(t item.Tag) int { return s.loose[t] }
