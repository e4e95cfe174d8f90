// Package item holds the value types shared by storage, equipment and the
// capability authority: stack identities, tags, capability fragments and the
// opaque handles returned by the authority.
package item

import "fmt"

// ID is the stable storage identity of an item type. It does not change when
// the stack holding it moves to another storage slot.
type ID string

// Stack is one storage slot's content. The zero Stack is an empty slot.
type Stack struct {
	ID       ID  `json:"id"`
	Quantity int `json:"quantity"`
}

// IsEmpty reports whether the stack holds nothing.
func (s Stack) IsEmpty() bool {
	return s.ID == "" || s.Quantity <= 0
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return "<empty>"
	}
	return fmt.Sprintf("%s x%d", s.ID, s.Quantity)
}

// AbilityClass names a grantable ability.
type AbilityClass string

// EffectClass names an appliable effect.
type EffectClass string

// Handle identifies one grant or effect application on a capability
// authority. The zero Handle is invalid.
type Handle string

// Valid reports whether the handle refers to anything.
func (h Handle) Valid() bool { return h != "" }
