package item

// NoRequiredSlot marks a fragment that can be equipped into any slot.
const NoRequiredSlot = -1

// CapabilityFragment describes what an item grants while equipped and the
// owner tag conditions under which it may be equipped.
type CapabilityFragment struct {
	Abilities    []AbilityClass `yaml:"abilities" json:"abilities,omitempty"`
	Effects      []EffectClass  `yaml:"effects" json:"effects,omitempty"`
	EquippedTags TagSet         `yaml:"equipped_tags" json:"equipped_tags,omitempty"`
	RequiredTags TagSet         `yaml:"required_tags" json:"required_tags,omitempty"`
	BlockingTags TagSet         `yaml:"blocking_tags" json:"blocking_tags,omitempty"`
	RequiredSlot int            `yaml:"required_slot" json:"required_slot"`
}

// HasRequiredSlot reports whether the fragment pins the item to one slot.
func (f *CapabilityFragment) HasRequiredSlot() bool {
	return f != nil && f.RequiredSlot >= 0
}

// CanBeEquippedBy reports whether an owner holding ownedTags satisfies the
// fragment's required and blocking tags.
func (f *CapabilityFragment) CanBeEquippedBy(ownedTags TagSet) bool {
	if f == nil {
		return true
	}
	if f.RequiredTags.Len() > 0 && !ownedTags.HasAll(f.RequiredTags) {
		return false
	}
	if f.BlockingTags.Len() > 0 && ownedTags.HasAny(f.BlockingTags) {
		return false
	}
	return true
}

// DisplayMetadata is presentation data carried through to observers untouched.
type DisplayMetadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
}

// Definition is the resolved description of an item identity.
type Definition struct {
	ID         ID
	Equippable bool
	Fragment   *CapabilityFragment // nil when the item grants nothing
	Display    DisplayMetadata

	// InstanceHook names the script function run when a runtime instance is
	// constructed. Empty means a plain instance.
	InstanceHook string
}

// Instance is the runtime object built for an equipped item.
type Instance struct {
	ItemID ID             `json:"item_id"`
	Props  map[string]any `json:"props,omitempty"`
}
