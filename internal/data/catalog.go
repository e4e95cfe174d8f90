package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// InstanceHook builds the runtime properties of an item instance. The Lua
// engine implements it.
type InstanceHook interface {
	Instantiate(def *item.Definition) (map[string]any, error)
}

// Catalog holds every item definition indexed by ID. It resolves item
// identities for the equipment manager.
type Catalog struct {
	items map[item.ID]*item.Definition
	hook  InstanceHook
	log   *zap.Logger
}

type fragmentEntry struct {
	Abilities    []item.AbilityClass `yaml:"abilities"`
	Effects      []item.EffectClass  `yaml:"effects"`
	EquippedTags item.TagSet         `yaml:"equipped_tags"`
	RequiredTags item.TagSet         `yaml:"required_tags"`
	BlockingTags item.TagSet         `yaml:"blocking_tags"`
	RequiredSlot *int                `yaml:"required_slot"`
}

type itemEntry struct {
	ID           item.ID        `yaml:"id"`
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Icon         string         `yaml:"icon"`
	Equippable   bool           `yaml:"equippable"`
	InstanceHook string         `yaml:"instance_hook"`
	Fragment     *fragmentEntry `yaml:"fragment"`
}

type catalogFile struct {
	Items []itemEntry `yaml:"items"`
}

// LoadCatalog reads and validates an item catalog YAML file.
func LoadCatalog(path string, log *zap.Logger) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item catalog: %w", err)
	}
	c, err := ParseCatalog(raw, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog validates and decodes catalog YAML.
func ParseCatalog(raw []byte, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := validateYAML(catalogSchema, raw); err != nil {
		return nil, fmt.Errorf("validate item catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item catalog: %w", err)
	}

	c := &Catalog{items: make(map[item.ID]*item.Definition, len(f.Items)), log: log}
	for _, e := range f.Items {
		if _, dup := c.items[e.ID]; dup {
			return nil, fmt.Errorf("duplicate item %q", e.ID)
		}
		def := &item.Definition{
			ID:         e.ID,
			Equippable: e.Equippable,
			Display: item.DisplayMetadata{
				Name:        e.Name,
				Description: e.Description,
				Icon:        e.Icon,
			},
			InstanceHook: e.InstanceHook,
		}
		if e.Fragment != nil {
			frag := &item.CapabilityFragment{
				Abilities:    e.Fragment.Abilities,
				Effects:      e.Fragment.Effects,
				EquippedTags: e.Fragment.EquippedTags,
				RequiredTags: e.Fragment.RequiredTags,
				BlockingTags: e.Fragment.BlockingTags,
				RequiredSlot: item.NoRequiredSlot,
			}
			if e.Fragment.RequiredSlot != nil {
				frag.RequiredSlot = *e.Fragment.RequiredSlot
			}
			def.Fragment = frag
		}
		c.items[e.ID] = def
	}
	return c, nil
}

// SetHook installs the instance hook used by Instantiate.
func (c *Catalog) SetHook(h InstanceHook) { c.hook = h }

// Get returns a definition by ID, or nil if not found.
func (c *Catalog) Get(id item.ID) *item.Definition {
	return c.items[id]
}

func (c *Catalog) Count() int {
	return len(c.items)
}

// Has reports whether id is defined.
func (c *Catalog) Has(id item.ID) bool {
	_, ok := c.items[id]
	return ok
}

func (c *Catalog) Resolve(id item.ID) (*item.Definition, bool) {
	def, ok := c.items[id]
	return def, ok
}

// Instantiate builds a runtime instance for id. Items without a hook get a
// plain instance; a failing hook yields none.
func (c *Catalog) Instantiate(id item.ID) (*item.Instance, bool) {
	def, ok := c.items[id]
	if !ok {
		return nil, false
	}
	inst := &item.Instance{ItemID: id}
	if def.InstanceHook == "" || c.hook == nil {
		return inst, true
	}
	props, err := c.hook.Instantiate(def)
	if err != nil {
		c.log.Warn("instance hook failed", zap.String("item", string(id)), zap.Error(err))
		return nil, false
	}
	inst.Props = props
	return inst, true
}
