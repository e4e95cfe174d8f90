package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/armory/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
items:
  - id: sword
    name: Iron Sword
    equippable: true
    instance_hook: on_instantiate_weapon
    fragment:
      abilities: [Slash]
      effects: [Sharpness]
      equipped_tags: [Status.Armed.Sword]
      blocking_tags: [Status.Stunned]
  - id: shield
    name: Buckler
    equippable: true
    fragment:
      abilities: [Block]
      required_slot: 1
  - id: potion
    name: Red Potion
`

type hookFunc func(def *item.Definition) (map[string]any, error)

func (f hookFunc) Instantiate(def *item.Definition) (map[string]any, error) { return f(def) }

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())

	sword, ok := c.Resolve("sword")
	require.True(t, ok)
	assert.True(t, sword.Equippable)
	assert.Equal(t, "Iron Sword", sword.Display.Name)
	require.NotNil(t, sword.Fragment)
	assert.Equal(t, item.NoRequiredSlot, sword.Fragment.RequiredSlot)
	assert.Equal(t, []item.AbilityClass{"Slash"}, sword.Fragment.Abilities)
	assert.True(t, sword.Fragment.EquippedTags.Has("Status.Armed.Sword"))
	assert.True(t, sword.Fragment.BlockingTags.Has("Status.Stunned"))

	shield := c.Get("shield")
	require.NotNil(t, shield)
	assert.Equal(t, 1, shield.Fragment.RequiredSlot)

	potion := c.Get("potion")
	require.NotNil(t, potion)
	assert.False(t, potion.Equippable)
	assert.Nil(t, potion.Fragment)

	assert.False(t, c.Has("rock"))
	_, ok = c.Resolve("rock")
	assert.False(t, ok)
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing id":     "items:\n  - name: x\n",
		"unknown field":  "items:\n  - id: x\n    weight: 3\n",
		"negative slot":  "items:\n  - id: x\n    fragment:\n      required_slot: -1\n",
		"duplicate":      "items:\n  - id: x\n  - id: x\n",
		"not a document": "items: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(src), nil)
			assert.Error(t, err)
		})
	}
}

func TestCatalogInstantiate(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML), nil)
	require.NoError(t, err)

	inst, ok := c.Instantiate("shield")
	require.True(t, ok)
	assert.Equal(t, item.ID("shield"), inst.ItemID)
	assert.Nil(t, inst.Props)

	c.SetHook(hookFunc(func(def *item.Definition) (map[string]any, error) {
		return map[string]any{"durability": 100, "hook": def.InstanceHook}, nil
	}))
	inst, ok = c.Instantiate("sword")
	require.True(t, ok)
	assert.Equal(t, "on_instantiate_weapon", inst.Props["hook"])

	c.SetHook(hookFunc(func(*item.Definition) (map[string]any, error) {
		return nil, errors.New("boom")
	}))
	_, ok = c.Instantiate("sword")
	assert.False(t, ok)

	_, ok = c.Instantiate("rock")
	assert.False(t, ok)
}

func TestLoadCatalogFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(p, []byte(catalogYAML), 0o644))

	c, err := LoadCatalog(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestParseEffectTable(t *testing.T) {
	tbl, err := ParseEffectTable([]byte(`
effects:
  - class: Sharpness
    grant_tags: [Buff.Sharp]
  - class: Haste
`))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	s, ok := tbl.Effect("Sharpness")
	require.True(t, ok)
	assert.True(t, s.GrantTags.Has("Buff.Sharp"))

	_, ok = tbl.Effect("Unknown")
	assert.False(t, ok)

	_, err = ParseEffectTable([]byte("effects:\n  - class: A\n  - class: A\n"))
	assert.Error(t, err)
	_, err = ParseEffectTable([]byte("effects:\n  - grant_tags: [X]\n"))
	assert.Error(t, err)
}

func TestShippedDataFiles(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "data", "yaml", "items.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Count())
	assert.Equal(t, 1, c.Get("buckler").Fragment.RequiredSlot)
	assert.Nil(t, c.Get("lucky_charm").Fragment)

	tbl, err := LoadEffectTable(filepath.Join("..", "..", "data", "yaml", "effects.yaml"))
	require.NoError(t, err)
	for _, id := range []item.ID{"iron_sword", "flame_rune"} {
		for _, class := range c.Get(id).Fragment.Effects {
			_, ok := tbl.Effect(class)
			assert.True(t, ok, "effect %s of %s", class, id)
		}
	}
}
