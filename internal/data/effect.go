package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/armory/internal/ability"
	"github.com/l1jgo/armory/internal/item"
	"gopkg.in/yaml.v3"
)

// EffectTable holds every appliable effect class.
type EffectTable struct {
	effects map[item.EffectClass]ability.EffectSpec
}

type effectEntry struct {
	Class     item.EffectClass `yaml:"class"`
	GrantTags item.TagSet      `yaml:"grant_tags"`
}

type effectFile struct {
	Effects []effectEntry `yaml:"effects"`
}

// LoadEffectTable reads and validates an effect table YAML file.
func LoadEffectTable(path string) (*EffectTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect table: %w", err)
	}
	t, err := ParseEffectTable(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func ParseEffectTable(raw []byte) (*EffectTable, error) {
	if err := validateYAML(effectsSchema, raw); err != nil {
		return nil, fmt.Errorf("validate effect table: %w", err)
	}
	var f effectFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse effect table: %w", err)
	}
	t := &EffectTable{effects: make(map[item.EffectClass]ability.EffectSpec, len(f.Effects))}
	for _, e := range f.Effects {
		if _, dup := t.effects[e.Class]; dup {
			return nil, fmt.Errorf("duplicate effect %q", e.Class)
		}
		t.effects[e.Class] = ability.EffectSpec{Class: e.Class, GrantTags: e.GrantTags}
	}
	return t, nil
}

func (t *EffectTable) Effect(class item.EffectClass) (ability.EffectSpec, bool) {
	s, ok := t.effects[class]
	return s, ok
}

func (t *EffectTable) Count() int {
	return len(t.effects)
}
