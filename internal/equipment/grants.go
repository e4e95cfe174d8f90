package equipment

import (
	"github.com/l1jgo/armory/internal/item"
	"go.uber.org/zap"
)

// grantCoordinator applies and reverses the capabilities of equipped items.
// The authority reference is cached but revalidated on every use, since the
// authority may be attached after the manager or detached before it.
type grantCoordinator struct {
	locate AuthorityLocator
	cached CapabilityAuthority
	log    *zap.Logger
}

func (g *grantCoordinator) authority() (CapabilityAuthority, bool) {
	if g.cached != nil && g.cached.Active() {
		return g.cached, true
	}
	g.cached = nil
	if g.locate == nil {
		return nil, false
	}
	a, ok := g.locate()
	if !ok || a == nil || !a.Active() {
		return nil, false
	}
	g.cached = a
	g.log.Debug("cached capability authority")
	return a, true
}

// ownedTags returns the owner's current tags, or an empty set when the owner
// has no capability authority.
func (g *grantCoordinator) ownedTags() item.TagSet {
	a, ok := g.authority()
	if !ok {
		return item.TagSet{}
	}
	return a.OwnedTags()
}

func (g *grantCoordinator) grant(slot int, e *EquippedEntry, frag *item.CapabilityFragment) {
	a, ok := g.authority()
	if !ok {
		g.log.Debug("no capability authority, skipping grant", zap.Int("slot", slot))
		return
	}
	if frag == nil {
		g.log.Debug("item has no capability fragment", zap.String("item", string(e.SourceID)))
		return
	}

	for _, class := range frag.Abilities {
		if class == "" {
			continue
		}
		h := a.GrantAbility(class)
		if !h.Valid() {
			continue
		}
		e.AbilityHandles = append(e.AbilityHandles, h)
		g.log.Debug("granted ability",
			zap.String("ability", string(class)),
			zap.String("item", string(e.SourceID)),
		)
	}

	for _, class := range frag.Effects {
		if class == "" {
			continue
		}
		h := a.ApplyEffect(class)
		if !h.Valid() {
			g.log.Debug("effect not applied", zap.String("effect", string(class)))
			continue
		}
		e.EffectHandles = append(e.EffectHandles, h)
		g.log.Debug("applied effect",
			zap.String("effect", string(class)),
			zap.String("item", string(e.SourceID)),
		)
	}

	if frag.EquippedTags.Len() > 0 {
		tags := frag.EquippedTags.Clone()
		a.AddTags(tags)
		e.GrantedTags = tags
	}

	g.log.Info("granted capabilities",
		zap.Int("slot", slot),
		zap.String("item", string(e.SourceID)),
		zap.Int("abilities", len(e.AbilityHandles)),
		zap.Int("effects", len(e.EffectHandles)),
		zap.Int("tags", e.GrantedTags.Len()),
	)
}

// revoke reverses every handle recorded on e and clears the collections.
// Without an authority only the local bookkeeping is cleared.
func (g *grantCoordinator) revoke(slot int, e *EquippedEntry) {
	a, ok := g.authority()
	if !ok {
		e.clearGrants()
		return
	}

	if len(e.AbilityHandles) > 0 {
		for _, h := range e.AbilityHandles {
			a.RevokeAbility(h)
		}
		g.log.Debug("revoked abilities", zap.Int("slot", slot), zap.Int("count", len(e.AbilityHandles)))
	}
	if len(e.EffectHandles) > 0 {
		for _, h := range e.EffectHandles {
			a.RemoveEffect(h)
		}
		g.log.Debug("removed effects", zap.Int("slot", slot), zap.Int("count", len(e.EffectHandles)))
	}
	if e.GrantedTags.Len() > 0 {
		a.RemoveTags(e.GrantedTags)
		g.log.Debug("removed tags", zap.Int("slot", slot), zap.Int("count", e.GrantedTags.Len()))
	}
	e.clearGrants()
}
