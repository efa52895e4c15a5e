// Package passive recomputes the cached snapshot of passive modifiers an
// entity currently has from its unlocked path abilities and active stance.
package passive

import (
	"log/slog"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/trigger"
)

// Computer rebuilds PassiveCache snapshots. Recomputation is lazy: systems
// mark the cache dirty on relevant state changes and the scheduler calls
// RecomputeDirty once per tick, after triggers and statuses have settled,
// so downstream reads within the tick see one consistent snapshot.
type Computer struct {
	Store *entity.Store
	Defs  *data.Set
}

// MarkDirty flags the entity's cache for recomputation, creating the cache
// component on first use.
func (c *Computer) MarkDirty(id entity.ID) {
	cache, ok := entity.Lookup[*entity.PassiveCache](c.Store, id, entity.KindPassiveCache)
	if !ok {
		c.Store.Add(id, &entity.PassiveCache{Dirty: true})
		return
	}
	cache.Dirty = true
}

// RecomputeDirty rebuilds every dirty cache in the store.
func (c *Computer) RecomputeDirty(tick uint64) {
	ids := c.Store.Query([]entity.Kind{entity.KindPassiveCache}, nil)
	for _, id := range ids {
		cache, ok := entity.Lookup[*entity.PassiveCache](c.Store, id, entity.KindPassiveCache)
		if !ok || !cache.Dirty {
			continue
		}
		c.recompute(id, cache, tick)
	}
}

// Recompute forces a rebuild of the entity's snapshot regardless of the
// dirty flag.
func (c *Computer) Recompute(id entity.ID, tick uint64) {
	cache, ok := entity.Lookup[*entity.PassiveCache](c.Store, id, entity.KindPassiveCache)
	if !ok {
		cache = &entity.PassiveCache{}
		c.Store.Add(id, cache)
	}
	c.recompute(id, cache, tick)
}

func (c *Computer) recompute(id entity.ID, cache *entity.PassiveCache, tick uint64) {
	flat := make(map[string]float64)
	percent := make(map[string]float64)
	flags := make(map[string]bool)

	fold := func(mod *data.PassiveModifierDef) {
		// Same-kind modifiers from different sources combine: flat sums,
		// percent adds, flags OR. Nothing overwrites.
		flat[mod.Key] += mod.Flat
		percent[mod.Key] += mod.Percent
		if mod.Flag {
			flags[mod.Key] = true
		}
	}

	if stance, ok := entity.Lookup[*entity.StanceState](c.Store, id, entity.KindStanceState); ok && stance.ActiveStanceID != "" {
		if def := c.Defs.Stance(stance.ActiveStanceID); def != nil {
			for i := range def.Modifiers {
				fold(&def.Modifiers[i])
			}
		} else {
			slog.Warn("active stance has no definition", "stance", stance.ActiveStanceID)
		}
	}

	if path, ok := entity.Lookup[*entity.PathState](c.Store, id, entity.KindPathState); ok && path.PathID != "" {
		if def := c.Defs.Path(path.PathID); def != nil {
			c.foldPathEffects(id, path, def, fold)
		} else {
			slog.Warn("path state references unknown path", "path", path.PathID)
		}
	}

	cache.Flat = flat
	cache.Percent = percent
	cache.Flags = flags
	cache.ComputedTick = tick
	cache.Dirty = false
}

// foldPathEffects folds every passive effect, and every conditional effect
// whose condition currently holds, across the entity's unlocked abilities.
func (c *Computer) foldPathEffects(id entity.ID, path *entity.PathState, def *data.PathDef, fold func(*data.PassiveModifierDef)) {
	for ai := range def.Abilities {
		ab := &def.Abilities[ai]
		if !path.Unlocked[ab.ID] {
			continue
		}
		for ei := range ab.Effects {
			eff := &ab.Effects[ei]
			if eff.Kind != data.EffectPassiveMod || eff.Passive == nil {
				continue
			}
			switch eff.Trigger {
			case data.TriggerPassive:
				fold(eff.Passive)
			case data.TriggerConditional:
				if trigger.EvalCondition(c.Store, id, eff.Condition) {
					fold(eff.Passive)
				}
			}
		}
	}
}
