// Package status implements the timed status effect engine: poison, bleed,
// stun and slow, with refresh-not-stack semantics.
package status

import (
	"log/slog"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

// Engine ticks status effects at turn boundaries. DoT kinds deal their
// stored damage once per remaining-turn decrement, never per millisecond.
type Engine struct {
	Store *entity.Store
	Log   *event.CombatLog
	Anim  *event.AnimationStream
}

// TickTurn applies one turn boundary to every entity carrying statuses:
// poison and bleed deal damage, all counters decrement, expired entries are
// filtered out. Dying entities are skipped entirely.
func (e *Engine) TickTurn(tick uint64) {
	ids := e.Store.Query(
		[]entity.Kind{entity.KindStatusEffects},
		[]entity.Kind{entity.KindDying},
	)
	for _, id := range ids {
		se, ok := entity.Lookup[*entity.StatusEffects](e.Store, id, entity.KindStatusEffects)
		if !ok || len(se.List) == 0 {
			continue
		}

		n := 0
		for i := range se.List {
			s := &se.List[i]

			switch s.EffectKind {
			case entity.StatusPoison, entity.StatusBleed:
				e.applyDot(id, s, tick)
			}

			s.RemainingTurns--
			if s.RemainingTurns > 0 {
				se.List[n] = *s
				n++
			} else {
				e.Log.Appendf("%s is no longer affected by %s.", e.displayName(id), s.EffectKind)
			}
		}
		se.List = se.List[:n]
	}
}

func (e *Engine) applyDot(id entity.ID, s *entity.StatusEffect, tick uint64) {
	if s.Damage <= 0 {
		return
	}
	hp, ok := entity.Lookup[*entity.Health](e.Store, id, entity.KindHealth)
	if !ok {
		return
	}
	dealt := hp.Reduce(s.Damage, 0)
	e.Anim.Push(event.AnimStatusApplied, event.AnimationPayload{
		Target: id,
		Damage: dealt,
		Status: string(s.EffectKind),
	}, tick, 2)
	e.Log.Appendf("%s suffers %d %s damage.", e.displayName(id), dealt, s.EffectKind)
}

// Apply attaches a status to an entity, creating the component on first
// use. Reapplication refreshes in place per the component's identity rules.
func (e *Engine) Apply(id entity.ID, s entity.StatusEffect, tick uint64) {
	if !entity.KnownStatusKind(s.EffectKind) {
		slog.Warn("ignoring unknown status kind", "status", s.EffectKind, "target", id)
		return
	}
	se, ok := entity.Lookup[*entity.StatusEffects](e.Store, id, entity.KindStatusEffects)
	if !ok {
		se = &entity.StatusEffects{}
		e.Store.Add(id, se)
	}
	refreshed := se.Apply(s)
	e.Anim.Push(event.AnimStatusApplied, event.AnimationPayload{
		Target: id,
		Status: string(s.EffectKind),
	}, tick, 2)
	if refreshed {
		e.Log.Appendf("%s's %s is renewed.", e.displayName(id), s.EffectKind)
	} else {
		e.Log.Appendf("%s is afflicted by %s!", e.displayName(id), s.EffectKind)
	}
}

// Cleanse removes every status from the entity and reports how many were
// removed.
func (e *Engine) Cleanse(id entity.ID) int {
	se, ok := entity.Lookup[*entity.StatusEffects](e.Store, id, entity.KindStatusEffects)
	if !ok || len(se.List) == 0 {
		return 0
	}
	n := len(se.List)
	se.Clear()
	e.Log.Appendf("%s is cleansed of all ailments.", e.displayName(id))
	return n
}

func (e *Engine) displayName(id entity.ID) string {
	if e.Store.Has(id, entity.KindPlayerTag) {
		return "Hero"
	}
	if tag, ok := entity.Lookup[*entity.EnemyTag](e.Store, id, entity.KindEnemyTag); ok {
		return tag.Name
	}
	return "Something"
}

// Stunned reports whether the entity currently carries a stun. The attack
// timing system consults this to skip the entity's next swing.
func Stunned(store *entity.Store, id entity.ID) bool {
	return Has(store, id, entity.StatusStun)
}

// Has reports whether the entity carries a status of the given kind.
func Has(store *entity.Store, id entity.ID, kind entity.StatusKind) bool {
	se, ok := entity.Lookup[*entity.StatusEffects](store, id, entity.KindStatusEffects)
	if !ok {
		return false
	}
	return se.Find(kind) != nil
}

// SlowFactor returns the speed multiplier the attack-interval calculation
// should apply: 1 normally, 1-penalty while slowed.
func SlowFactor(store *entity.Store, id entity.ID, penalty float64) float64 {
	if Has(store, id, entity.StatusSlow) {
		return 1 - penalty
	}
	return 1
}
