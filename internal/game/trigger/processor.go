// Package trigger is the ability rules engine: it matches recorded combat
// events against the acting entity's unlocked ability effects, evaluates
// conditions and chance, applies payloads, and manages per-ability
// cooldowns.
package trigger

import (
	"log/slog"
	"math/rand/v2"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/status"
)

// Processor drains the tick's trigger buffer through the rules engine.
// Every matching effect of every matching ability runs; there is no early
// exit after the first match. Each payload kind is applied as its own
// small, independently-idempotent mutation, so a skipped effect never
// leaves an entity half-mutated.
type Processor struct {
	Store  *entity.Store
	RNG    *rand.Rand
	Cfg    *config.Combat
	Defs   *data.Set
	Status *status.Engine
	Log    *event.CombatLog
	Anim   *event.AnimationStream
}

// Process runs every queued event through the acting entity's abilities.
func (p *Processor) Process(events []event.TriggerEvent, tick uint64) {
	for i := range events {
		p.processEvent(&events[i], tick)
	}
}

func (p *Processor) processEvent(ev *event.TriggerEvent, tick uint64) {
	path, ok := entity.Lookup[*entity.PathState](p.Store, ev.Actor, entity.KindPathState)
	if !ok || path.PathID == "" {
		return
	}
	def := p.Defs.Path(path.PathID)
	if def == nil {
		slog.Warn("actor path has no definition", "path", path.PathID)
		return
	}

	for ai := range def.Abilities {
		ab := &def.Abilities[ai]
		if !path.Unlocked[ab.ID] {
			continue
		}
		for ei := range ab.Effects {
			eff := &ab.Effects[ei]
			if eff.Trigger != ev.Trigger {
				continue
			}
			p.processEffect(ev, path, ab, eff, tick)
		}
	}
}

func (p *Processor) processEffect(ev *event.TriggerEvent, path *entity.PathState, ab *data.AbilityDef, eff *data.EffectDef, tick uint64) {
	if !EvalCondition(p.Store, ev.Actor, eff.Condition) {
		return
	}

	// Cooldowns are tracked per ability id, not per effect.
	if eff.CooldownSec > 0 && path.OnCooldown(ab.ID) {
		return
	}

	if !p.rollChance(ev.Actor, eff.ProcChance()) {
		return
	}

	p.apply(ev, ab, eff, tick)

	if eff.CooldownSec > 0 {
		path.SetCooldown(ab.ID, int32(eff.CooldownSec*1000))
	}
}

// rollChance rolls the proc gate. The declared chance is scaled by the
// actor's fortune-derived proc bonus and the stance proc multiplier;
// chance 1 always passes and chance 0 never does.
func (p *Processor) rollChance(actor entity.ID, chance float64) bool {
	if chance >= 1 {
		return true
	}
	if chance <= 0 {
		return false
	}
	if stats, ok := entity.Lookup[*entity.Stats](p.Store, actor, entity.KindStats); ok {
		chance *= 1 + float64(stats.Fortune)*p.Cfg.ProcBonusPerFortune
	}
	if cache, ok := entity.Lookup[*entity.PassiveCache](p.Store, actor, entity.KindPassiveCache); ok {
		chance *= 1 + cache.PercentValue("proc_multiplier")
	}
	return p.RNG.Float64() < chance
}

// apply dispatches on the closed payload set. Every kind is handled;
// passive_mod is inert here because the passive computer folds it.
func (p *Processor) apply(ev *event.TriggerEvent, ab *data.AbilityDef, eff *data.EffectDef, tick uint64) {
	switch eff.Kind {
	case data.EffectHeal:
		p.applyHeal(ev.Actor, ab, eff.Heal, tick)
	case data.EffectDamage:
		p.applyDamage(ab, eff.Damage, tick)
	case data.EffectMana:
		p.applyMana(ev.Actor, ab, eff.Mana)
	case data.EffectModifier:
		p.applyModifier(ev, ab, eff.Modifier, tick)
	case data.EffectStatus:
		p.applyStatus(ev, ab, eff.Status, tick)
	case data.EffectStatMod:
		p.applyStatMod(ev.Actor, ab, eff.StatMod)
	case data.EffectCleanse:
		p.Status.Cleanse(ev.Actor)
	case data.EffectShield:
		p.applyShield(ev.Actor, ab, eff.Shield, tick)
	case data.EffectPassiveMod:
		// Folded by the passive snapshot, never applied per event.
	default:
		slog.Warn("effect has unknown kind; skipping", "ability", ab.ID, "kind", eff.Kind)
	}
}

func (p *Processor) applyHeal(actor entity.ID, ab *data.AbilityDef, payload *data.HealPayload, tick uint64) {
	if payload == nil {
		return
	}
	hp, ok := entity.Lookup[*entity.Health](p.Store, actor, entity.KindHealth)
	if !ok {
		return
	}
	// Authoring rule: values under 100 are percent of max HP, flat above.
	amount := int32(payload.Value)
	if payload.Value < 100 {
		amount = int32(float64(hp.Max) * payload.Value / 100)
	}
	healed := hp.Heal(amount)
	if healed <= 0 {
		return
	}
	p.Anim.Push(event.AnimHeal, event.AnimationPayload{Target: actor, Amount: healed, Ability: ab.ID}, tick, 2)
	p.Log.Appendf("%s restores %d HP.", ab.Name, healed)
}

func (p *Processor) applyDamage(ab *data.AbilityDef, payload *data.DamagePayload, tick uint64) {
	if payload == nil {
		return
	}
	enemy, ok := ActiveEnemy(p.Store)
	if !ok {
		return
	}
	hp, ok := entity.Lookup[*entity.Health](p.Store, enemy, entity.KindHealth)
	if !ok {
		return
	}
	amount := int32(payload.Value)
	if payload.Percent {
		amount = int32(float64(hp.Max) * payload.Value)
	}
	p.dealDirect(enemy, hp, amount, ab.Name, tick)
}

func (p *Processor) applyMana(actor entity.ID, ab *data.AbilityDef, payload *data.ManaPayload) {
	if payload == nil {
		return
	}
	mana, ok := entity.Lookup[*entity.Mana](p.Store, actor, entity.KindMana)
	if !ok {
		return
	}
	if restored := mana.Restore(payload.Value); restored > 0 {
		p.Log.Appendf("%s restores %d mana.", ab.Name, restored)
	}
}

// applyModifier handles the damage-derived variants, each reading the
// triggering event's damage value as its base.
func (p *Processor) applyModifier(ev *event.TriggerEvent, ab *data.AbilityDef, payload *data.ModifierPayload, tick uint64) {
	if payload == nil || ev.Damage <= 0 {
		return
	}
	amount := int32(float64(ev.Damage) * payload.Percent)
	if amount <= 0 {
		return
	}

	switch payload.Kind {
	case data.ModReflect, data.ModBonusDamage:
		enemy, ok := ActiveEnemy(p.Store)
		if !ok {
			return
		}
		hp, ok := entity.Lookup[*entity.Health](p.Store, enemy, entity.KindHealth)
		if !ok {
			return
		}
		p.dealDirect(enemy, hp, amount, ab.Name, tick)
	case data.ModLifesteal, data.ModConvertHeal:
		hp, ok := entity.Lookup[*entity.Health](p.Store, ev.Actor, entity.KindHealth)
		if !ok {
			return
		}
		if healed := hp.Heal(amount); healed > 0 {
			p.Anim.Push(event.AnimHeal, event.AnimationPayload{Target: ev.Actor, Amount: healed, Ability: ab.ID}, tick, 2)
			p.Log.Appendf("%s drains %d HP.", ab.Name, healed)
		}
	default:
		slog.Warn("unknown damage modifier kind; skipping", "ability", ab.ID, "modifier", payload.Kind)
	}
}

func (p *Processor) applyStatus(ev *event.TriggerEvent, ab *data.AbilityDef, payload *data.StatusPayload, tick uint64) {
	if payload == nil {
		return
	}
	enemy, ok := ActiveEnemy(p.Store)
	if !ok {
		return
	}
	if payload.Chance > 0 && payload.Chance < 1 && p.RNG.Float64() >= payload.Chance {
		return
	}

	damage := payload.Damage
	if payload.DamagePercent > 0 {
		// Bleed-style damage scales off the triggering hit.
		damage = int32(float64(ev.Damage) * payload.DamagePercent)
		if damage < 1 {
			damage = 1
		}
	}

	p.Status.Apply(enemy, entity.StatusEffect{
		ID:             ab.ID,
		EffectKind:     entity.StatusKind(payload.Status),
		Damage:         damage,
		RemainingTurns: payload.DurationTurns,
	}, tick)
}

// applyStatMod becomes a self buff or an enemy debuff, both refreshing by
// identity key rather than duplicating.
func (p *Processor) applyStatMod(actor entity.ID, ab *data.AbilityDef, payload *data.StatModPayload) {
	if payload == nil {
		return
	}

	switch payload.Target {
	case "self":
		buffs, ok := entity.Lookup[*entity.Buffs](p.Store, actor, entity.KindBuffs)
		if !ok {
			buffs = &entity.Buffs{}
			p.Store.Add(actor, buffs)
		}
		refreshed := buffs.Apply(entity.Buff{
			AbilityID:      ab.ID,
			Stat:           entity.ModStat(payload.Stat),
			Multiplier:     payload.Multiplier,
			RemainingTurns: payload.DurationTurns,
		})
		if refreshed {
			p.Log.Appendf("%s is extended.", ab.Name)
		} else {
			p.Log.Appendf("%s empowers the hero's %s.", ab.Name, payload.Stat)
		}
	case "enemy":
		enemy, ok := ActiveEnemy(p.Store)
		if !ok {
			return
		}
		debuffs, ok := entity.Lookup[*entity.Debuffs](p.Store, enemy, entity.KindDebuffs)
		if !ok {
			debuffs = &entity.Debuffs{}
			p.Store.Add(enemy, debuffs)
		}
		debuffs.Apply(entity.Debuff{
			ID:          ab.ID + ":" + payload.Stat,
			Stat:        entity.ModStat(payload.Stat),
			Percent:     payload.Percent,
			RemainingMs: payload.DurationMs,
			SourceName:  ab.Name,
		})
		p.Log.Appendf("%s weakens the enemy's %s.", ab.Name, payload.Stat)
	default:
		slog.Warn("stat_mod has unknown target; skipping", "ability", ab.ID, "target", payload.Target)
	}
}

func (p *Processor) applyShield(actor entity.ID, ab *data.AbilityDef, payload *data.ShieldPayload, tick uint64) {
	if payload == nil {
		return
	}
	shield, ok := entity.Lookup[*entity.Shield](p.Store, actor, entity.KindShield)
	if !ok {
		shield = &entity.Shield{}
		p.Store.Add(actor, shield)
	}
	shield.Grant(payload.Value, payload.DurationMs)
	p.Anim.Push(event.AnimItemProc, event.AnimationPayload{Target: actor, Amount: payload.Value, Ability: ab.ID}, tick, 2)
	p.Log.Appendf("%s grants a %d point shield.", ab.Name, payload.Value)
}

// dealDirect applies ability damage straight to health, outside the attack
// pipeline: trigger damage has already been earned by a resolved hit, so
// defense and avoidance do not apply a second time.
func (p *Processor) dealDirect(target entity.ID, hp *entity.Health, amount int32, label string, tick uint64) {
	if amount < 1 {
		amount = 1
	}
	dealt := hp.Reduce(amount, 0)
	p.Anim.Push(event.AnimAttack, event.AnimationPayload{Target: target, Damage: dealt}, tick, 2)
	p.Log.Appendf("%s strikes for %d damage.", label, dealt)
}
