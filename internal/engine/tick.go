package engine

import (
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/combat"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/status"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/trigger"
)

// Tick advances the simulation by deltaMs of wall time. The combat speed
// multiplier scales the effective elapsed time fed into timers and regen;
// it never reorders systems. Every system runs to completion before the
// next begins, and every damage-producing system runs before death
// settlement, so death is detected exactly once per entity per tick.
func (b *Battle) Tick(deltaMs int32) {
	effective := float64(deltaMs) * b.cfg.Combat.SpeedMultiplier
	effectiveMs := int32(effective)

	turns := b.advanceTurnClock(effective)

	if b.inCombat {
		for range turns {
			b.triggers.Record(event.TriggerEvent{Trigger: data.TriggerTurnStart, Actor: b.player})
		}

		b.advanceAttackTimers(effective)
		b.processor.Process(b.triggers.Drain(), b.tick)
		for range turns {
			b.statusEng.TickTurn(b.tick)
		}
	}

	b.passives.RecomputeDirty(b.tick)
	b.tickResources(effectiveMs, turns)
	b.settler.Settle(b.tick)
	b.settler.Sweep(effectiveMs)

	// Deterministic end-of-tick clear: events recorded after the processor
	// drained (reflect kills, status procs) do not cascade into this tick.
	b.triggers.Clear()
	b.tick++
}

// advanceTurnClock accumulates effective time and returns how many turn
// boundaries this tick crossed.
func (b *Battle) advanceTurnClock(effective float64) int {
	interval := float64(b.cfg.Combat.TurnIntervalMs)
	if interval <= 0 {
		return 0
	}
	b.turnAccumMs += effective
	turns := 0
	for b.turnAccumMs >= interval {
		b.turnAccumMs -= interval
		turns++
	}
	return turns
}

// advanceAttackTimers drives autoattacks and enemy ability intent.
func (b *Battle) advanceAttackTimers(effective float64) {
	enemy, hasEnemy := trigger.ActiveEnemy(b.store)
	if !hasEnemy {
		return
	}

	b.advanceAttacker(b.player, enemy, effective)

	// The player's swing may have opened death settlement conditions; a
	// dead-but-unsettled enemy must not swing back this tick.
	if b.entityDown(enemy) || b.entityDown(b.player) {
		return
	}
	b.advanceAttacker(enemy, b.player, effective)
}

func (b *Battle) advanceAttacker(attacker, defender entity.ID, effective float64) {
	if b.entityDown(attacker) || b.entityDown(defender) {
		return
	}

	timer, ok := entity.Lookup[*entity.AttackTimer](b.store, attacker, entity.KindAttackTimer)
	if !ok || timer.IntervalMs <= 0 {
		return
	}

	timer.ElapsedMs += int32(effective * b.attackSpeedFactor(attacker))
	if timer.ElapsedMs < timer.IntervalMs {
		return
	}
	timer.ElapsedMs -= timer.IntervalMs

	// A stun consumes the swing entirely.
	if status.Stunned(b.store, attacker) {
		b.log.Appendf("%s is stunned and cannot act!", b.displayName(attacker))
		return
	}

	if b.store.Has(attacker, entity.KindEnemyTag) {
		b.enemyAct(attacker, defender)
		return
	}
	b.playerAutoattack(attacker, defender)
}

// attackSpeedFactor folds slow status, speed buffs and speed debuffs into
// one multiplier on timer advancement.
func (b *Battle) attackSpeedFactor(id entity.ID) float64 {
	factor := status.SlowFactor(b.store, id, b.cfg.Combat.SlowSpeedPenalty)
	if buffs, ok := entity.Lookup[*entity.Buffs](b.store, id, entity.KindBuffs); ok {
		factor *= buffs.Multiplier(entity.StatSpeed)
	}
	if debuffs, ok := entity.Lookup[*entity.Debuffs](b.store, id, entity.KindDebuffs); ok {
		factor *= 1 - debuffs.Reduction(entity.StatSpeed)
	}
	if factor < 0.1 {
		factor = 0.1
	}
	return factor
}

func (b *Battle) playerAutoattack(attacker, defender entity.ID) {
	atk, ok := entity.Lookup[*entity.Attack](b.store, attacker, entity.KindAttack)
	if !ok {
		return
	}
	if counters, ok := entity.Lookup[*entity.Counters](b.store, attacker, entity.KindCounters); ok {
		counters.Inc("attacks")
	}

	raw := float64(atk.BaseDamage)
	if buffs, ok := entity.Lookup[*entity.Buffs](b.store, attacker, entity.KindBuffs); ok {
		raw *= buffs.Multiplier(entity.StatPower)
	}

	b.resolver.Resolve(combat.Hit{
		Attacker: attacker,
		Defender: defender,
		Source:   combat.SourceAttack,
		Raw:      int32(raw),
	}, b.tick)
}

// enemyAct picks a ready special ability by weight, falling back to a
// basic swing. The enemy's intent is pure data: weights and cooldowns come
// from the template.
func (b *Battle) enemyAct(attacker, defender entity.ID) {
	tag, _ := entity.Lookup[*entity.EnemyTag](b.store, attacker, entity.KindEnemyTag)
	atk, ok := entity.Lookup[*entity.Attack](b.store, attacker, entity.KindAttack)
	if !ok || tag == nil {
		return
	}

	raw := float64(atk.BaseDamage)
	if debuffs, ok := entity.Lookup[*entity.Debuffs](b.store, attacker, entity.KindDebuffs); ok {
		raw *= 1 - debuffs.Reduction(entity.StatPower)
	}

	ability := b.pickEnemyAbility(attacker, tag)
	if ability == nil {
		b.resolver.Resolve(combat.Hit{
			Attacker: attacker,
			Defender: defender,
			Source:   combat.SourceAttack,
			Raw:      int32(raw),
		}, b.tick)
		return
	}

	cds, _ := entity.Lookup[*entity.Cooldowns](b.store, attacker, entity.KindCooldowns)
	if cds != nil {
		cds.Start(ability.ID, ability.CooldownMs)
	}

	b.anim.Push(event.AnimEnemyAbility, event.AnimationPayload{
		Target:  defender,
		Ability: ability.ID,
	}, b.tick, 3)

	res := b.resolver.Resolve(combat.Hit{
		Attacker: attacker,
		Defender: defender,
		Source:   combat.SourceEnemyAbility,
		Raw:      int32(raw * ability.Multiplier),
		Label:    ability.Name,
	}, b.tick)

	// Rider status lands only when the hit connected.
	if ability.Status != nil && !res.Dodged {
		if ability.Status.Chance <= 0 || ability.Status.Chance >= 1 || b.rng.Float64() < ability.Status.Chance {
			b.statusEng.Apply(defender, entity.StatusEffect{
				ID:             ability.ID,
				EffectKind:     entity.StatusKind(ability.Status.Status),
				Damage:         ability.Status.Damage,
				RemainingTurns: ability.Status.DurationTurns,
			}, b.tick)
		}
	}
}

func (b *Battle) pickEnemyAbility(id entity.ID, tag *entity.EnemyTag) *data.EnemyAbilityDef {
	def := b.defs.Enemy(tag.TemplateID)
	if def == nil || len(def.Abilities) == 0 {
		return nil
	}
	cds, _ := entity.Lookup[*entity.Cooldowns](b.store, id, entity.KindCooldowns)

	var ready []*data.EnemyAbilityDef
	total := int32(0)
	for i := range def.Abilities {
		ab := &def.Abilities[i]
		if cds != nil && !cds.Ready(ab.ID) {
			continue
		}
		if ab.Weight <= 0 {
			continue
		}
		ready = append(ready, ab)
		total += ab.Weight
	}
	if len(ready) == 0 {
		return nil
	}

	roll := b.rng.Int32N(total)
	for _, ab := range ready {
		if roll < ab.Weight {
			return ab
		}
		roll -= ab.Weight
	}
	return ready[len(ready)-1]
}

// tickResources decrements all millisecond timers by effective time and
// applies per-turn resource changes at turn boundaries.
func (b *Battle) tickResources(effectiveMs int32, turns int) {
	for _, id := range b.store.Query([]entity.Kind{entity.KindCooldowns}, nil) {
		cds, ok := entity.Lookup[*entity.Cooldowns](b.store, id, entity.KindCooldowns)
		if !ok {
			continue
		}
		for _, cd := range cds.ByAbility {
			cd.RemainingMs -= effectiveMs
			if cd.RemainingMs < 0 {
				cd.RemainingMs = 0
			}
		}
	}

	if path, ok := entity.Lookup[*entity.PathState](b.store, b.player, entity.KindPathState); ok {
		for id, ms := range path.CooldownsMs {
			ms -= effectiveMs
			if ms < 0 {
				ms = 0
			}
			path.CooldownsMs[id] = ms
		}
	}

	if stance, ok := entity.Lookup[*entity.StanceState](b.store, b.player, entity.KindStanceState); ok {
		if stance.SwitchCooldownMs > 0 {
			stance.SwitchCooldownMs -= effectiveMs
			if stance.SwitchCooldownMs < 0 {
				stance.SwitchCooldownMs = 0
			}
		}
	}

	b.tickShields(effectiveMs)
	b.tickDebuffs(effectiveMs)

	for range turns {
		b.tickTurnResources()
	}
}

func (b *Battle) tickShields(effectiveMs int32) {
	for _, id := range b.store.Query([]entity.Kind{entity.KindShield}, nil) {
		shield, ok := entity.Lookup[*entity.Shield](b.store, id, entity.KindShield)
		if !ok {
			continue
		}
		if shield.Value <= 0 {
			continue
		}
		shield.RemainingMs -= effectiveMs
		if shield.RemainingMs <= 0 {
			shield.Value = 0
			shield.RemainingMs = 0
			shield.MaxDurationMs = 0
			b.log.Appendf("%s's shield fades.", b.displayName(id))
		}
	}
}

func (b *Battle) tickDebuffs(effectiveMs int32) {
	for _, id := range b.store.Query([]entity.Kind{entity.KindDebuffs}, nil) {
		debuffs, ok := entity.Lookup[*entity.Debuffs](b.store, id, entity.KindDebuffs)
		if !ok {
			continue
		}
		n := 0
		for i := range debuffs.List {
			debuffs.List[i].RemainingMs -= effectiveMs
			if debuffs.List[i].RemainingMs > 0 {
				debuffs.List[n] = debuffs.List[i]
				n++
			}
		}
		debuffs.List = debuffs.List[:n]
	}
}

// tickTurnResources applies one turn boundary: buff durations count down
// and regen accumulates.
func (b *Battle) tickTurnResources() {
	for _, id := range b.store.Query([]entity.Kind{entity.KindBuffs}, nil) {
		buffs, ok := entity.Lookup[*entity.Buffs](b.store, id, entity.KindBuffs)
		if !ok {
			continue
		}
		n := 0
		for i := range buffs.List {
			buffs.List[i].RemainingTurns--
			if buffs.List[i].RemainingTurns > 0 {
				buffs.List[n] = buffs.List[i]
				n++
			}
		}
		buffs.List = buffs.List[:n]
	}

	if b.entityDown(b.player) {
		return
	}

	cache, _ := entity.Lookup[*entity.PassiveCache](b.store, b.player, entity.KindPassiveCache)

	if mana, ok := entity.Lookup[*entity.Mana](b.store, b.player, entity.KindMana); ok {
		regen := b.cfg.Combat.ManaRegenPerTurn
		if cache != nil {
			regen += int32(cache.FlatValue("mana_regen_per_turn"))
		}
		mana.Restore(regen)
	}

	if cache != nil {
		if regen := int32(cache.FlatValue("regen_per_turn")); regen > 0 {
			if hp, ok := entity.Lookup[*entity.Health](b.store, b.player, entity.KindHealth); ok {
				hp.Heal(regen)
			}
		}
	}
}

// entityDown reports whether the entity is dead, settling, or gone.
func (b *Battle) entityDown(id entity.ID) bool {
	if !b.store.Alive(id) || b.store.Has(id, entity.KindDying) {
		return true
	}
	hp, ok := entity.Lookup[*entity.Health](b.store, id, entity.KindHealth)
	return ok && hp.Current <= 0
}

func (b *Battle) displayName(id entity.ID) string {
	if b.store.Has(id, entity.KindPlayerTag) {
		return "Hero"
	}
	if tag, ok := entity.Lookup[*entity.EnemyTag](b.store, id, entity.KindEnemyTag); ok {
		return tag.Name
	}
	return "Something"
}
