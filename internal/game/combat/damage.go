// Package combat implements the damage resolution pipeline, reward math,
// drop rolls and death settlement.
package combat

import (
	"math/rand/v2"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

// Source classifies where a hit came from. It decides which pipeline steps
// apply: self-inflicted costs bypass shields and cannot kill, reflected
// damage skips crit/dodge/block.
type Source int

const (
	SourceAttack Source = iota
	SourcePower
	SourceEnemyAbility
	SourceReflect
	SourceCost
)

func (s Source) String() string {
	switch s {
	case SourceAttack:
		return "attack"
	case SourcePower:
		return "power"
	case SourceEnemyAbility:
		return "enemy_ability"
	case SourceReflect:
		return "reflect"
	case SourceCost:
		return "cost"
	}
	return "unknown"
}

// Hit is one raw damage request entering the pipeline.
type Hit struct {
	Attacker entity.ID
	Defender entity.ID
	Source   Source
	Raw      int32
	// Label names the power or ability for the combat log; empty for a
	// basic attack.
	Label string
	// MinHealth floors the defender's health. 1 for self costs that must
	// not kill, 0 otherwise.
	MinHealth int32
}

// Result is the final outcome of a resolved hit.
type Result struct {
	Damage       int32 // HP actually removed from health
	Absorbed     int32 // HP eaten by the shield
	Crit         bool
	Dodged       bool
	Blocked      bool
	ShieldBroken bool
	KilledNow    bool // defender's health reached 0 on this hit
}

// Resolver turns raw hits into final HP deltas in a fixed order:
// defense, variance, crit/dodge, block, shield absorption, health
// subtraction, then log + animation emission. Callers guard against
// resolving hits on entities already marked Dying.
type Resolver struct {
	Store    *entity.Store
	RNG      *rand.Rand
	Cfg      *config.Combat
	Log      *event.CombatLog
	Anim     *event.AnimationStream
	Triggers *event.Buffer
}

// Resolve runs the pipeline for one hit at the given tick.
func (r *Resolver) Resolve(hit Hit, tick uint64) Result {
	raw := hit.Raw
	if raw < 1 {
		raw = 1
	}

	// Attacker-side passive damage bonus (stance damage_percent etc).
	if cache, ok := entity.Lookup[*entity.PassiveCache](r.Store, hit.Attacker, entity.KindPassiveCache); ok && hit.Source != SourceCost {
		if pct := cache.PercentValue("damage_percent"); pct != 0 {
			raw = int32(float64(raw) * (1 + pct))
			if raw < 1 {
				raw = 1
			}
		}
	}

	damage := float64(raw)

	if hit.Source != SourceCost {
		damage = r.applyDefense(damage, hit.Defender)

		// Variance multiplier in [VarianceMin, VarianceMax].
		spread := r.Cfg.VarianceMax - r.Cfg.VarianceMin
		damage *= r.Cfg.VarianceMin + r.RNG.Float64()*spread
	}

	res := Result{}

	if hit.Source == SourceAttack || hit.Source == SourcePower || hit.Source == SourceEnemyAbility {
		if r.rollDodge(hit.Defender) {
			res.Dodged = true
			r.emitDodge(hit, tick)
			return res
		}
		if r.rollCrit(hit.Attacker) {
			res.Crit = true
			damage *= r.Cfg.CritDamageMult
		}
	}

	// Defender-side passive damage reduction. Negative values (stance
	// downsides) increase damage taken.
	if cache, ok := entity.Lookup[*entity.PassiveCache](r.Store, hit.Defender, entity.KindPassiveCache); ok && hit.Source != SourceCost {
		if red := cache.PercentValue("damage_reduction"); red != 0 {
			if red > 0.9 {
				red = 0.9
			}
			damage *= 1 - red
		}
	}

	if hit.Source != SourceCost && hit.Source != SourceReflect {
		if r.Store.Has(hit.Defender, entity.KindBlocking) {
			res.Blocked = true
			damage *= r.Cfg.BlockReduction
			if r.Store.Has(hit.Defender, entity.KindPlayerTag) {
				r.Triggers.Record(event.TriggerEvent{
					Trigger: data.TriggerOnBlock,
					Actor:   hit.Defender,
					Damage:  int32(damage),
				})
			}
		}
	}

	final := int32(damage)
	if final < 1 {
		final = 1
	}

	// Shield absorption. Self costs always bypass the shield.
	if hit.Source != SourceCost {
		if shield, ok := entity.Lookup[*entity.Shield](r.Store, hit.Defender, entity.KindShield); ok {
			absorbed, broken := shield.Absorb(final)
			res.Absorbed = absorbed
			final -= absorbed
			if broken {
				res.ShieldBroken = true
				r.Anim.Push(event.AnimShieldBroken, event.AnimationPayload{Target: hit.Defender}, tick, 2)
				r.Log.Appendf("%s's shield shatters!", r.displayName(hit.Defender))
			}
		}
	}

	if final > 0 {
		if hp, ok := entity.Lookup[*entity.Health](r.Store, hit.Defender, entity.KindHealth); ok {
			res.Damage = hp.Reduce(final, hit.MinHealth)
			res.KilledNow = hp.Current <= 0
		}
	}

	r.emitHit(hit, res, tick)
	r.recordTriggers(hit, res)
	return res
}

// applyDefense applies the defender's effective defense:
// damage = max(1, raw - defense/2), with shielded defenders counting
// defense at ShieldedDefenseMult.
func (r *Resolver) applyDefense(damage float64, defender entity.ID) float64 {
	def, ok := entity.Lookup[*entity.Defense](r.Store, defender, entity.KindDefense)
	if !ok {
		return damage
	}

	effective := float64(def.Value)
	if buffs, ok := entity.Lookup[*entity.Buffs](r.Store, defender, entity.KindBuffs); ok {
		effective *= buffs.Multiplier(entity.StatArmor)
	}
	if debuffs, ok := entity.Lookup[*entity.Debuffs](r.Store, defender, entity.KindDebuffs); ok {
		effective *= 1 - debuffs.Reduction(entity.StatArmor)
	}
	if shield, ok := entity.Lookup[*entity.Shield](r.Store, defender, entity.KindShield); ok && shield.Value > 0 {
		effective *= r.Cfg.ShieldedDefenseMult
	}

	damage -= effective / 2
	if damage < 1 {
		damage = 1
	}
	return damage
}

// rollCrit rolls the attacker's crit chance, derived from fortune plus any
// passive crit bonus.
func (r *Resolver) rollCrit(attacker entity.ID) bool {
	chance := r.Cfg.CritChanceBase
	if stats, ok := entity.Lookup[*entity.Stats](r.Store, attacker, entity.KindStats); ok {
		chance += float64(stats.Fortune) * r.Cfg.CritChancePerFortune
	}
	if cache, ok := entity.Lookup[*entity.PassiveCache](r.Store, attacker, entity.KindPassiveCache); ok {
		chance += cache.PercentValue("crit_chance")
	}
	if chance > r.Cfg.CritChanceCap {
		chance = r.Cfg.CritChanceCap
	}
	return r.RNG.Float64() < chance
}

// rollDodge rolls the defender's dodge chance, derived from fortune.
func (r *Resolver) rollDodge(defender entity.ID) bool {
	stats, ok := entity.Lookup[*entity.Stats](r.Store, defender, entity.KindStats)
	if !ok {
		return false
	}
	chance := float64(stats.Fortune) * r.Cfg.DodgeChancePerFortune
	if chance > r.Cfg.DodgeChanceCap {
		chance = r.Cfg.DodgeChanceCap
	}
	return r.RNG.Float64() < chance
}

func (r *Resolver) emitDodge(hit Hit, tick uint64) {
	r.Anim.Push(event.AnimDodge, event.AnimationPayload{Target: hit.Defender}, tick, 2)
	r.Log.Appendf("%s dodges %s's attack!", r.displayName(hit.Defender), r.displayName(hit.Attacker))
	if r.Store.Has(hit.Defender, entity.KindPlayerTag) {
		r.Triggers.Record(event.TriggerEvent{
			Trigger: data.TriggerOnDodge,
			Actor:   hit.Defender,
		})
	}
}

func (r *Resolver) emitHit(hit Hit, res Result, tick uint64) {
	r.Anim.Push(event.AnimAttack, event.AnimationPayload{
		Target:  hit.Defender,
		Damage:  res.Damage,
		Crit:    res.Crit,
		Blocked: res.Blocked,
	}, tick, 2)

	attacker := r.displayName(hit.Attacker)
	defender := r.displayName(hit.Defender)
	switch {
	case hit.Source == SourceCost:
		r.Log.Appendf("%s sacrifices %d HP.", defender, res.Damage)
	case hit.Label != "" && res.Crit:
		r.Log.Appendf("%s's %s crits %s for %d damage!", attacker, hit.Label, defender, res.Damage)
	case hit.Label != "":
		r.Log.Appendf("%s's %s hits %s for %d damage.", attacker, hit.Label, defender, res.Damage)
	case res.Crit:
		r.Log.Appendf("%s crits %s for %d damage!", attacker, defender, res.Damage)
	default:
		r.Log.Appendf("%s hits %s for %d damage.", attacker, defender, res.Damage)
	}
}

// recordTriggers queues trigger events for the rules engine. Only player
// entities own abilities, so only the player side records.
func (r *Resolver) recordTriggers(hit Hit, res Result) {
	if hit.Source == SourceCost || hit.Source == SourceReflect {
		return
	}

	dealt := res.Damage + res.Absorbed

	if r.Store.Has(hit.Attacker, entity.KindPlayerTag) {
		r.Triggers.Record(event.TriggerEvent{
			Trigger: data.TriggerOnHit,
			Actor:   hit.Attacker,
			Damage:  dealt,
			Crit:    res.Crit,
		})
		if res.Crit {
			r.Triggers.Record(event.TriggerEvent{
				Trigger: data.TriggerOnCrit,
				Actor:   hit.Attacker,
				Damage:  dealt,
				Crit:    true,
			})
		}
		if res.KilledNow {
			r.Triggers.Record(event.TriggerEvent{
				Trigger: data.TriggerOnKill,
				Actor:   hit.Attacker,
				Damage:  dealt,
			})
		}
	}

	if r.Store.Has(hit.Defender, entity.KindPlayerTag) {
		r.Triggers.Record(event.TriggerEvent{
			Trigger: data.TriggerOnDamaged,
			Actor:   hit.Defender,
			Damage:  dealt,
			Crit:    res.Crit,
		})
	}
}

// displayName resolves an entity to a log-friendly name.
func (r *Resolver) displayName(id entity.ID) string {
	if r.Store.Has(id, entity.KindPlayerTag) {
		return "Hero"
	}
	if tag, ok := entity.Lookup[*entity.EnemyTag](r.Store, id, entity.KindEnemyTag); ok {
		return tag.Name
	}
	return "Something"
}
