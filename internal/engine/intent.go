package engine

import (
	"log/slog"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/combat"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/status"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/trigger"
)

// Reason codes intent rejection. Rejected intents mutate nothing.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonNotInCombat
	ReasonUnknownPower
	ReasonUnknownStance
	ReasonLevelTooLow
	ReasonOnCooldown
	ReasonNoMana
	ReasonStunned
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNotInCombat:
		return "not_in_combat"
	case ReasonUnknownPower:
		return "unknown_power"
	case ReasonUnknownStance:
		return "unknown_stance"
	case ReasonLevelTooLow:
		return "level_too_low"
	case ReasonOnCooldown:
		return "on_cooldown"
	case ReasonNoMana:
		return "no_mana"
	case ReasonStunned:
		return "stunned"
	}
	return "unknown"
}

// UsePower validates and executes a power cast. All gates are checked
// before any state mutates; a rejection leaves the battle untouched.
func (b *Battle) UsePower(powerID string) Reason {
	if !b.inCombat {
		return ReasonNotInCombat
	}
	def := b.defs.Power(powerID)
	if def == nil {
		slog.Warn("intent references unknown power", "power", powerID)
		return ReasonUnknownPower
	}
	tag, _ := entity.Lookup[*entity.PlayerTag](b.store, b.player, entity.KindPlayerTag)
	if tag != nil && tag.Level < def.LevelReq {
		return ReasonLevelTooLow
	}
	cds, _ := entity.Lookup[*entity.Cooldowns](b.store, b.player, entity.KindCooldowns)
	if cds != nil && !cds.Ready(def.ID) {
		return ReasonOnCooldown
	}
	if status.Stunned(b.store, b.player) {
		return ReasonStunned
	}
	mana, _ := entity.Lookup[*entity.Mana](b.store, b.player, entity.KindMana)
	if mana == nil || mana.Current < def.ManaCost {
		return ReasonNoMana
	}
	enemy, ok := trigger.ActiveEnemy(b.store)
	if !ok || b.entityDown(b.player) {
		return ReasonNotInCombat
	}

	// Gates passed; mutate.
	mana.Spend(def.ManaCost)
	if cds != nil {
		cds.Start(def.ID, def.CooldownMs)
	}

	comboMult := b.updateCombo(def.ID)

	atk, _ := entity.Lookup[*entity.Attack](b.store, b.player, entity.KindAttack)
	raw := 0.0
	if atk != nil {
		raw = float64(atk.BaseDamage)
	}
	raw *= def.Multiplier * comboMult
	if buffs, ok := entity.Lookup[*entity.Buffs](b.store, b.player, entity.KindBuffs); ok {
		raw *= buffs.Multiplier(entity.StatPower)
	}

	b.anim.Push(event.AnimPowerUse, event.AnimationPayload{Power: def.ID}, b.tick, 2)

	res := b.resolver.Resolve(combat.Hit{
		Attacker: b.player,
		Defender: enemy,
		Source:   combat.SourcePower,
		Raw:      int32(raw),
		Label:    def.Name,
	}, b.tick)

	b.triggers.Record(event.TriggerEvent{
		Trigger: data.TriggerOnPowerUse,
		Actor:   b.player,
		Damage:  res.Damage + res.Absorbed,
		Crit:    res.Crit,
		PowerID: def.ID,
	})
	return ReasonOK
}

// updateCombo applies the alternation rule: repeating the previous power
// resets the counter, switching to a different one increments it (capped),
// and the returned multiplier applies to this cast.
func (b *Battle) updateCombo(powerID string) float64 {
	combo, ok := entity.Lookup[*entity.Combo](b.store, b.player, entity.KindCombo)
	if !ok {
		return 1
	}
	if combo.LastPowerID == powerID {
		combo.Count = 0
	} else if combo.LastPowerID != "" {
		combo.Count++
		if combo.Count > b.cfg.Combat.ComboCap {
			combo.Count = b.cfg.Combat.ComboCap
		}
	}
	combo.LastPowerID = powerID
	return 1 + b.cfg.Combat.ComboStep*float64(combo.Count)
}

// ToggleBlock flips the blocking stance and returns the new state.
func (b *Battle) ToggleBlock() bool {
	if b.store.Has(b.player, entity.KindBlocking) {
		b.store.Remove(b.player, entity.KindBlocking)
		b.log.Appendf("Hero lowers the guard.")
		return false
	}
	b.store.Add(b.player, &entity.Blocking{})
	b.log.Appendf("Hero raises the guard.")
	return true
}

// SwitchStance validates and performs a stance switch, dirtying the
// passive snapshot.
func (b *Battle) SwitchStance(stanceID string) Reason {
	def := b.defs.Stance(stanceID)
	if def == nil {
		slog.Warn("intent references unknown stance", "stance", stanceID)
		return ReasonUnknownStance
	}
	stance, ok := entity.Lookup[*entity.StanceState](b.store, b.player, entity.KindStanceState)
	if !ok {
		stance = &entity.StanceState{}
		b.store.Add(b.player, stance)
	}
	if stance.SwitchCooldownMs > 0 {
		return ReasonOnCooldown
	}
	if stance.ActiveStanceID == stanceID {
		return ReasonOK
	}

	stance.ActiveStanceID = stanceID
	stance.SwitchCooldownMs = def.SwitchCooldownMs
	stance.SwitchCooldownBase = def.SwitchCooldownMs
	b.passives.MarkDirty(b.player)

	b.anim.Push(event.AnimStanceSwitch, event.AnimationPayload{Ability: def.ID}, b.tick, 2)
	b.log.Appendf("Hero assumes %s.", def.Name)
	return ReasonOK
}
