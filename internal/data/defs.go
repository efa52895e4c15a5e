package data

// Static combat definitions. Everything here is externally authored,
// loaded from YAML, and read-only to the simulation. Identifiers stay
// strings (never source enums) and are validated at load time; unknown
// identifiers surface as startup warnings, not runtime errors.

// Trigger names a combat event that ability effects subscribe to.
type Trigger string

const (
	TriggerOnHit       Trigger = "on_hit"
	TriggerOnCrit      Trigger = "on_crit"
	TriggerOnKill      Trigger = "on_kill"
	TriggerOnDamaged   Trigger = "on_damaged"
	TriggerOnDodge     Trigger = "on_dodge"
	TriggerOnBlock     Trigger = "on_block"
	TriggerOnPowerUse  Trigger = "on_power_use"
	TriggerCombatStart Trigger = "combat_start"
	TriggerTurnStart   Trigger = "turn_start"

	// Passive and conditional effects never match queued events; they are
	// folded into the passive snapshot instead.
	TriggerPassive     Trigger = "passive"
	TriggerConditional Trigger = "conditional"
)

// KnownTrigger reports whether t is a trigger the engine understands.
func KnownTrigger(t Trigger) bool {
	switch t {
	case TriggerOnHit, TriggerOnCrit, TriggerOnKill, TriggerOnDamaged,
		TriggerOnDodge, TriggerOnBlock, TriggerOnPowerUse,
		TriggerCombatStart, TriggerTurnStart, TriggerPassive, TriggerConditional:
		return true
	}
	return false
}

// ConditionKind names a gate an effect can declare.
type ConditionKind string

const (
	CondHPBelow        ConditionKind = "hp_below"
	CondHPAbove        ConditionKind = "hp_above"
	CondManaBelow      ConditionKind = "mana_below"
	CondManaAbove      ConditionKind = "mana_above"
	CondEnemyHPBelow   ConditionKind = "enemy_hp_below"
	CondComboAtLeast   ConditionKind = "combo_at_least"
	CondAttackCount    ConditionKind = "attack_count"
	CondEnemyHasStatus ConditionKind = "enemy_has_status"
)

// KnownCondition reports whether k is a condition kind the engine evaluates.
func KnownCondition(k ConditionKind) bool {
	switch k {
	case CondHPBelow, CondHPAbove, CondManaBelow, CondManaAbove,
		CondEnemyHPBelow, CondComboAtLeast, CondAttackCount, CondEnemyHasStatus:
		return true
	}
	return false
}

// ConditionDef gates an effect on entity state.
// Value is a fraction for hp/mana thresholds (0.5 = 50%) and a count for
// combo/attack-count conditions. Status names the status for
// enemy_has_status.
type ConditionDef struct {
	Kind   ConditionKind `yaml:"kind"`
	Value  float64       `yaml:"value"`
	Status string        `yaml:"status,omitempty"`
}

// EffectKind discriminates the closed set of effect payloads.
type EffectKind string

const (
	EffectHeal       EffectKind = "heal"
	EffectDamage     EffectKind = "damage"
	EffectMana       EffectKind = "mana"
	EffectModifier   EffectKind = "modifier"
	EffectStatus     EffectKind = "status"
	EffectStatMod    EffectKind = "stat_mod"
	EffectCleanse    EffectKind = "cleanse"
	EffectShield     EffectKind = "shield"
	EffectPassiveMod EffectKind = "passive_mod"
)

// ModifierKind discriminates damage-modifier effects, each of which reads
// the triggering event's damage value as its base.
type ModifierKind string

const (
	ModReflect     ModifierKind = "reflect"
	ModLifesteal   ModifierKind = "lifesteal"
	ModBonusDamage ModifierKind = "bonus_damage"
	ModConvertHeal ModifierKind = "convert_heal"
)

// HealPayload restores HP. Values below 100 are authored as percent of max
// HP; 100 and above are flat.
type HealPayload struct {
	Value float64 `yaml:"value"`
}

// DamagePayload deals bonus damage to the enemy, flat or as a percent of
// the enemy's max HP.
type DamagePayload struct {
	Value   float64 `yaml:"value"`
	Percent bool    `yaml:"percent,omitempty"`
}

// ManaPayload restores flat mana.
type ManaPayload struct {
	Value int32 `yaml:"value"`
}

// ModifierPayload is a damage-derived effect: Percent of the triggering
// damage is reflected, leeched, added, or converted to healing.
type ModifierPayload struct {
	Kind    ModifierKind `yaml:"kind"`
	Percent float64      `yaml:"percent"`
}

// StatusPayload applies a status to the enemy. For bleed, DamagePercent of
// the triggering damage becomes the per-turn bleed damage; Damage is a flat
// per-turn amount otherwise.
type StatusPayload struct {
	Status        string  `yaml:"status"`
	DurationTurns int32   `yaml:"duration_turns"`
	Chance        float64 `yaml:"chance,omitempty"` // 0 means always
	Damage        int32   `yaml:"damage,omitempty"`
	DamagePercent float64 `yaml:"damage_percent,omitempty"`
}

// StatModPayload becomes a self buff (Target "self") or an enemy debuff
// (Target "enemy"). Buffs use Multiplier and turn durations; debuffs use
// Percent reduction and millisecond durations.
type StatModPayload struct {
	Stat          string  `yaml:"stat"`
	Target        string  `yaml:"target"` // self | enemy
	Multiplier    float64 `yaml:"multiplier,omitempty"`
	Percent       float64 `yaml:"percent,omitempty"`
	DurationTurns int32   `yaml:"duration_turns,omitempty"`
	DurationMs    int32   `yaml:"duration_ms,omitempty"`
}

// ShieldPayload grants absorb value with max-duration semantics.
type ShieldPayload struct {
	Value      int32 `yaml:"value"`
	DurationMs int32 `yaml:"duration_ms"`
}

// PassiveModifierDef contributes to the passive snapshot: flat modifiers
// sum, percent modifiers combine additively, flags OR.
type PassiveModifierDef struct {
	Key     string  `yaml:"key"`
	Flat    float64 `yaml:"flat,omitempty"`
	Percent float64 `yaml:"percent,omitempty"`
	Flag    bool    `yaml:"flag,omitempty"`
}

// EffectDef is one trigger-gated effect inside an ability. Kind selects
// exactly one payload; the loader rejects mismatched payloads.
type EffectDef struct {
	Trigger     Trigger       `yaml:"trigger"`
	Kind        EffectKind    `yaml:"kind"`
	Chance      *float64      `yaml:"chance,omitempty"` // nil means always
	CooldownSec float64       `yaml:"cooldown_sec,omitempty"`
	Condition   *ConditionDef `yaml:"condition,omitempty"`

	Heal     *HealPayload        `yaml:"heal,omitempty"`
	Damage   *DamagePayload      `yaml:"damage,omitempty"`
	Mana     *ManaPayload        `yaml:"mana,omitempty"`
	Modifier *ModifierPayload    `yaml:"modifier,omitempty"`
	Status   *StatusPayload      `yaml:"status,omitempty"`
	StatMod  *StatModPayload     `yaml:"stat_mod,omitempty"`
	Shield   *ShieldPayload      `yaml:"shield,omitempty"`
	Passive  *PassiveModifierDef `yaml:"passive,omitempty"`
}

// ProcChance returns the effect's proc chance, defaulting to 1 when the
// effect declares none. A declared chance of 0 means "never" and is kept.
func (e *EffectDef) ProcChance() float64 {
	if e.Chance == nil {
		return 1.0
	}
	return *e.Chance
}

// AbilityDef is a level-gated unlockable skill composed of effects.
type AbilityDef struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	LevelReq int32       `yaml:"level_req"`
	Effects  []EffectDef `yaml:"effects"`
}

// PathDef groups the abilities of one progression path.
type PathDef struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Abilities []AbilityDef `yaml:"abilities"`
}

// Ability finds an ability by id within the path.
func (p *PathDef) Ability(id string) *AbilityDef {
	for i := range p.Abilities {
		if p.Abilities[i].ID == id {
			return &p.Abilities[i]
		}
	}
	return nil
}

// StanceDef is a switchable passive mode.
type StanceDef struct {
	ID               string               `yaml:"id"`
	Name             string               `yaml:"name"`
	SwitchCooldownMs int32                `yaml:"switch_cooldown_ms"`
	Modifiers        []PassiveModifierDef `yaml:"modifiers"`
}

// PowerDef is an active player power.
type PowerDef struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	ManaCost   int32   `yaml:"mana_cost"`
	CooldownMs int32   `yaml:"cooldown_ms"`
	Multiplier float64 `yaml:"multiplier"`
	LevelReq   int32   `yaml:"level_req"`
}

// EnemyAbilityDef is a special attack an enemy can use instead of a basic
// swing. Weight drives the intent pick among ready abilities.
type EnemyAbilityDef struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	CooldownMs int32          `yaml:"cooldown_ms"`
	Multiplier float64        `yaml:"multiplier"`
	Weight     int32          `yaml:"weight"`
	Status     *StatusPayload `yaml:"status,omitempty"`
}

// EnemyDef is one enemy template.
type EnemyDef struct {
	ID               string            `yaml:"id"`
	Name             string            `yaml:"name"`
	Level            int32             `yaml:"level"`
	MaxHP            int32             `yaml:"max_hp"`
	BaseDamage       int32             `yaml:"base_damage"`
	Defense          int32             `yaml:"defense"`
	Speed            int32             `yaml:"speed"`
	AttackIntervalMs int32             `yaml:"attack_interval_ms"`
	XP               int32             `yaml:"xp"`
	Gold             int32             `yaml:"gold"`
	Boss             bool              `yaml:"boss,omitempty"`
	Abilities        []EnemyAbilityDef `yaml:"abilities,omitempty"`
}

// Rarity is an item rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank orders rarities; unknown rarities rank below common.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	}
	return -1
}

// KnownRarity reports whether r is a valid tier.
func KnownRarity(r Rarity) bool { return r.Rank() >= 0 }

// ItemDef is one droppable item.
type ItemDef struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Rarity Rarity `yaml:"rarity"`
}
