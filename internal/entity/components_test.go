package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthReduceClampsAtMinimum(t *testing.T) {
	hp := &Health{Current: 10, Max: 100}

	removed := hp.Reduce(25, 0)
	assert.Equal(t, int32(10), removed)
	assert.Equal(t, int32(0), hp.Current)

	assert.Equal(t, int32(0), hp.Reduce(-5, 0))
}

func TestHealthReduceHonorsMinHealth(t *testing.T) {
	hp := &Health{Current: 10, Max: 100}

	removed := hp.Reduce(25, 1)
	assert.Equal(t, int32(9), removed)
	assert.Equal(t, int32(1), hp.Current)
}

func TestHealthHealCapsAtMax(t *testing.T) {
	hp := &Health{Current: 90, Max: 100}

	restored := hp.Heal(30)
	assert.Equal(t, int32(10), restored)
	assert.Equal(t, int32(100), hp.Current)
}

func TestManaSpend(t *testing.T) {
	m := &Mana{Current: 20, Max: 50}

	assert.False(t, m.Spend(25))
	assert.Equal(t, int32(20), m.Current)

	assert.True(t, m.Spend(20))
	assert.Equal(t, int32(0), m.Current)
}

func TestStatusApplyRefreshesInPlace(t *testing.T) {
	se := &StatusEffects{}

	refreshed := se.Apply(StatusEffect{EffectKind: StatusPoison, Damage: 5, RemainingTurns: 3})
	assert.False(t, refreshed)

	refreshed = se.Apply(StatusEffect{EffectKind: StatusPoison, Damage: 3, RemainingTurns: 6})
	assert.True(t, refreshed)

	require.Len(t, se.List, 1)
	// Weaker reapplication keeps the stronger tick but still resets duration.
	assert.Equal(t, int32(5), se.List[0].Damage)
	assert.Equal(t, int32(6), se.List[0].RemainingTurns)
}

func TestStatusApplyKeepsDistinctKinds(t *testing.T) {
	se := &StatusEffects{}

	se.Apply(StatusEffect{EffectKind: StatusPoison, Damage: 5, RemainingTurns: 3})
	se.Apply(StatusEffect{EffectKind: StatusBleed, Damage: 4, RemainingTurns: 2})

	assert.Len(t, se.List, 2)
	assert.NotNil(t, se.Find(StatusPoison))
	assert.NotNil(t, se.Find(StatusBleed))
}

func TestBuffsKeyedByAbilityAndStat(t *testing.T) {
	b := &Buffs{}

	b.Apply(Buff{AbilityID: "battle_rush", Stat: StatSpeed, Multiplier: 1.3, RemainingTurns: 3})
	b.Apply(Buff{AbilityID: "battle_rush", Stat: StatPower, Multiplier: 1.1, RemainingTurns: 3})
	refreshed := b.Apply(Buff{AbilityID: "battle_rush", Stat: StatSpeed, Multiplier: 1.5, RemainingTurns: 5})

	assert.True(t, refreshed)
	require.Len(t, b.List, 2)
	assert.InDelta(t, 1.5, b.Multiplier(StatSpeed), 1e-9)
	assert.InDelta(t, 1.1, b.Multiplier(StatPower), 1e-9)
}

func TestDebuffReductionCapped(t *testing.T) {
	d := &Debuffs{}

	d.Apply(Debuff{ID: "a", Stat: StatPower, Percent: 0.6})
	d.Apply(Debuff{ID: "b", Stat: StatPower, Percent: 0.6})

	assert.InDelta(t, 0.9, d.Reduction(StatPower), 1e-9)
}

func TestShieldGrantStacksValueMaxesDuration(t *testing.T) {
	s := &Shield{}

	s.Grant(20, 5000)
	s.Grant(10, 3000)

	assert.Equal(t, int32(30), s.Value)
	assert.Equal(t, int32(5000), s.RemainingMs)
}

func TestShieldAbsorbBreaks(t *testing.T) {
	s := &Shield{}
	s.Grant(15, 4000)

	absorbed, broken := s.Absorb(10)
	assert.Equal(t, int32(10), absorbed)
	assert.False(t, broken)

	absorbed, broken = s.Absorb(10)
	assert.Equal(t, int32(5), absorbed)
	assert.True(t, broken)
	assert.Equal(t, int32(0), s.RemainingMs)

	absorbed, broken = s.Absorb(10)
	assert.Equal(t, int32(0), absorbed)
	assert.False(t, broken)
}

func TestPathStateCooldowns(t *testing.T) {
	p := &PathState{}

	assert.False(t, p.OnCooldown("bloodletting"))
	p.SetCooldown("bloodletting", 2000)
	assert.True(t, p.OnCooldown("bloodletting"))
}

func TestCountersInc(t *testing.T) {
	c := &Counters{}

	assert.Equal(t, int32(1), c.Inc("attacks"))
	assert.Equal(t, int32(2), c.Inc("attacks"))
	assert.Equal(t, int32(1), c.Inc("powers"))
}

func TestCooldownsReady(t *testing.T) {
	c := &Cooldowns{}

	assert.True(t, c.Ready("bone_rattle"))
	c.Start("bone_rattle", 6000)
	assert.False(t, c.Ready("bone_rattle"))
}
