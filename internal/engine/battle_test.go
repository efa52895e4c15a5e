package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

// testDefs describes a slow training dummy and simple powers, so a test
// controls every hit explicitly.
const testDefs = `
enemies:
  - id: dummy
    name: Training Dummy
    level: 5
    max_hp: 60
    base_damage: 5
    defense: 0
    speed: 10
    attack_interval_ms: 100000
    xp: 20
    gold: 10
powers:
  - {id: jab, name: Jab, mana_cost: 5, cooldown_ms: 0, multiplier: 1.0, level_req: 1}
  - {id: hook, name: Hook, mana_cost: 5, cooldown_ms: 0, multiplier: 1.0, level_req: 1}
  - {id: slam, name: Slam, mana_cost: 5, cooldown_ms: 2000, multiplier: 1.0, level_req: 1}
  - {id: nova, name: Nova, mana_cost: 5, cooldown_ms: 0, multiplier: 2.0, level_req: 10}
stances:
  - id: calm
    name: Calm Stance
    switch_cooldown_ms: 3000
    modifiers: []
  - id: fury
    name: Fury Stance
    switch_cooldown_ms: 3000
    modifiers:
      - {key: damage_percent, percent: 0.5}
`

func testConfig() config.Engine {
	cfg := config.DefaultEngine()
	cfg.Combat.VarianceMin = 1.0
	cfg.Combat.VarianceMax = 1.0
	cfg.Combat.CritChanceBase = 0
	cfg.Combat.CritChancePerFortune = 0
	cfg.Combat.DodgeChancePerFortune = 0
	cfg.Drops.BaseChance = 0
	cfg.Drops.CapChance = 0
	return cfg
}

func testPlayer() PlayerSetup {
	return PlayerSetup{
		Level:            5,
		MaxHP:            100,
		MaxMana:          50,
		BaseDamage:       10,
		Defense:          0,
		Speed:            10,
		AttackIntervalMs: 100000,
		StanceID:         "calm",
	}
}

func newTestBattle(t *testing.T) *Battle {
	t.Helper()
	defs, err := data.Parse([]byte(testDefs))
	require.NoError(t, err)

	b := New(testConfig(), defs, 42)
	b.SpawnPlayer(testPlayer())
	return b
}

func startDummy(t *testing.T, b *Battle, lastRoom bool) entity.ID {
	t.Helper()
	id, err := b.StartEncounter("dummy", 5, lastRoom)
	require.NoError(t, err)
	return id
}

func enemyHP(t *testing.T, b *Battle, id entity.ID) int32 {
	t.Helper()
	hp, ok := entity.Lookup[*entity.Health](b.Store(), id, entity.KindHealth)
	require.True(t, ok)
	return hp.Current
}

func playerMana(t *testing.T, b *Battle) int32 {
	t.Helper()
	mana, ok := entity.Lookup[*entity.Mana](b.Store(), b.Player(), entity.KindMana)
	require.True(t, ok)
	return mana.Current
}

func TestStartEncounterErrors(t *testing.T) {
	b := newTestBattle(t)

	_, err := b.StartEncounter("gremlin", 1, false)
	assert.Error(t, err)

	startDummy(t, b, false)
	_, err = b.StartEncounter("dummy", 1, false)
	assert.Error(t, err)
}

func TestUsePowerDealsDamageAndSpendsMana(t *testing.T) {
	b := newTestBattle(t)
	enemy := startDummy(t, b, false)

	require.Equal(t, ReasonOK, b.UsePower("jab"))

	assert.Equal(t, int32(50), enemyHP(t, b, enemy))
	assert.Equal(t, int32(45), playerMana(t, b))
}

func TestUsePowerRejectionsMutateNothing(t *testing.T) {
	b := newTestBattle(t)

	assert.Equal(t, ReasonNotInCombat, b.UsePower("jab"))

	enemy := startDummy(t, b, false)

	assert.Equal(t, ReasonUnknownPower, b.UsePower("uppercut"))
	assert.Equal(t, ReasonLevelTooLow, b.UsePower("nova"))
	assert.Equal(t, int32(50), playerMana(t, b))
	assert.Equal(t, int32(60), enemyHP(t, b, enemy))

	mana, _ := entity.Lookup[*entity.Mana](b.Store(), b.Player(), entity.KindMana)
	mana.Current = 2
	assert.Equal(t, ReasonNoMana, b.UsePower("jab"))
	assert.Equal(t, int32(2), mana.Current)
	mana.Current = 50

	se := &entity.StatusEffects{}
	se.Apply(entity.StatusEffect{EffectKind: entity.StatusStun, RemainingTurns: 2})
	b.Store().Add(b.Player(), se)
	assert.Equal(t, ReasonStunned, b.UsePower("jab"))
	se.Clear()

	assert.Equal(t, int32(60), enemyHP(t, b, enemy))
}

func TestUsePowerCooldown(t *testing.T) {
	b := newTestBattle(t)
	startDummy(t, b, false)

	require.Equal(t, ReasonOK, b.UsePower("slam"))
	assert.Equal(t, ReasonOnCooldown, b.UsePower("slam"))

	b.Tick(2000)
	assert.Equal(t, ReasonOK, b.UsePower("slam"))
}

func TestComboAlternationAndReset(t *testing.T) {
	b := newTestBattle(t)
	enemy := startDummy(t, b, false)

	// First cast never carries a combo bonus.
	require.Equal(t, ReasonOK, b.UsePower("jab"))
	assert.Equal(t, int32(50), enemyHP(t, b, enemy))

	// Alternating builds the counter: x1.1, then x1.2.
	require.Equal(t, ReasonOK, b.UsePower("hook"))
	assert.Equal(t, int32(39), enemyHP(t, b, enemy))
	require.Equal(t, ReasonOK, b.UsePower("jab"))
	assert.Equal(t, int32(27), enemyHP(t, b, enemy))

	// Repeating the same power drops back to x1.0.
	require.Equal(t, ReasonOK, b.UsePower("jab"))
	assert.Equal(t, int32(17), enemyHP(t, b, enemy))

	combo, _ := entity.Lookup[*entity.Combo](b.Store(), b.Player(), entity.KindCombo)
	assert.Equal(t, int32(0), combo.Count)
}

func TestEnemyDeathSettledExactlyOnce(t *testing.T) {
	b := newTestBattle(t)
	enemy := startDummy(t, b, false)

	hp, _ := entity.Lookup[*entity.Health](b.Store(), enemy, entity.KindHealth)
	hp.Current = 0

	b.Tick(600)

	grants := b.Grants()
	assert.Equal(t, int32(20), grants.XP)
	assert.Equal(t, int32(10), grants.Gold)

	// The death animation elapsed within the same tick; the corpse is gone
	// and a follow-up spawn is scheduled.
	_, alive := b.Enemy()
	assert.False(t, alive)
	assert.Len(t, b.Outbox().DrainSpawns(), 1)

	// Further ticks must not settle or grant again.
	b.Tick(600)
	b.Tick(600)
	assert.Equal(t, grants, b.Grants())
	assert.Empty(t, b.Outbox().DrainSpawns())
}

func TestLastRoomKillSchedulesFloorComplete(t *testing.T) {
	b := newTestBattle(t)
	enemy := startDummy(t, b, true)

	hp, _ := entity.Lookup[*entity.Health](b.Store(), enemy, entity.KindHealth)
	hp.Current = 0
	b.Tick(100)

	trs := b.Outbox().DrainTransitions()
	require.Len(t, trs, 1)
	assert.Equal(t, event.PhaseFloorComplete, trs[0].ToPhase)
	assert.Empty(t, b.Outbox().DrainSpawns())
}

func TestPlayerDeathSchedulesDefeat(t *testing.T) {
	b := newTestBattle(t)
	startDummy(t, b, false)

	hp, _ := entity.Lookup[*entity.Health](b.Store(), b.Player(), entity.KindHealth)
	hp.Current = 0
	b.Tick(1000)

	trs := b.Outbox().DrainTransitions()
	require.Len(t, trs, 1)
	assert.Equal(t, event.PhaseDefeat, trs[0].ToPhase)

	// The player entity persists through its death animation.
	assert.True(t, b.Store().Alive(b.Player()))
	assert.False(t, b.PlayerAlive())
}

func TestManaRegenAtTurnBoundary(t *testing.T) {
	b := newTestBattle(t)
	startDummy(t, b, false)

	mana, _ := entity.Lookup[*entity.Mana](b.Store(), b.Player(), entity.KindMana)
	mana.Current = 40

	b.Tick(999)
	assert.Equal(t, int32(40), mana.Current)

	b.Tick(1)
	assert.Equal(t, int32(43), mana.Current)
}

func TestSpeedMultiplierCompressesTurns(t *testing.T) {
	defs, err := data.Parse([]byte(testDefs))
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Combat.SpeedMultiplier = 4.0
	b := New(cfg, defs, 42)
	b.SpawnPlayer(testPlayer())
	startDummy(t, b, false)

	mana, _ := entity.Lookup[*entity.Mana](b.Store(), b.Player(), entity.KindMana)
	mana.Current = 20

	// 250ms of wall time is one full turn at x4.
	b.Tick(250)
	assert.Equal(t, int32(23), mana.Current)
}

func TestSwitchStance(t *testing.T) {
	b := newTestBattle(t)
	enemy := startDummy(t, b, false)

	assert.Equal(t, ReasonUnknownStance, b.SwitchStance("berserk"))

	require.Equal(t, ReasonOK, b.SwitchStance("fury"))
	assert.Equal(t, ReasonOnCooldown, b.SwitchStance("calm"))

	// The snapshot recomputes on the next tick; fury adds 50% damage.
	b.Tick(10)
	require.Equal(t, ReasonOK, b.UsePower("jab"))
	assert.Equal(t, int32(45), enemyHP(t, b, enemy))

	b.Tick(3000)
	assert.Equal(t, ReasonOK, b.SwitchStance("calm"))
}

func TestToggleBlock(t *testing.T) {
	b := newTestBattle(t)

	assert.True(t, b.ToggleBlock())
	assert.True(t, b.Store().Has(b.Player(), entity.KindBlocking))
	assert.False(t, b.ToggleBlock())
	assert.False(t, b.Store().Has(b.Player(), entity.KindBlocking))
}

func TestEndEncounterResetsCombatState(t *testing.T) {
	b := newTestBattle(t)
	startDummy(t, b, false)

	require.Equal(t, ReasonOK, b.UsePower("jab"))
	require.Equal(t, ReasonOK, b.UsePower("hook"))
	b.ToggleBlock()
	shield := &entity.Shield{}
	shield.Grant(10, 5000)
	b.Store().Add(b.Player(), shield)

	b.EndEncounter()

	assert.False(t, b.InCombat())
	_, alive := b.Enemy()
	assert.False(t, alive)
	assert.False(t, b.Store().Has(b.Player(), entity.KindBlocking))
	assert.False(t, b.Store().Has(b.Player(), entity.KindShield))

	combo, _ := entity.Lookup[*entity.Combo](b.Store(), b.Player(), entity.KindCombo)
	assert.Equal(t, int32(0), combo.Count)
	assert.Equal(t, "", combo.LastPowerID)
}

// Identical seeds and identical inputs must replay the same battle.
func TestSameSeedSameScript(t *testing.T) {
	defs, err := data.Parse([]byte(testDefs))
	require.NoError(t, err)

	run := func() []string {
		cfg := config.DefaultEngine()
		cfg.Drops.BaseChance = 0
		cfg.Drops.CapChance = 0
		b := New(cfg, defs, 1234)
		setup := testPlayer()
		setup.AttackIntervalMs = 1500
		b.SpawnPlayer(setup)
		_, err := b.StartEncounter("dummy", 5, false)
		require.NoError(t, err)

		powers := []string{"jab", "hook"}
		for i := range 60 {
			if i%7 == 0 {
				b.UsePower(powers[(i/7)%2])
			}
			b.Tick(100)
		}
		return b.Log().Lines()
	}

	assert.Equal(t, run(), run())
}
