package combat

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

// deterministicCombat strips every random element out of the pipeline so a
// test can assert exact numbers.
func deterministicCombat() config.Combat {
	cfg := config.DefaultEngine().Combat
	cfg.VarianceMin = 1.0
	cfg.VarianceMax = 1.0
	cfg.CritChanceBase = 0
	cfg.CritChancePerFortune = 0
	cfg.DodgeChancePerFortune = 0
	return cfg
}

type resolverFixture struct {
	store    *entity.Store
	resolver *Resolver
	triggers *event.Buffer
	attacker entity.ID
	defender entity.ID
}

func newResolverFixture(t *testing.T, cfg config.Combat) *resolverFixture {
	t.Helper()

	store := entity.NewStore()

	attacker := store.Spawn()
	store.Add(attacker, &entity.Health{Current: 100, Max: 100})

	defender := store.Spawn()
	store.Add(defender, &entity.Health{Current: 100, Max: 100})

	triggers := &event.Buffer{}
	return &resolverFixture{
		store:    store,
		triggers: triggers,
		attacker: attacker,
		defender: defender,
		resolver: &Resolver{
			Store:    store,
			RNG:      rand.New(rand.NewPCG(7, 7)),
			Cfg:      &cfg,
			Log:      &event.CombatLog{},
			Anim:     &event.AnimationStream{},
			Triggers: triggers,
		},
	}
}

func (f *resolverFixture) defenderHP(t *testing.T) int32 {
	t.Helper()
	hp, ok := entity.Lookup[*entity.Health](f.store, f.defender, entity.KindHealth)
	require.True(t, ok)
	return hp.Current
}

func TestResolveAppliesHalfDefense(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.defender, &entity.Defense{Value: 10})

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 20}, 1)

	assert.Equal(t, int32(15), res.Damage)
	assert.Equal(t, int32(85), f.defenderHP(t))
}

func TestResolveFloorsAtOneDamage(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.defender, &entity.Defense{Value: 1000})

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 3}, 1)

	assert.Equal(t, int32(1), res.Damage)
}

func TestResolveShieldAbsorbsBeforeHealth(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	shield := &entity.Shield{}
	shield.Grant(10, 5000)
	f.store.Add(f.defender, shield)

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 15}, 1)

	assert.Equal(t, int32(10), res.Absorbed)
	assert.Equal(t, int32(5), res.Damage)
	assert.True(t, res.ShieldBroken)
	assert.Equal(t, int32(95), f.defenderHP(t))
}

func TestResolveShieldedDefenseCountsHigher(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.defender, &entity.Defense{Value: 20})
	shield := &entity.Shield{}
	shield.Grant(100, 5000)
	f.store.Add(f.defender, shield)

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 40}, 1)

	// Defense 20 counts as 30 while shielded: 40 - 30/2 = 25, all absorbed.
	assert.Equal(t, int32(25), res.Absorbed)
	assert.Equal(t, int32(0), res.Damage)
	assert.Equal(t, int32(100), f.defenderHP(t))
}

func TestResolveBlockHalvesDamage(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.defender, &entity.Blocking{})

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 20}, 1)

	assert.True(t, res.Blocked)
	assert.Equal(t, int32(10), res.Damage)
}

func TestResolveGuaranteedDodge(t *testing.T) {
	cfg := deterministicCombat()
	cfg.DodgeChancePerFortune = 1.0
	cfg.DodgeChanceCap = 1.0
	f := newResolverFixture(t, cfg)
	f.store.Add(f.defender, &entity.Stats{Fortune: 1})

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 20}, 1)

	assert.True(t, res.Dodged)
	assert.Equal(t, int32(0), res.Damage)
	assert.Equal(t, int32(100), f.defenderHP(t))
}

func TestResolveGuaranteedCrit(t *testing.T) {
	cfg := deterministicCombat()
	cfg.CritChanceBase = 1.0
	cfg.CritChanceCap = 1.0
	f := newResolverFixture(t, cfg)

	res := f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 20}, 1)

	assert.True(t, res.Crit)
	assert.Equal(t, int32(30), res.Damage)
}

func TestResolveSelfCostBypassesShieldAndCannotKill(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	shield := &entity.Shield{}
	shield.Grant(50, 5000)
	f.store.Add(f.defender, shield)

	res := f.resolver.Resolve(Hit{
		Attacker:  f.defender,
		Defender:  f.defender,
		Source:    SourceCost,
		Raw:       500,
		MinHealth: 1,
	}, 1)

	assert.Equal(t, int32(0), res.Absorbed)
	assert.Equal(t, int32(50), shield.Value)
	assert.Equal(t, int32(99), res.Damage)
	assert.Equal(t, int32(1), f.defenderHP(t))
	assert.False(t, res.KilledNow)
}

func TestResolveRecordsPlayerTriggers(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.attacker, &entity.PlayerTag{Level: 1})
	f.store.Add(f.defender, &entity.EnemyTag{TemplateID: "cave_rat", Name: "Cave Rat"})

	hp, _ := entity.Lookup[*entity.Health](f.store, f.defender, entity.KindHealth)
	hp.Current = 5

	f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceAttack, Raw: 50}, 1)

	events := f.triggers.Drain()
	var kinds []data.Trigger
	for _, ev := range events {
		kinds = append(kinds, ev.Trigger)
	}
	assert.Contains(t, kinds, data.TriggerOnHit)
	assert.Contains(t, kinds, data.TriggerOnKill)
}

func TestResolveReflectRecordsNoTriggers(t *testing.T) {
	f := newResolverFixture(t, deterministicCombat())
	f.store.Add(f.defender, &entity.PlayerTag{Level: 1})

	f.resolver.Resolve(Hit{Attacker: f.attacker, Defender: f.defender, Source: SourceReflect, Raw: 10}, 1)

	assert.Equal(t, 0, f.triggers.Len())
}
