// Package engine owns the Battle aggregate: the entity store, the per-tick
// scheduler, intent validation, and encounter lifecycle.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/combat"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/passive"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/status"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/trigger"
)

// PlayerSetup describes the player entity entering a battle.
type PlayerSetup struct {
	Level            int32
	MaxHP            int32
	MaxMana          int32
	BaseDamage       int32
	Defense          int32
	Speed            int32
	Fortune          int32
	GoldFind         float64
	AttackIntervalMs int32
	PathID           string
	Unlocked         []string
	StanceID         string
}

// Battle is one running simulation: a single player, at most one active
// enemy, and the systems that advance them. A Battle is single-goroutine;
// callers drive it by calling Tick.
type Battle struct {
	cfg  config.Engine
	defs *data.Set
	rng  *rand.Rand

	store  *entity.Store
	player entity.ID

	tick        uint64
	turnAccumMs float64
	inCombat    bool
	floorLevel  int32

	triggers event.Buffer
	anim     event.AnimationStream
	log      event.CombatLog
	outbox   event.Outbox

	resolver  *combat.Resolver
	statusEng *status.Engine
	processor *trigger.Processor
	passives  *passive.Computer
	settler   *combat.Settler
	pity      combat.PityState
	grants    combat.Grants
}

// New creates a battle with an explicitly seeded rng so runs are
// reproducible in-process.
func New(cfg config.Engine, defs *data.Set, seed uint64) *Battle {
	b := &Battle{
		cfg:   cfg,
		defs:  defs,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		store: entity.NewStore(),
	}

	b.resolver = &combat.Resolver{
		Store:    b.store,
		RNG:      b.rng,
		Cfg:      &b.cfg.Combat,
		Log:      &b.log,
		Anim:     &b.anim,
		Triggers: &b.triggers,
	}
	b.statusEng = &status.Engine{Store: b.store, Log: &b.log, Anim: &b.anim}
	b.passives = &passive.Computer{Store: b.store, Defs: defs}
	b.processor = &trigger.Processor{
		Store:  b.store,
		RNG:    b.rng,
		Cfg:    &b.cfg.Combat,
		Defs:   defs,
		Status: b.statusEng,
		Log:    &b.log,
		Anim:   &b.anim,
	}
	b.settler = &combat.Settler{
		Store:   b.store,
		RNG:     b.rng,
		Combat:  &b.cfg.Combat,
		Rewards: &b.cfg.Rewards,
		Drops:   &b.cfg.Drops,
		Defs:    defs,
		Log:     &b.log,
		Anim:    &b.anim,
		Outbox:  &b.outbox,
		Pity:    &b.pity,
		Grants:  &b.grants,
	}
	return b
}

// SpawnPlayer creates the player entity. It must be called once before the
// first encounter.
func (b *Battle) SpawnPlayer(setup PlayerSetup) entity.ID {
	id := b.store.Spawn()
	b.store.Add(id, &entity.PlayerTag{Level: setup.Level})
	b.store.Add(id, &entity.Health{Current: setup.MaxHP, Max: setup.MaxHP})
	b.store.Add(id, &entity.Mana{Current: setup.MaxMana, Max: setup.MaxMana})
	b.store.Add(id, &entity.Attack{BaseDamage: setup.BaseDamage})
	b.store.Add(id, &entity.Defense{Value: setup.Defense})
	b.store.Add(id, &entity.Stats{Speed: setup.Speed, Fortune: setup.Fortune, GoldFind: setup.GoldFind})
	b.store.Add(id, &entity.Combo{})
	b.store.Add(id, &entity.Counters{})
	b.store.Add(id, &entity.Cooldowns{})
	b.store.Add(id, &entity.AttackTimer{IntervalMs: setup.AttackIntervalMs})

	unlocked := make(map[string]bool, len(setup.Unlocked))
	for _, abilityID := range setup.Unlocked {
		unlocked[abilityID] = true
	}
	b.store.Add(id, &entity.PathState{PathID: setup.PathID, Unlocked: unlocked})
	b.store.Add(id, &entity.StanceState{ActiveStanceID: setup.StanceID})

	b.player = id
	b.passives.MarkDirty(id)
	return id
}

// StartEncounter spawns the enemy template and opens combat. floorLevel
// feeds the reward level penalty; lastRoom decides whether the enemy's
// death completes the floor or requests the next spawn.
func (b *Battle) StartEncounter(enemyID string, floorLevel int32, lastRoom bool) (entity.ID, error) {
	def := b.defs.Enemy(enemyID)
	if def == nil {
		return 0, fmt.Errorf("unknown enemy template %q", enemyID)
	}
	if _, ok := trigger.ActiveEnemy(b.store); ok {
		return 0, fmt.Errorf("encounter already active")
	}

	id := b.store.Spawn()
	b.store.Add(id, &entity.EnemyTag{
		TemplateID: def.ID,
		Name:       def.Name,
		Level:      def.Level,
		Boss:       def.Boss,
		LastRoom:   lastRoom,
	})
	b.store.Add(id, &entity.Health{Current: def.MaxHP, Max: def.MaxHP})
	b.store.Add(id, &entity.Attack{BaseDamage: def.BaseDamage})
	b.store.Add(id, &entity.Defense{Value: def.Defense})
	b.store.Add(id, &entity.Stats{Speed: def.Speed})
	b.store.Add(id, &entity.Rewards{XP: def.XP, Gold: def.Gold})
	b.store.Add(id, &entity.Cooldowns{})
	b.store.Add(id, &entity.AttackTimer{IntervalMs: def.AttackIntervalMs})

	b.floorLevel = floorLevel
	b.settler.FloorLevel = floorLevel
	b.inCombat = true

	b.log.Appendf("%s appears!", def.Name)
	b.triggers.Record(event.TriggerEvent{Trigger: data.TriggerCombatStart, Actor: b.player})

	slog.Debug("encounter started", "enemy", def.ID, "floor", floorLevel, "lastRoom", lastRoom)
	return id, nil
}

// EndEncounter leaves combat: pending trigger events are dropped and all
// per-combat resource state resets. This is the only cancellation point;
// it never runs mid-tick.
func (b *Battle) EndEncounter() {
	b.inCombat = false
	b.triggers.Clear()

	if enemy, ok := trigger.ActiveEnemy(b.store); ok {
		b.store.Despawn(enemy)
	}

	id := b.player
	b.store.Remove(id, entity.KindBlocking)
	b.store.Remove(id, entity.KindShield)
	if combo, ok := entity.Lookup[*entity.Combo](b.store, id, entity.KindCombo); ok {
		combo.Count = 0
		combo.LastPowerID = ""
	}
	if cds, ok := entity.Lookup[*entity.Cooldowns](b.store, id, entity.KindCooldowns); ok {
		cds.ByAbility = nil
	}
	if path, ok := entity.Lookup[*entity.PathState](b.store, id, entity.KindPathState); ok {
		path.CooldownsMs = nil
	}
	if buffs, ok := entity.Lookup[*entity.Buffs](b.store, id, entity.KindBuffs); ok {
		buffs.List = buffs.List[:0]
	}
	if se, ok := entity.Lookup[*entity.StatusEffects](b.store, id, entity.KindStatusEffects); ok {
		se.Clear()
	}
	if counters, ok := entity.Lookup[*entity.Counters](b.store, id, entity.KindCounters); ok {
		counters.Values = nil
	}
	b.passives.MarkDirty(id)
}

// Store exposes the entity store, mainly for tests and the simulator.
func (b *Battle) Store() *entity.Store { return b.store }

// Player returns the player entity id.
func (b *Battle) Player() entity.ID { return b.player }

// Enemy returns the live active enemy, if any.
func (b *Battle) Enemy() (entity.ID, bool) { return trigger.ActiveEnemy(b.store) }

// CurrentTick returns the number of completed ticks.
func (b *Battle) CurrentTick() uint64 { return b.tick }

// InCombat reports whether an encounter is running.
func (b *Battle) InCombat() bool { return b.inCombat }

// Log returns the combat log stream.
func (b *Battle) Log() *event.CombatLog { return &b.log }

// Animations returns the animation event stream.
func (b *Battle) Animations() *event.AnimationStream { return &b.anim }

// Outbox returns the scheduled transition/spawn outbox.
func (b *Battle) Outbox() *event.Outbox { return &b.outbox }

// Grants returns the rewards accumulated so far.
func (b *Battle) Grants() combat.Grants { return b.grants }

// Pity returns the current pity counter.
func (b *Battle) Pity() int32 { return b.pity.Counter }

// PlayerAlive reports whether the player's health is above zero.
func (b *Battle) PlayerAlive() bool {
	hp, ok := entity.Lookup[*entity.Health](b.store, b.player, entity.KindHealth)
	return ok && hp.Current > 0
}
