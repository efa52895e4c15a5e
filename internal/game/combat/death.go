package combat

import (
	"log/slog"
	"math/rand/v2"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

// Grants accumulates everything the player earned during a battle.
type Grants struct {
	XP    int32
	Gold  int32
	Items []string
}

// Settler is the death settlement system. It must run after every system
// that can reduce health within a tick, so death is detected exactly once
// per entity no matter how many sources drained it that tick.
type Settler struct {
	Store   *entity.Store
	RNG     *rand.Rand
	Combat  *config.Combat
	Rewards *config.Rewards
	Drops   *config.Drops
	Defs    *data.Set
	Log     *event.CombatLog
	Anim    *event.AnimationStream
	Outbox  *event.Outbox

	Pity       *PityState
	FloorLevel int32
	Grants     *Grants
}

// Settle scans for entities at zero health that have not yet been marked
// Dying. The query excludes Dying, which is what enforces the
// exactly-once invariant: a settled entity can never be settled again.
func (s *Settler) Settle(tick uint64) {
	ids := s.Store.Query(
		[]entity.Kind{entity.KindHealth},
		[]entity.Kind{entity.KindDying},
	)
	for _, id := range ids {
		hp, ok := entity.Lookup[*entity.Health](s.Store, id, entity.KindHealth)
		if !ok || hp.Current > 0 {
			continue
		}

		s.Store.Add(id, &entity.Dying{
			StartedTick: tick,
			DurationMs:  s.Combat.DeathAnimationMs,
		})
		s.Anim.Push(event.AnimDeath, event.AnimationPayload{Target: id}, tick, 4)

		if s.Store.Has(id, entity.KindPlayerTag) {
			s.settlePlayer(id)
			continue
		}
		if tag, ok := entity.Lookup[*entity.EnemyTag](s.Store, id, entity.KindEnemyTag); ok {
			s.settleEnemy(id, tag, tick)
		}
	}
}

func (s *Settler) settlePlayer(id entity.ID) {
	s.Log.Appendf("Hero has fallen...")
	s.Outbox.ScheduleTransition(event.PhaseDefeat, s.Combat.DeathAnimationMs)
	slog.Debug("player death settled", "entity", id)
}

func (s *Settler) settleEnemy(id entity.ID, tag *entity.EnemyTag, tick uint64) {
	playerLevel, fortune, goldFind := s.playerRewardStats()

	penalty := LevelPenalty(playerLevel, s.FloorLevel, s.Rewards)

	var xp, gold int32
	if rewards, ok := entity.Lookup[*entity.Rewards](s.Store, id, entity.KindRewards); ok {
		xp = AdjustedXP(rewards.XP, penalty, s.Rewards)
		gold = AdjustedGold(rewards.Gold, penalty, goldFind)
	}
	s.Grants.XP += xp
	s.Grants.Gold += gold
	s.Log.Appendf("%s dies. Hero gains %d XP and %d gold.", tag.Name, xp, gold)

	if item := RollDrop(s.RNG, s.Drops, s.Defs, fortune, tag.Boss, s.Pity); item != nil {
		s.Grants.Items = append(s.Grants.Items, item.ID)
		s.Anim.Push(event.AnimItemProc, event.AnimationPayload{Item: item.ID}, tick, 4)
		s.Log.Appendf("%s drops %s!", tag.Name, item.Name)
	}

	// Both follow-ups wait out the death animation.
	if tag.LastRoom {
		s.Outbox.ScheduleTransition(event.PhaseFloorComplete, s.Combat.DeathAnimationMs)
	} else {
		s.Outbox.ScheduleSpawn(s.Combat.DeathAnimationMs)
	}

	slog.Debug("enemy death settled",
		"enemy", tag.TemplateID,
		"xp", xp,
		"gold", gold,
		"pity", s.Pity.Counter)
}

// Sweep advances death animations and removes enemies whose animation has
// elapsed. The player entity persists for its death-screen UI.
func (s *Settler) Sweep(effectiveMs int32) {
	ids := s.Store.Query([]entity.Kind{entity.KindDying}, nil)
	for _, id := range ids {
		dying, ok := entity.Lookup[*entity.Dying](s.Store, id, entity.KindDying)
		if !ok {
			continue
		}
		dying.ElapsedMs += effectiveMs
		if dying.ElapsedMs < dying.DurationMs {
			continue
		}
		if s.Store.Has(id, entity.KindEnemyTag) {
			s.Store.Despawn(id)
		}
	}
}

// playerRewardStats reads the level, fortune and gold find of the (single)
// player entity.
func (s *Settler) playerRewardStats() (level, fortune int32, goldFind float64) {
	level = 1
	players := s.Store.Query([]entity.Kind{entity.KindPlayerTag}, nil)
	if len(players) == 0 {
		return level, 0, 0
	}
	id := players[0]
	if tag, ok := entity.Lookup[*entity.PlayerTag](s.Store, id, entity.KindPlayerTag); ok {
		level = tag.Level
	}
	if stats, ok := entity.Lookup[*entity.Stats](s.Store, id, entity.KindStats); ok {
		fortune = stats.Fortune
		goldFind = stats.GoldFind
	}
	return level, fortune, goldFind
}
