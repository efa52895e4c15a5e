package trigger

import (
	"log/slog"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/status"
)

// EvalCondition evaluates an effect condition against current entity state.
// A nil condition always holds. Unknown condition kinds evaluate false and
// log a diagnostic: one bad data entry must never crash an encounter.
func EvalCondition(store *entity.Store, actor entity.ID, cond *data.ConditionDef) bool {
	if cond == nil {
		return true
	}

	switch cond.Kind {
	case data.CondHPBelow:
		return hpFraction(store, actor) < cond.Value
	case data.CondHPAbove:
		return hpFraction(store, actor) > cond.Value
	case data.CondManaBelow:
		return manaFraction(store, actor) < cond.Value
	case data.CondManaAbove:
		return manaFraction(store, actor) > cond.Value
	case data.CondEnemyHPBelow:
		enemy, ok := ActiveEnemy(store)
		if !ok {
			return false
		}
		return hpFraction(store, enemy) < cond.Value
	case data.CondComboAtLeast:
		combo, ok := entity.Lookup[*entity.Combo](store, actor, entity.KindCombo)
		return ok && combo.Count >= int32(cond.Value)
	case data.CondAttackCount:
		counters, ok := entity.Lookup[*entity.Counters](store, actor, entity.KindCounters)
		if !ok {
			return false
		}
		count := counters.Values["attacks"]
		// Fires on every Nth attack.
		n := int32(cond.Value)
		return n > 0 && count > 0 && count%n == 0
	case data.CondEnemyHasStatus:
		enemy, ok := ActiveEnemy(store)
		if !ok {
			return false
		}
		return status.Has(store, enemy, entity.StatusKind(cond.Status))
	}

	slog.Warn("unknown effect condition; treating as not met", "condition", cond.Kind)
	return false
}

// ActiveEnemy returns the live active enemy entity, if any.
func ActiveEnemy(store *entity.Store) (entity.ID, bool) {
	ids := store.Query(
		[]entity.Kind{entity.KindEnemyTag, entity.KindHealth},
		[]entity.Kind{entity.KindDying},
	)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

func hpFraction(store *entity.Store, id entity.ID) float64 {
	hp, ok := entity.Lookup[*entity.Health](store, id, entity.KindHealth)
	if !ok || hp.Max <= 0 {
		return 1
	}
	return float64(hp.Current) / float64(hp.Max)
}

func manaFraction(store *entity.Store, id entity.ID) float64 {
	mana, ok := entity.Lookup[*entity.Mana](store, id, entity.KindMana)
	if !ok || mana.Max <= 0 {
		return 1
	}
	return float64(mana.Current) / float64(mana.Max)
}
