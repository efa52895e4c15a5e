package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
)

func condStore() (*entity.Store, entity.ID) {
	store := entity.NewStore()
	id := store.Spawn()
	store.Add(id, &entity.Health{Current: 30, Max: 100})
	store.Add(id, &entity.Mana{Current: 10, Max: 50})
	return store, id
}

func TestEvalConditionNilHolds(t *testing.T) {
	store, id := condStore()
	assert.True(t, EvalCondition(store, id, nil))
}

func TestEvalConditionHPThresholds(t *testing.T) {
	store, id := condStore()

	assert.True(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondHPBelow, Value: 0.5}))
	assert.False(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondHPBelow, Value: 0.3}))
	assert.True(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondHPAbove, Value: 0.2}))
	assert.False(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondHPAbove, Value: 0.3}))
}

func TestEvalConditionManaThresholds(t *testing.T) {
	store, id := condStore()

	assert.True(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondManaBelow, Value: 0.5}))
	assert.False(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.CondManaAbove, Value: 0.5}))
}

func TestEvalConditionEnemyHPBelow(t *testing.T) {
	store, id := condStore()

	cond := &data.ConditionDef{Kind: data.CondEnemyHPBelow, Value: 0.5}
	// No active enemy: condition cannot hold.
	assert.False(t, EvalCondition(store, id, cond))

	enemy := store.Spawn()
	store.Add(enemy, &entity.EnemyTag{TemplateID: "cave_rat", Name: "Cave Rat"})
	store.Add(enemy, &entity.Health{Current: 20, Max: 100})
	assert.True(t, EvalCondition(store, id, cond))
}

func TestEvalConditionComboAtLeast(t *testing.T) {
	store, id := condStore()

	cond := &data.ConditionDef{Kind: data.CondComboAtLeast, Value: 3}
	assert.False(t, EvalCondition(store, id, cond))

	store.Add(id, &entity.Combo{Count: 3})
	assert.True(t, EvalCondition(store, id, cond))
}

func TestEvalConditionAttackCountFiresEveryNth(t *testing.T) {
	store, id := condStore()
	counters := &entity.Counters{}
	store.Add(id, counters)

	cond := &data.ConditionDef{Kind: data.CondAttackCount, Value: 3}

	var fired []int32
	for i := int32(1); i <= 7; i++ {
		counters.Inc("attacks")
		if EvalCondition(store, id, cond) {
			fired = append(fired, i)
		}
	}
	assert.Equal(t, []int32{3, 6}, fired)
}

func TestEvalConditionEnemyHasStatus(t *testing.T) {
	store, id := condStore()
	enemy := store.Spawn()
	store.Add(enemy, &entity.EnemyTag{TemplateID: "cave_rat", Name: "Cave Rat"})
	store.Add(enemy, &entity.Health{Current: 50, Max: 50})

	cond := &data.ConditionDef{Kind: data.CondEnemyHasStatus, Status: "poison"}
	assert.False(t, EvalCondition(store, id, cond))

	se := &entity.StatusEffects{}
	se.Apply(entity.StatusEffect{EffectKind: entity.StatusPoison, Damage: 2, RemainingTurns: 3})
	store.Add(enemy, se)
	assert.True(t, EvalCondition(store, id, cond))
}

func TestEvalConditionUnknownKindFails(t *testing.T) {
	store, id := condStore()
	assert.False(t, EvalCondition(store, id, &data.ConditionDef{Kind: data.ConditionKind("moon_phase")}))
}

func TestActiveEnemySkipsDying(t *testing.T) {
	store, _ := condStore()
	enemy := store.Spawn()
	store.Add(enemy, &entity.EnemyTag{TemplateID: "cave_rat", Name: "Cave Rat"})
	store.Add(enemy, &entity.Health{Current: 0, Max: 50})
	store.Add(enemy, &entity.Dying{})

	_, ok := ActiveEnemy(store)
	assert.False(t, ok)
}
