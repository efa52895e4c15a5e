package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAssignsSequentialIDs(t *testing.T) {
	s := NewStore()

	a := s.Spawn()
	b := s.Spawn()

	assert.Equal(t, ID(1), a)
	assert.Equal(t, ID(2), b)
	assert.True(t, s.Alive(a))
	assert.True(t, s.Alive(b))
}

func TestDespawnDoesNotReuseIDs(t *testing.T) {
	s := NewStore()

	a := s.Spawn()
	s.Despawn(a)

	b := s.Spawn()
	assert.Equal(t, ID(2), b)
	assert.False(t, s.Alive(a))
}

func TestAddToUnknownEntityIsNoop(t *testing.T) {
	s := NewStore()

	s.Add(ID(99), &Health{Current: 10, Max: 10})

	_, ok := s.Get(ID(99), KindHealth)
	assert.False(t, ok)
}

func TestAddReplacesSameKind(t *testing.T) {
	s := NewStore()
	id := s.Spawn()

	s.Add(id, &Health{Current: 10, Max: 10})
	s.Add(id, &Health{Current: 50, Max: 50})

	hp, ok := Lookup[*Health](s, id, KindHealth)
	require.True(t, ok)
	assert.Equal(t, int32(50), hp.Max)
}

func TestQueryFiltersAndSorts(t *testing.T) {
	s := NewStore()

	a := s.Spawn()
	s.Add(a, &Health{Current: 1, Max: 1})

	b := s.Spawn()
	s.Add(b, &Health{Current: 1, Max: 1})
	s.Add(b, &Dying{})

	c := s.Spawn()
	s.Add(c, &Health{Current: 1, Max: 1})

	ids := s.Query([]Kind{KindHealth}, []Kind{KindDying})
	assert.Equal(t, []ID{a, c}, ids)
}

func TestLookupTypeMismatch(t *testing.T) {
	s := NewStore()
	id := s.Spawn()
	s.Add(id, &Health{Current: 5, Max: 5})

	_, ok := Lookup[*Mana](s, id, KindHealth)
	assert.False(t, ok)
}
