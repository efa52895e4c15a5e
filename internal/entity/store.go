package entity

import "slices"

// ID identifies an entity in the store. IDs are never reused within a
// battle, so a stale ID held across a despawn simply stops resolving.
type ID uint32

// Kind discriminates component types inside an entity's bag.
type Kind uint8

const (
	KindHealth Kind = iota
	KindMana
	KindAttack
	KindDefense
	KindStats
	KindStatusEffects
	KindBuffs
	KindDebuffs
	KindShield
	KindPathState
	KindStanceState
	KindPassiveCache
	KindCombo
	KindCounters
	KindDying
	KindCooldowns
	KindRewards
	KindBlocking
	KindPlayerTag
	KindEnemyTag
	KindAttackTimer
)

// Component is implemented by every component type.
type Component interface {
	Kind() Kind
}

// Store is a sparse table of component bags keyed by entity id.
// It is the only shared mutable state of the simulation; systems access it
// exclusively through explicit read/add/remove calls.
type Store struct {
	nextID   ID
	entities map[ID]map[Kind]Component
}

// NewStore returns an empty store. The first spawned entity gets id 1.
func NewStore() *Store {
	return &Store{entities: make(map[ID]map[Kind]Component)}
}

// Spawn creates a new empty entity and returns its id.
func (s *Store) Spawn() ID {
	s.nextID++
	s.entities[s.nextID] = make(map[Kind]Component, 8)
	return s.nextID
}

// Despawn removes an entity and all its components.
// Despawning an unknown id is a no-op.
func (s *Store) Despawn(id ID) {
	delete(s.entities, id)
}

// Alive reports whether the entity exists in the store.
func (s *Store) Alive(id ID) bool {
	_, ok := s.entities[id]
	return ok
}

// Add attaches a component to an entity, replacing any existing component
// of the same kind. Adding to an unknown entity is a no-op.
func (s *Store) Add(id ID, c Component) {
	if bag, ok := s.entities[id]; ok {
		bag[c.Kind()] = c
	}
}

// Remove detaches the component of the given kind, if present.
func (s *Store) Remove(id ID, k Kind) {
	if bag, ok := s.entities[id]; ok {
		delete(bag, k)
	}
}

// Get returns the component of the given kind.
func (s *Store) Get(id ID, k Kind) (Component, bool) {
	bag, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	c, ok := bag[k]
	return c, ok
}

// Has reports whether the entity carries all the given component kinds.
func (s *Store) Has(id ID, kinds ...Kind) bool {
	bag, ok := s.entities[id]
	if !ok {
		return false
	}
	for _, k := range kinds {
		if _, ok := bag[k]; !ok {
			return false
		}
	}
	return true
}

// Query returns the ids of all entities carrying every kind in with and
// none of the kinds in without. Results are sorted ascending so iteration
// order is deterministic across runs.
func (s *Store) Query(with []Kind, without []Kind) []ID {
	var out []ID
next:
	for id, bag := range s.entities {
		for _, k := range with {
			if _, ok := bag[k]; !ok {
				continue next
			}
		}
		for _, k := range without {
			if _, ok := bag[k]; ok {
				continue next
			}
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Lookup fetches a component of the given kind with its concrete type.
// Returns the zero value and false if the entity or component is missing
// or the stored component has a different type.
func Lookup[T Component](s *Store, id ID, k Kind) (T, bool) {
	c, ok := s.Get(id, k)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
