package data

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
)

//go:embed defs/*.yaml
var defaultFS embed.FS

// Set holds every loaded definition, indexed by id. A Set is immutable
// after loading; the simulation only reads from it.
type Set struct {
	Paths   map[string]*PathDef
	Stances map[string]*StanceDef
	Powers  map[string]*PowerDef
	Enemies map[string]*EnemyDef
	Items   map[string]*ItemDef

	// Items grouped by rarity rank, each group sorted by id so random
	// picks are reproducible under a seeded rng.
	itemsByRank [5][]*ItemDef
}

// document is the YAML shape of a definition file. A file may carry any
// subset of the sections.
type document struct {
	Paths   []PathDef   `yaml:"paths"`
	Stances []StanceDef `yaml:"stances"`
	Powers  []PowerDef  `yaml:"powers"`
	Enemies []EnemyDef  `yaml:"enemies"`
	Items   []ItemDef   `yaml:"items"`
}

func newSet() *Set {
	return &Set{
		Paths:   make(map[string]*PathDef),
		Stances: make(map[string]*StanceDef),
		Powers:  make(map[string]*PowerDef),
		Enemies: make(map[string]*EnemyDef),
		Items:   make(map[string]*ItemDef),
	}
}

// Default loads the embedded definition files shipped with the engine.
func Default() (*Set, error) {
	set := newSet()
	entries, err := fs.ReadDir(defaultFS, "defs")
	if err != nil {
		return nil, fmt.Errorf("reading embedded defs: %w", err)
	}
	for _, e := range entries {
		raw, err := defaultFS.ReadFile("defs/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w", e.Name(), err)
		}
		if err := set.parse(e.Name(), raw); err != nil {
			return nil, err
		}
	}
	set.finish()
	return set, nil
}

// LoadDir loads every *.yaml/*.yml file in dir.
func LoadDir(dir string) (*Set, error) {
	set := newSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		if err := set.parse(e.Name(), raw); err != nil {
			return nil, err
		}
	}
	set.finish()
	return set, nil
}

// Parse loads definitions from a single in-memory YAML document.
func Parse(raw []byte) (*Set, error) {
	set := newSet()
	if err := set.parse("inline", raw); err != nil {
		return nil, err
	}
	set.finish()
	return set, nil
}

func (s *Set) parse(name string, raw []byte) error {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	for i := range doc.Paths {
		p := doc.Paths[i]
		s.Paths[p.ID] = &p
	}
	for i := range doc.Stances {
		st := doc.Stances[i]
		s.Stances[st.ID] = &st
	}
	for i := range doc.Powers {
		pw := doc.Powers[i]
		s.Powers[pw.ID] = &pw
	}
	for i := range doc.Enemies {
		en := doc.Enemies[i]
		s.Enemies[en.ID] = &en
	}
	for i := range doc.Items {
		it := doc.Items[i]
		s.Items[it.ID] = &it
	}
	return nil
}

// finish validates identifiers and builds the rarity index.
func (s *Set) finish() {
	s.validate()

	for _, it := range s.Items {
		if rank := it.Rarity.Rank(); rank >= 0 {
			s.itemsByRank[rank] = append(s.itemsByRank[rank], it)
		}
	}
	for rank := range s.itemsByRank {
		slices.SortFunc(s.itemsByRank[rank], func(a, b *ItemDef) int {
			return strings.Compare(a.ID, b.ID)
		})
	}
}

// validate surfaces unknown identifiers as startup warnings. Entries are
// kept but stay inert at runtime (unknown triggers never match, unknown
// conditions evaluate false). One bad data entry must never crash an
// encounter, but it must not pass silently either.
func (s *Set) validate() {
	for _, p := range s.Paths {
		for ai := range p.Abilities {
			ab := &p.Abilities[ai]
			for ei := range ab.Effects {
				s.validateEffect(p.ID, ab.ID, &ab.Effects[ei])
			}
		}
	}
	for _, en := range s.Enemies {
		for _, ab := range en.Abilities {
			if ab.Status != nil && !entity.KnownStatusKind(entity.StatusKind(ab.Status.Status)) {
				slog.Warn("enemy ability references unknown status kind",
					"enemy", en.ID, "ability", ab.ID, "status", ab.Status.Status)
			}
		}
	}
	for _, it := range s.Items {
		if !KnownRarity(it.Rarity) {
			slog.Warn("item has unknown rarity", "item", it.ID, "rarity", it.Rarity)
		}
	}
}

func (s *Set) validateEffect(pathID, abilityID string, e *EffectDef) {
	if !KnownTrigger(e.Trigger) {
		slog.Warn("effect declares unknown trigger; it will never fire",
			"path", pathID, "ability", abilityID, "trigger", e.Trigger)
	}
	if e.Condition != nil && !KnownCondition(e.Condition.Kind) {
		slog.Warn("effect declares unknown condition; it will never pass",
			"path", pathID, "ability", abilityID, "condition", e.Condition.Kind)
	}
	if e.Status != nil && !entity.KnownStatusKind(entity.StatusKind(e.Status.Status)) {
		slog.Warn("effect applies unknown status kind",
			"path", pathID, "ability", abilityID, "status", e.Status.Status)
	}
	if !s.payloadMatches(e) {
		slog.Warn("effect payload does not match its declared kind",
			"path", pathID, "ability", abilityID, "kind", e.Kind)
	}
}

// payloadMatches checks that the payload slot selected by Kind is present.
func (s *Set) payloadMatches(e *EffectDef) bool {
	switch e.Kind {
	case EffectHeal:
		return e.Heal != nil
	case EffectDamage:
		return e.Damage != nil
	case EffectMana:
		return e.Mana != nil
	case EffectModifier:
		return e.Modifier != nil
	case EffectStatus:
		return e.Status != nil
	case EffectStatMod:
		return e.StatMod != nil
	case EffectCleanse:
		return true // cleanse carries no payload
	case EffectShield:
		return e.Shield != nil
	case EffectPassiveMod:
		return e.Passive != nil
	}
	return false
}

// Path returns the path definition, or nil when unknown.
func (s *Set) Path(id string) *PathDef { return s.Paths[id] }

// Stance returns the stance definition, or nil when unknown.
func (s *Set) Stance(id string) *StanceDef { return s.Stances[id] }

// Power returns the power definition, or nil when unknown.
func (s *Set) Power(id string) *PowerDef { return s.Powers[id] }

// Enemy returns the enemy template, or nil when unknown.
func (s *Set) Enemy(id string) *EnemyDef { return s.Enemies[id] }

// Item returns the item definition, or nil when unknown.
func (s *Set) Item(id string) *ItemDef { return s.Items[id] }

// ItemsAtLeast returns all items of at least the given rarity rank, ordered
// by rarity rank then id.
func (s *Set) ItemsAtLeast(minRank int) []*ItemDef {
	if minRank < 0 {
		minRank = 0
	}
	var out []*ItemDef
	for rank := minRank; rank < len(s.itemsByRank); rank++ {
		out = append(out, s.itemsByRank[rank]...)
	}
	return out
}

// ItemsOfRank returns the items of exactly the given rarity rank.
func (s *Set) ItemsOfRank(rank int) []*ItemDef {
	if rank < 0 || rank >= len(s.itemsByRank) {
		return nil
	}
	return s.itemsByRank[rank]
}
