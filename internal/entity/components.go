package entity

// StatusKind enumerates the status effect kinds the engine knows about.
type StatusKind string

const (
	StatusPoison StatusKind = "poison"
	StatusStun   StatusKind = "stun"
	StatusSlow   StatusKind = "slow"
	StatusBleed  StatusKind = "bleed"
)

// KnownStatusKind reports whether k is one of the supported status kinds.
func KnownStatusKind(k StatusKind) bool {
	switch k {
	case StatusPoison, StatusStun, StatusSlow, StatusBleed:
		return true
	}
	return false
}

// ModStat enumerates the stats buffs and debuffs can modify.
type ModStat string

const (
	StatPower   ModStat = "power"
	StatArmor   ModStat = "armor"
	StatSpeed   ModStat = "speed"
	StatFortune ModStat = "fortune"
)

// Health tracks current and maximum hit points.
// All mutators keep 0 <= Current <= Max.
type Health struct {
	Current int32
	Max     int32
}

func (*Health) Kind() Kind { return KindHealth }

// Reduce lowers Current by amount, flooring at minHealth, and returns the
// HP actually removed. Negative amounts are ignored.
func (h *Health) Reduce(amount, minHealth int32) int32 {
	if amount <= 0 {
		return 0
	}
	before := h.Current
	h.Current -= amount
	if h.Current < minHealth {
		h.Current = minHealth
	}
	return before - h.Current
}

// Heal raises Current by amount, capped at Max, and returns the HP
// actually restored.
func (h *Health) Heal(amount int32) int32 {
	if amount <= 0 {
		return 0
	}
	before := h.Current
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
	return h.Current - before
}

// Mana tracks current and maximum mana, clamped like Health.
type Mana struct {
	Current int32
	Max     int32
}

func (*Mana) Kind() Kind { return KindMana }

// Spend deducts cost if available and reports whether it was paid.
func (m *Mana) Spend(cost int32) bool {
	if cost > m.Current {
		return false
	}
	m.Current -= cost
	return true
}

// Restore raises Current by amount, capped at Max, returning the amount
// actually restored.
func (m *Mana) Restore(amount int32) int32 {
	if amount <= 0 {
		return 0
	}
	before := m.Current
	m.Current += amount
	if m.Current > m.Max {
		m.Current = m.Max
	}
	return m.Current - before
}

// Attack carries the flat damage an entity swings with.
type Attack struct {
	BaseDamage int32
}

func (*Attack) Kind() Kind { return KindAttack }

// Defense reduces incoming physical damage.
type Defense struct {
	Value int32
}

func (*Defense) Kind() Kind { return KindDefense }

// Stats carries the secondary attributes: speed feeds the attack interval,
// fortune feeds crit/dodge/proc/drop chances, gold find scales gold rewards.
type Stats struct {
	Speed    int32
	Fortune  int32
	GoldFind float64
}

func (*Stats) Kind() Kind { return KindStats }

// StatusEffect is one timed status entry on an entity.
type StatusEffect struct {
	ID             string
	EffectKind     StatusKind
	Damage         int32
	RemainingTurns int32
}

// StatusEffects is the ordered status list of an entity.
// Entries are unique by kind: reapplying refreshes in place.
type StatusEffects struct {
	List []StatusEffect
}

func (*StatusEffects) Kind() Kind { return KindStatusEffects }

// Find returns a pointer to the entry of the given kind, or nil.
func (se *StatusEffects) Find(k StatusKind) *StatusEffect {
	for i := range se.List {
		if se.List[i].EffectKind == k {
			return &se.List[i]
		}
	}
	return nil
}

// Apply adds or refreshes a status entry. An existing entry of the same
// kind keeps the higher damage and takes the new duration; it never becomes
// a second entry. Returns true when an existing entry was refreshed.
func (se *StatusEffects) Apply(s StatusEffect) bool {
	if existing := se.Find(s.EffectKind); existing != nil {
		if s.Damage > existing.Damage {
			existing.Damage = s.Damage
		}
		existing.RemainingTurns = s.RemainingTurns
		existing.ID = s.ID
		return true
	}
	se.List = append(se.List, s)
	return false
}

// Clear drops every status entry.
func (se *StatusEffects) Clear() {
	se.List = se.List[:0]
}

// Buff is a timed positive stat multiplier keyed by (AbilityID, Stat).
type Buff struct {
	AbilityID      string
	Stat           ModStat
	Multiplier     float64
	RemainingTurns int32
}

// Buffs is the buff list of an entity, unique by identity key.
type Buffs struct {
	List []Buff
}

func (*Buffs) Kind() Kind { return KindBuffs }

// Apply adds the buff or, when a buff with the same (AbilityID, Stat) key
// already exists, refreshes its multiplier and duration in place.
// Returns true when an existing entry was refreshed.
func (b *Buffs) Apply(buff Buff) bool {
	for i := range b.List {
		if b.List[i].AbilityID == buff.AbilityID && b.List[i].Stat == buff.Stat {
			b.List[i].Multiplier = buff.Multiplier
			b.List[i].RemainingTurns = buff.RemainingTurns
			return true
		}
	}
	b.List = append(b.List, buff)
	return false
}

// Multiplier folds all active buffs for the stat into one multiplier.
func (b *Buffs) Multiplier(stat ModStat) float64 {
	mult := 1.0
	for i := range b.List {
		if b.List[i].Stat == stat {
			mult *= b.List[i].Multiplier
		}
	}
	return mult
}

// Debuff is a timed percent stat reduction on an enemy, keyed by ID.
type Debuff struct {
	ID          string
	Stat        ModStat
	Percent     float64 // 0.25 = -25%
	RemainingMs int32
	SourceName  string
}

// Debuffs is the debuff list of an entity, unique by ID.
type Debuffs struct {
	List []Debuff
}

func (*Debuffs) Kind() Kind { return KindDebuffs }

// Apply adds the debuff or refreshes the entry with the same ID in place.
func (d *Debuffs) Apply(debuff Debuff) bool {
	for i := range d.List {
		if d.List[i].ID == debuff.ID {
			d.List[i].Percent = debuff.Percent
			d.List[i].RemainingMs = debuff.RemainingMs
			d.List[i].SourceName = debuff.SourceName
			return true
		}
	}
	d.List = append(d.List, debuff)
	return false
}

// Reduction folds active debuffs for the stat into a total percent
// reduction, capped at 0.9 so a stat never bottoms out entirely.
func (d *Debuffs) Reduction(stat ModStat) float64 {
	total := 0.0
	for i := range d.List {
		if d.List[i].Stat == stat {
			total += d.List[i].Percent
		}
	}
	if total > 0.9 {
		total = 0.9
	}
	return total
}

// Shield absorbs damage before health. Grants are additive in value;
// duration takes the max of existing and new.
type Shield struct {
	Value         int32
	RemainingMs   int32
	MaxDurationMs int32
}

func (*Shield) Kind() Kind { return KindShield }

// Grant adds value and extends the duration to at least durationMs.
func (s *Shield) Grant(value, durationMs int32) {
	s.Value += value
	if durationMs > s.RemainingMs {
		s.RemainingMs = durationMs
	}
	if durationMs > s.MaxDurationMs {
		s.MaxDurationMs = durationMs
	}
}

// Absorb consumes up to damage from the shield pool and returns the amount
// absorbed plus whether this absorption fully depleted a non-empty shield.
func (s *Shield) Absorb(damage int32) (absorbed int32, broken bool) {
	if s.Value <= 0 || damage <= 0 {
		return 0, false
	}
	absorbed = damage
	if absorbed > s.Value {
		absorbed = s.Value
	}
	s.Value -= absorbed
	if s.Value == 0 {
		s.RemainingMs = 0
		s.MaxDurationMs = 0
		return absorbed, true
	}
	return absorbed, false
}

// PathState tracks the player's chosen path, unlocked abilities, and
// per-ability effect cooldowns in milliseconds.
type PathState struct {
	PathID      string
	Unlocked    map[string]bool
	CooldownsMs map[string]int32
}

func (*PathState) Kind() Kind { return KindPathState }

// OnCooldown reports whether the ability's effect cooldown is running.
func (p *PathState) OnCooldown(abilityID string) bool {
	return p.CooldownsMs[abilityID] > 0
}

// SetCooldown starts the ability's cooldown.
func (p *PathState) SetCooldown(abilityID string, ms int32) {
	if p.CooldownsMs == nil {
		p.CooldownsMs = make(map[string]int32)
	}
	p.CooldownsMs[abilityID] = ms
}

// StanceState tracks the active stance and the switch cooldown.
type StanceState struct {
	ActiveStanceID     string
	SwitchCooldownMs   int32
	SwitchCooldownBase int32
}

func (*StanceState) Kind() Kind { return KindStanceState }

// PassiveCache is the derived snapshot of all passive modifiers currently
// active on an entity. It is never the source of truth: Dirty marks it for
// recomputation and ComputedTick stamps when it was last rebuilt.
type PassiveCache struct {
	Flat         map[string]float64
	Percent      map[string]float64
	Flags        map[string]bool
	ComputedTick uint64
	Dirty        bool
}

func (*PassiveCache) Kind() Kind { return KindPassiveCache }

// FlatValue returns the summed flat modifier for key, 0 when absent.
func (c *PassiveCache) FlatValue(key string) float64 { return c.Flat[key] }

// PercentValue returns the additively-combined percent modifier for key.
func (c *PassiveCache) PercentValue(key string) float64 { return c.Percent[key] }

// Flag reports whether a boolean modifier is set.
func (c *PassiveCache) Flag(key string) bool { return c.Flags[key] }

// Combo tracks the alternating-power bonus counter.
type Combo struct {
	Count       int32
	LastPowerID string
}

func (*Combo) Kind() Kind { return KindCombo }

// Counters holds named integer counters for attack-count conditions.
type Counters struct {
	Values map[string]int32
}

func (*Counters) Kind() Kind { return KindCounters }

// Inc bumps a counter and returns the new value.
func (c *Counters) Inc(key string) int32 {
	if c.Values == nil {
		c.Values = make(map[string]int32)
	}
	c.Values[key]++
	return c.Values[key]
}

// Dying marks an entity mid-death-animation. Its presence is what makes
// death settlement exactly-once: the settlement query excludes it.
type Dying struct {
	StartedTick uint64
	DurationMs  int32
	ElapsedMs   int32
}

func (*Dying) Kind() Kind { return KindDying }

// Cooldown is one running enemy-ability cooldown.
type Cooldown struct {
	RemainingMs int32
	BaseMs      int32
}

// Cooldowns tracks enemy special ability cooldowns by ability id.
type Cooldowns struct {
	ByAbility map[string]*Cooldown
}

func (*Cooldowns) Kind() Kind { return KindCooldowns }

// Ready reports whether the ability is off cooldown.
func (c *Cooldowns) Ready(abilityID string) bool {
	cd, ok := c.ByAbility[abilityID]
	return !ok || cd.RemainingMs <= 0
}

// Start puts the ability on cooldown for baseMs.
func (c *Cooldowns) Start(abilityID string, baseMs int32) {
	if c.ByAbility == nil {
		c.ByAbility = make(map[string]*Cooldown)
	}
	c.ByAbility[abilityID] = &Cooldown{RemainingMs: baseMs, BaseMs: baseMs}
}

// Rewards carries the base XP and gold an enemy grants on death.
type Rewards struct {
	XP   int32
	Gold int32
}

func (*Rewards) Kind() Kind { return KindRewards }

// Blocking marks an entity as actively blocking; incoming hits are halved.
type Blocking struct{}

func (*Blocking) Kind() Kind { return KindBlocking }

// PlayerTag marks the player entity.
type PlayerTag struct {
	Level int32
}

func (*PlayerTag) Kind() Kind { return KindPlayerTag }

// EnemyTag marks the active enemy entity.
type EnemyTag struct {
	TemplateID string
	Name       string
	Level      int32
	Boss       bool
	LastRoom   bool
}

func (*EnemyTag) Kind() Kind { return KindEnemyTag }

// AttackTimer accumulates effective time toward the next autoattack.
type AttackTimer struct {
	IntervalMs int32
	ElapsedMs  int32
}

func (*AttackTimer) Kind() Kind { return KindAttackTimer }
