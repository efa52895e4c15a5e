package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine holds all tuning for the combat simulation.
type Engine struct {
	LogLevel string `yaml:"log_level"`

	Combat  Combat  `yaml:"combat"`
	Rewards Rewards `yaml:"rewards"`
	Drops   Drops   `yaml:"drops"`

	// Database is only used by the batch simulator's results sink.
	Database DatabaseConfig `yaml:"database"`
}

// Combat tunes the damage pipeline and tick cadence.
type Combat struct {
	// SpeedMultiplier scales effective elapsed time fed into cooldowns,
	// regen and attack timers. It never changes system ordering.
	SpeedMultiplier float64 `yaml:"speed_multiplier"`

	TurnIntervalMs   int32 `yaml:"turn_interval_ms"`
	DeathAnimationMs int32 `yaml:"death_animation_ms"`

	VarianceMin float64 `yaml:"variance_min"`
	VarianceMax float64 `yaml:"variance_max"`

	// Shielded defenders count their defense at this multiplier.
	ShieldedDefenseMult float64 `yaml:"shielded_defense_mult"`
	BlockReduction      float64 `yaml:"block_reduction"`

	CritChanceBase       float64 `yaml:"crit_chance_base"`
	CritChancePerFortune float64 `yaml:"crit_chance_per_fortune"`
	CritChanceCap        float64 `yaml:"crit_chance_cap"`
	CritDamageMult       float64 `yaml:"crit_damage_mult"`

	DodgeChancePerFortune float64 `yaml:"dodge_chance_per_fortune"`
	DodgeChanceCap        float64 `yaml:"dodge_chance_cap"`

	ProcBonusPerFortune float64 `yaml:"proc_bonus_per_fortune"`

	ComboStep float64 `yaml:"combo_step"`
	ComboCap  int32   `yaml:"combo_cap"`

	SlowSpeedPenalty float64 `yaml:"slow_speed_penalty"`

	ManaRegenPerTurn int32 `yaml:"mana_regen_per_turn"`
}

// Rewards tunes XP/gold settlement.
type Rewards struct {
	PerLevelPenalty float64 `yaml:"per_level_penalty"`
	MinMultiplier   float64 `yaml:"min_multiplier"`

	// XPMultiplier is the external dev-mode XP multiplier; 1.0 in play.
	XPMultiplier float64 `yaml:"xp_multiplier"`
}

// Drops tunes item drop chance and the pity mechanic.
type Drops struct {
	BaseChance     float64 `yaml:"base_chance"`
	FortuneScaling float64 `yaml:"fortune_scaling"`
	CapChance      float64 `yaml:"cap_chance"`

	BossChance          float64 `yaml:"boss_chance"`
	BossLegendaryChance float64 `yaml:"boss_legendary_chance"`

	PityThreshold int32 `yaml:"pity_threshold"`

	// Rarity weights for a normal (non-forced) drop roll.
	WeightCommon   int32 `yaml:"weight_common"`
	WeightUncommon int32 `yaml:"weight_uncommon"`
	WeightRare     int32 `yaml:"weight_rare"`
	WeightEpic     int32 `yaml:"weight_epic"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the results sink.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultEngine returns engine config with the shipped tuning.
func DefaultEngine() Engine {
	return Engine{
		LogLevel: "info",
		Combat: Combat{
			SpeedMultiplier:       1.0,
			TurnIntervalMs:        1000,
			DeathAnimationMs:      500,
			VarianceMin:           0.8,
			VarianceMax:           1.2,
			ShieldedDefenseMult:   1.5,
			BlockReduction:        0.5,
			CritChanceBase:        0.05,
			CritChancePerFortune:  0.005,
			CritChanceCap:         0.5,
			CritDamageMult:        1.5,
			DodgeChancePerFortune: 0.004,
			DodgeChanceCap:        0.35,
			ProcBonusPerFortune:   0.01,
			ComboStep:             0.1,
			ComboCap:              5,
			SlowSpeedPenalty:      0.3,
			ManaRegenPerTurn:      3,
		},
		Rewards: Rewards{
			PerLevelPenalty: 0.1,
			MinMultiplier:   0.2,
			XPMultiplier:    1.0,
		},
		Drops: Drops{
			BaseChance:          0.15,
			FortuneScaling:      0.005,
			CapChance:           0.45,
			BossChance:          0.8,
			BossLegendaryChance: 0.1,
			PityThreshold:       8,
			WeightCommon:        60,
			WeightUncommon:      25,
			WeightRare:          10,
			WeightEpic:          5,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "delver",
			Password: "delver",
			DBName:   "delver",
			SSLMode:  "disable",
		},
	}
}

// Load reads engine config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Engine, error) {
	cfg := DefaultEngine()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
