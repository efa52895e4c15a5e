package combat

import (
	"math"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
)

// LevelPenalty computes the over-level reward multiplier. A player at or
// below the floor's level keeps the full reward; every level above it
// shaves PerLevelPenalty, floored at MinMultiplier.
func LevelPenalty(playerLevel, floorLevel int32, cfg *config.Rewards) float64 {
	if playerLevel <= floorLevel {
		return 1.0
	}
	penalty := 1.0 - float64(playerLevel-floorLevel)*cfg.PerLevelPenalty
	return math.Max(cfg.MinMultiplier, penalty)
}

// AdjustedXP applies the level penalty and the dev-mode multiplier.
func AdjustedXP(base int32, penalty float64, cfg *config.Rewards) int32 {
	return int32(math.Floor(float64(base) * penalty * cfg.XPMultiplier))
}

// AdjustedGold applies the level penalty and the player's gold find stat.
func AdjustedGold(base int32, penalty, goldFind float64) int32 {
	return int32(math.Floor(float64(base) * penalty * (1 + goldFind)))
}
