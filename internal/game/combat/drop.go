package combat

import (
	"math/rand/v2"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
)

// PityState is the monotonic bad-luck counter. It increments on every
// non-rare outcome (including no drop at all) and resets on rare-or-better;
// at or above the threshold the next successful drop is forced to at least
// rare.
type PityState struct {
	Counter int32
}

// RollDrop decides whether the killed enemy drops an item and which one.
// Returns nil when nothing drops. The pity counter is updated either way.
func RollDrop(rng *rand.Rand, cfg *config.Drops, defs *data.Set, fortune int32, boss bool, pity *PityState) *data.ItemDef {
	chance := cfg.BaseChance + float64(fortune)*cfg.FortuneScaling
	if chance > cfg.CapChance {
		chance = cfg.CapChance
	}
	if boss {
		chance = cfg.BossChance
	}

	if rng.Float64() >= chance {
		pity.Counter++
		return nil
	}

	rank := rollRarityRank(rng, cfg)

	// Boss kills get an independent legendary-upgrade roll.
	if boss && rng.Float64() < cfg.BossLegendaryChance {
		rank = data.RarityLegendary.Rank()
	}

	if pity.Counter >= cfg.PityThreshold && rank < data.RarityRare.Rank() {
		rank = data.RarityRare.Rank()
	}

	item := pickItem(rng, defs, rank)
	if item == nil {
		pity.Counter++
		return nil
	}

	if item.Rarity.Rank() >= data.RarityRare.Rank() {
		pity.Counter = 0
	} else {
		pity.Counter++
	}
	return item
}

// rollRarityRank rolls the weighted rarity table (legendary only comes from
// the boss upgrade roll).
func rollRarityRank(rng *rand.Rand, cfg *config.Drops) int {
	weights := []int32{cfg.WeightCommon, cfg.WeightUncommon, cfg.WeightRare, cfg.WeightEpic}
	total := int32(0)
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return data.RarityCommon.Rank()
	}
	roll := rng.Int32N(total)
	for rank, w := range weights {
		if roll < w {
			return rank
		}
		roll -= w
	}
	return data.RarityCommon.Rank()
}

// pickItem selects a random item of the given rank, falling back to the
// nearest populated rank (upward first) when the exact tier has no items.
func pickItem(rng *rand.Rand, defs *data.Set, rank int) *data.ItemDef {
	if pool := defs.ItemsOfRank(rank); len(pool) > 0 {
		return pool[rng.IntN(len(pool))]
	}
	if pool := defs.ItemsAtLeast(rank); len(pool) > 0 {
		return pool[rng.IntN(len(pool))]
	}
	if pool := defs.ItemsAtLeast(0); len(pool) > 0 {
		return pool[rng.IntN(len(pool))]
	}
	return nil
}
