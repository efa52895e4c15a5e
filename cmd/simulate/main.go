package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/config"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/db"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/engine"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/game/event"
)

const DefaultConfigPath = "config/engine.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		cfgPath = flag.String("config", DefaultConfigPath, "engine config path")
		battles = flag.Int("n", 100, "number of battles to simulate")
		seed    = flag.Uint64("seed", uint64(time.Now().UnixNano()), "base RNG seed, battle i uses seed+i")
		enemyID = flag.String("enemy", "cave_rat", "enemy template id")
		level   = flag.Int("level", 1, "player level")
		pathID  = flag.String("path", "reaver", "player path id")
		stance  = flag.String("stance", "aggressive", "starting stance id")
		store   = flag.Bool("store", false, "persist results to postgres")
		dsn     = flag.String("dsn", "", "postgres DSN, defaults to the config database section")
	)
	flag.Parse()

	if *battles <= 0 {
		return fmt.Errorf("battle count must be positive, got %d", *battles)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	defs, err := data.Default()
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if defs.Enemy(*enemyID) == nil {
		return fmt.Errorf("unknown enemy template %q", *enemyID)
	}
	if defs.Path(*pathID) == nil {
		return fmt.Errorf("unknown path %q", *pathID)
	}

	slog.Info("simulation starting",
		"battles", *battles,
		"seed", *seed,
		"enemy", *enemyID,
		"level", *level,
		"path", *pathID)

	results := make([]db.RunResult, *battles)
	batchID := fmt.Sprintf("%s-%d", *enemyID, *seed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range *battles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			battleSeed := *seed + uint64(i)
			out, err := simulateBattle(cfg, defs, battleSeed, *enemyID, int32(*level), *pathID, *stance)
			if err != nil {
				return fmt.Errorf("battle %d (seed %d): %w", i, battleSeed, err)
			}
			out.BatchID = batchID
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(results)

	if *store {
		target := *dsn
		if target == "" {
			target = cfg.Database.DSN()
		}
		if err := persist(ctx, target, batchID, results); err != nil {
			return err
		}
	}
	return nil
}

// simulateBattle runs one battle to completion and returns its result row.
func simulateBattle(cfg config.Engine, defs *data.Set, seed uint64, enemyID string, level int32, pathID, stanceID string) (db.RunResult, error) {
	b := engine.New(cfg, defs, seed)
	b.SpawnPlayer(playerForLevel(level, pathID, stanceID, defs))
	if _, err := b.StartEncounter(enemyID, level, true); err != nil {
		return db.RunResult{}, err
	}

	enemyMax := defs.Enemy(enemyID).MaxHP
	playerMax := playerForLevel(level, pathID, stanceID, defs).MaxHP
	rotation := powerRotation(defs, level)

	const tickMs = 100
	const maxTicks = 20_000
	var (
		won      bool
		done     bool
		ticks    uint64
		rotIdx   int
		lastSeen int32
	)
	for ticks = 0; ticks < maxTicks && !done; ticks++ {
		if len(rotation) > 0 {
			if b.UsePower(rotation[rotIdx%len(rotation)]) == engine.ReasonOK {
				rotIdx++
			}
		}
		b.Tick(tickMs)

		if id, ok := b.Enemy(); ok {
			if hp, ok := entity.Lookup[*entity.Health](b.Store(), id, entity.KindHealth); ok {
				lastSeen = hp.Current
			}
		}
		for _, tr := range b.Outbox().DrainTransitions() {
			switch tr.ToPhase {
			case event.PhaseFloorComplete:
				won, done = true, true
			case event.PhaseDefeat:
				done = true
			}
		}
	}
	if !done {
		return db.RunResult{}, fmt.Errorf("battle did not finish within %d ticks", maxTicks)
	}

	dealt := int64(enemyMax - lastSeen)
	if won {
		dealt = int64(enemyMax)
	}
	taken := int64(playerMax)
	if hp, ok := entity.Lookup[*entity.Health](b.Store(), b.Player(), entity.KindHealth); ok {
		taken = int64(playerMax - hp.Current)
	}
	if taken < 0 {
		taken = 0
	}

	grants := b.Grants()
	return db.RunResult{
		Seed:         seed,
		EnemyID:      enemyID,
		PlayerLevel:  level,
		PlayerWon:    won,
		Ticks:        ticks,
		DamageDealt:  dealt,
		DamageTaken:  taken,
		XPGained:     grants.XP,
		GoldGained:   grants.Gold,
		ItemsDropped: int32(len(grants.Items)),
	}, nil
}

func printSummary(results []db.RunResult) {
	var wins, totalXP, totalGold, drops int
	var totalTicks uint64
	for _, r := range results {
		if r.PlayerWon {
			wins++
		}
		totalXP += int(r.XPGained)
		totalGold += int(r.GoldGained)
		drops += int(r.ItemsDropped)
		totalTicks += r.Ticks
	}
	n := len(results)
	slog.Info("simulation complete",
		"battles", n,
		"wins", wins,
		"win_rate", fmt.Sprintf("%.1f%%", 100*float64(wins)/float64(n)),
		"avg_ticks", totalTicks/uint64(n),
		"avg_xp", totalXP/n,
		"avg_gold", totalGold/n,
		"drops", drops)
}

func persist(ctx context.Context, dsn, batchID string, results []db.RunResult) error {
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return err
	}
	handle, err := db.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer handle.Close()

	repo := db.NewRunRepository(handle)
	if err := repo.SaveAll(ctx, results); err != nil {
		return err
	}
	slog.Info("results persisted", "batch", batchID, "rows", len(results))
	return nil
}

// playerForLevel derives a baseline hero for the requested level. The
// numbers track the enemy dataset so mid-level matchups stay winnable
// without being free.
func playerForLevel(level int32, pathID, stanceID string, defs *data.Set) engine.PlayerSetup {
	unlocked := make([]string, 0, 4)
	if p := defs.Path(pathID); p != nil {
		for _, ab := range p.Abilities {
			if ab.LevelReq <= level {
				unlocked = append(unlocked, ab.ID)
			}
		}
	}
	return engine.PlayerSetup{
		Level:            level,
		MaxHP:            90 + 12*level,
		MaxMana:          40 + 5*level,
		BaseDamage:       8 + 2*level,
		Defense:          3 + level,
		Speed:            10,
		Fortune:          level / 2,
		GoldFind:         0,
		AttackIntervalMs: 1500,
		PathID:           pathID,
		Unlocked:         unlocked,
		StanceID:         stanceID,
	}
}

// powerRotation picks the powers available at the given level, ordered
// by id so runs are reproducible. Alternating through them builds combo.
func powerRotation(defs *data.Set, level int32) []string {
	var ids []string
	for id, p := range defs.Powers {
		if p.LevelReq <= level {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
