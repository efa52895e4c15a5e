package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RunResult is one finished simulated battle.
type RunResult struct {
	BatchID      string
	Seed         uint64
	EnemyID      string
	PlayerLevel  int32
	PlayerWon    bool
	Ticks        uint64
	DamageDealt  int64
	DamageTaken  int64
	XPGained     int32
	GoldGained   int32
	ItemsDropped int32
}

// RunRepository stores simulation run results.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a repository over the given handle.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveAll bulk-inserts a batch of results in one round trip.
func (r *RunRepository) SaveAll(ctx context.Context, results []RunResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO simulation_runs
			(batch_id, seed, enemy_id, player_level, player_won, ticks,
			 damage_dealt, damage_taken, xp_gained, gold_gained, items_dropped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, res := range results {
		batch.Queue(query,
			res.BatchID, int64(res.Seed), res.EnemyID, res.PlayerLevel,
			res.PlayerWon, int64(res.Ticks), res.DamageDealt, res.DamageTaken,
			res.XPGained, res.GoldGained, res.ItemsDropped)
	}

	br := r.db.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting simulation run: %w", err)
		}
	}
	return nil
}

// CountByBatch returns how many runs a batch stored.
func (r *RunRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := r.db.pool.QueryRow(ctx,
		`SELECT count(*) FROM simulation_runs WHERE batch_id = $1`, batchID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting runs for batch %s: %w", batchID, err)
	}
	return count, nil
}
