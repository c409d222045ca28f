package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/makerquote/internal/pricing"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run mirrors the material rate table into the materials table in an
// idempotent way. Rows whose rates drifted from the table are updated.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, m := range pricing.Materials {
		if err := ensureMaterial(ctx, tx, m, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterial(ctx context.Context, tx *sql.Tx, m pricing.MaterialType, stats *Stats) error {
	rate, ok := pricing.Rate(m)
	if !ok {
		return fmt.Errorf("material %s has no rate", m)
	}

	var current pricing.MaterialRate
	err := tx.QueryRowContext(ctx, `
		SELECT customer_rate, maker_rate, density
		FROM materials
		WHERE code = ?
	`, string(m)).Scan(&current.CustomerRate, &current.MakerRate, &current.Density)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (code, customer_rate, maker_rate, density, active)
			VALUES (?, ?, ?, ?, TRUE)
		`, string(m), rate.CustomerRate, rate.MakerRate, rate.Density); err != nil {
			return fmt.Errorf("insert material %s: %w", m, err)
		}
		stats.Inserts++
		return nil
	}
	if err != nil {
		return fmt.Errorf("check material %s: %w", m, err)
	}

	if sameRate(current, rate) {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE materials
		SET
			customer_rate = ?,
			maker_rate = ?,
			density = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE code = ?
	`, rate.CustomerRate, rate.MakerRate, rate.Density, string(m)); err != nil {
		return fmt.Errorf("update material %s: %w", m, err)
	}
	stats.Updates++
	return nil
}

func sameRate(a, b pricing.MaterialRate) bool {
	const eps = 1e-9
	return math.Abs(a.CustomerRate-b.CustomerRate) < eps &&
		math.Abs(a.MakerRate-b.MakerRate) < eps &&
		math.Abs(a.Density-b.Density) < eps
}
