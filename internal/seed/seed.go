package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/hagaki/internal/auth"
	"github.com/Simplici0/hagaki/internal/pricing"
)

const defaultPriceTableNote = "built-in default"

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// PriceTable is stored when no revision exists yet. Defaults to the built-in table.
	PriceTable []byte
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensurePriceTable(ctx, tx, cfg.PriceTable, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensurePriceTable(ctx context.Context, tx *sql.Tx, document []byte, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM price_tables LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check price table existence: %w", err)
	}
	if exists {
		return nil
	}

	if len(document) == 0 {
		document = pricing.DefaultTableYAML
	}
	if _, err := pricing.ParseTable(document); err != nil {
		return fmt.Errorf("validate seed price table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO price_tables (document, note)
		VALUES (?, ?)
	`, string(document), defaultPriceTableNote); err != nil {
		return fmt.Errorf("insert default price table: %w", err)
	}
	stats.Inserts++
	return nil
}
