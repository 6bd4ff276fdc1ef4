// Package postgres opens the database, applies embedded goose migrations and
// loads reference data.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"listingwatch/internal/platform/config"
	"listingwatch/internal/registry"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to PostgreSQL and verifies the connection.
// Returns nil if the URL is empty (PostgreSQL not configured).
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SeedReferenceData writes the registry's catalogs. Marketplaces and
// violation types are insert-only, so seeded rows are never rewritten;
// threshold bands follow the loaded registry.
func SeedReferenceData(ctx context.Context, db *sql.DB, reg *registry.Registry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range reg.Marketplaces() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO marketplaces (code, name, country, currency, domain)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, m.Code, m.Name, m.Country, m.Currency, m.Domain)
		if err != nil {
			return fmt.Errorf("seed marketplace %s: %w", m.Code, err)
		}
	}
	for _, vt := range reg.ViolationTypes() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO violation_types (code, name, description, base_severity, base_score)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, vt.Code, vt.Name, vt.Description, string(vt.BaseSeverity), vt.BaseScore)
		if err != nil {
			return fmt.Errorf("seed violation type %s: %w", vt.Code, err)
		}
	}
	for _, t := range reg.Thresholds() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO action_thresholds (action, min_score, max_score, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (action) DO UPDATE SET
				min_score = EXCLUDED.min_score,
				max_score = EXCLUDED.max_score,
				description = EXCLUDED.description
		`, string(t.Action), t.MinScore, t.MaxScore, t.Description)
		if err != nil {
			return fmt.Errorf("seed action threshold %s: %w", t.Action, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
