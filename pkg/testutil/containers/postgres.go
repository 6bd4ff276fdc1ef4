//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"listingwatch/internal/platform/config"
	"listingwatch/internal/platform/postgres"
	"listingwatch/internal/registry"
)

// PostgresContainer wraps a migrated PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts PostgreSQL, applies migrations and seeds the
// default reference data.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("listingwatch"),
		tcpostgres.WithUsername("listingwatch"),
		tcpostgres.WithPassword("listingwatch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to migrate postgres: %v", err)
	}
	if err := postgres.SeedReferenceData(ctx, db, registry.MustDefault()); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to seed reference data: %v", err)
	}

	// Shared across suites through the Manager; Ryuk handles cleanup.
	return &PostgresContainer{Container: container, URL: url, DB: db}
}

// TruncateTables empties the named tables. Reference data tables are never
// truncated by tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

// GraphTables lists every table written by the compliance store, in
// dependency order.
func GraphTables() []string {
	return []string{
		"check_learnings", "learnings", "keywords", "outbox", "complaint_packs",
		"violations", "compliance_checks", "products", "sellers",
	}
}
