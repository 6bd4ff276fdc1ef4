// Package store persists the compliance graph.
//
// Two implementations share the Store contract: InMemory, an arena of maps
// keyed by natural key, and PostgresStore, a relational schema with unique
// indexes and foreign keys. Both return sentinel.ErrNotFound for missing
// nodes and sentinel.ErrConflict when a natural key is already taken.
// Returned values are copies; callers may mutate them freely.
package store

import (
	"context"
	"time"

	"listingwatch/internal/compliance/models"
)

// Store is the graph storage contract used by the compliance service.
type Store interface {
	FindCheck(ctx context.Context, checkID string) (*models.ComplianceCheck, error)
	// InsertCheck persists a check and its violations. Checks are append-only.
	InsertCheck(ctx context.Context, check *models.ComplianceCheck) error
	ListChecks(ctx context.Context, filter models.ResultFilter) ([]*models.ComplianceCheck, error)
	CheckStats(ctx context.Context, filter models.StatsFilter) (*models.Stats, error)

	FindProduct(ctx context.Context, asin string) (*models.Product, error)
	// UpsertProduct creates the product or refreshes its mutable fields. The
	// refresh only applies when product.LastCheckedAt is not older than the
	// stored value, so the latest check wins the current risk score.
	UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindSeller(ctx context.Context, sellerID string) (*models.Seller, error)
	// UpsertSeller creates the seller or refreshes non-empty name and website.
	UpsertSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error)

	InsertComplaintPack(ctx context.Context, pack *models.ComplaintPack) error
	FindComplaintPack(ctx context.Context, checkID string) (*models.ComplaintPack, error)

	AppendOutbox(ctx context.Context, entry *models.OutboxEntry) error
	PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error)
	MarkOutboxPublished(ctx context.Context, id string, at time.Time) error

	// TouchKeyword creates the keyword or bumps its search count. Identity is
	// the case-folded text plus marketplace code.
	TouchKeyword(ctx context.Context, keyword *models.Keyword) (*models.Keyword, error)
	ListKeywords(ctx context.Context, marketplace string) ([]*models.Keyword, error)

	InsertLearning(ctx context.Context, learning *models.Learning) error
	FindLearning(ctx context.Context, learningID string) (*models.Learning, error)
	ListLearnings(ctx context.Context, category string, limit int) ([]*models.Learning, error)
	// DeleteLearning removes the learning and returns the ids of the checks it
	// was detached from, sorted.
	DeleteLearning(ctx context.Context, learningID string) ([]string, error)
	AttachLearning(ctx context.Context, checkID, learningID string) error
}

// Tx provides the transactional boundary for multi-node writes. Either every
// write in fn is applied or none is.
type Tx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}
