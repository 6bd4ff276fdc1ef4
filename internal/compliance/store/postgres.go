package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/registry"
	"listingwatch/pkg/platform/sentinel"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// pgForeignKeyViolation is the SQLSTATE for foreign_key_violation.
const pgForeignKeyViolation = "23503"

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the compliance graph in PostgreSQL.
type PostgresStore struct {
	q queryer
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db}
}

// NewPostgresTx binds the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

// translate maps driver errors onto store sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrNotFound)
		}
	}
	return err
}

const checkColumns = `
	check_id, fingerprint, state, checked_at, product_asin, product_url, product_title,
	seller_id, seller_name, seller_website, marketplace_code, violation_score,
	recommended_action, breakdown, summary, reasoning, ce_mark_visible,
	ce_certification_claimed, is_baby_product, product_age_range, fulfilled_by,
	confidence_score, images_analyzed`

func (s *PostgresStore) FindCheck(ctx context.Context, checkID string) (*models.ComplianceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE check_id = $1`
	check, err := scanCheck(s.q.QueryRowContext(ctx, query, checkID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find check: %w", err)
	}
	if err := s.loadChildren(ctx, []*models.ComplianceCheck{check}); err != nil {
		return nil, err
	}
	return check, nil
}

func (s *PostgresStore) InsertCheck(ctx context.Context, check *models.ComplianceCheck) error {
	breakdown, err := json.Marshal(check.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO compliance_checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23)
	`
	_, err = s.q.ExecContext(ctx, query,
		check.CheckID,
		check.Fingerprint,
		string(check.State),
		check.CheckedAt,
		check.ProductASIN,
		check.ProductURL,
		check.ProductTitle,
		check.SellerID,
		check.SellerName,
		check.SellerWebsite,
		check.MarketplaceCode,
		check.ViolationScore,
		string(check.RecommendedAction),
		breakdown,
		check.Summary,
		check.Reasoning,
		check.CEMarkVisible,
		check.CECertificationClaimed,
		check.IsBabyProduct,
		check.ProductAgeRange,
		check.FulfilledBy,
		check.ConfidenceScore,
		check.ImagesAnalyzed,
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", translate(err))
	}

	for i, v := range check.Violations {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO violations (
				violation_id, check_id, position, type, severity, points, explanation,
				evidence_text, evidence_text_translated, location, regulatory_reference
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			v.ViolationID,
			check.CheckID,
			i,
			v.Type,
			string(v.Severity),
			v.Points,
			v.Explanation,
			v.EvidenceText,
			v.EvidenceTextTranslated,
			v.Location,
			v.RegulatoryReference,
		)
		if err != nil {
			return fmt.Errorf("insert violation %s: %w", v.ViolationID, translate(err))
		}
	}
	return nil
}

func (s *PostgresStore) ListChecks(ctx context.Context, filter models.ResultFilter) ([]*models.ComplianceCheck, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Marketplaces) > 0 {
		args = append(args, pq.Array(filter.Marketplaces))
		where = append(where, fmt.Sprintf("marketplace_code = ANY($%d)", len(args)))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		where = append(where, fmt.Sprintf("violation_score >= $%d", len(args)))
	}
	switch filter.RiskLevel {
	case models.RiskLevelHigh:
		where = append(where, "violation_score >= 61")
	case models.RiskLevelMedium:
		where = append(where, "violation_score BETWEEN 31 AND 60")
	case models.RiskLevelLow:
		where = append(where, "violation_score <= 30")
	}

	query := `SELECT ` + checkColumns + ` FROM compliance_checks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY checked_at DESC, check_id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	checks := make([]*models.ComplianceCheck, 0)
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	if err := s.loadChildren(ctx, checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *PostgresStore) CheckStats(ctx context.Context, filter models.StatsFilter) (*models.Stats, error) {
	stats := &models.Stats{}
	var avg float64
	err := s.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT product_asin),
			COUNT(*) FILTER (WHERE violation_score >= 61),
			COUNT(*) FILTER (WHERE violation_score BETWEEN 31 AND 60),
			COUNT(*) FILTER (WHERE violation_score BETWEEN 1 AND 30),
			COUNT(*) FILTER (WHERE violation_score = 0),
			COALESCE(AVG(violation_score), 0)
		FROM compliance_checks
		WHERE checked_at >= $1 AND ($2 = '' OR marketplace_code = $2)
	`, filter.Since, filter.Marketplace).Scan(
		&stats.TotalChecks,
		&stats.TotalProducts,
		&stats.HighRiskCount,
		&stats.MediumRiskCount,
		&stats.LowRiskCount,
		&stats.ClearCount,
		&avg,
	)
	if err != nil {
		return nil, fmt.Errorf("check stats: %w", err)
	}
	stats.AvgViolationScore = roundTenth(avg)

	rows, err := s.q.QueryContext(ctx, `
		SELECT v.type, COUNT(*)
		FROM violations v
		JOIN compliance_checks c ON c.check_id = v.check_id
		WHERE c.checked_at >= $1 AND ($2 = '' OR c.marketplace_code = $2)
		GROUP BY v.type
	`, filter.Since, filter.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("violation type counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan violation type count: %w", err)
		}
		counts[typ] = n
		stats.TotalViolations += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violation type counts: %w", err)
	}
	stats.TopViolationTypes = topTypes(counts)
	return stats, nil
}

func (s *PostgresStore) FindProduct(ctx context.Context, asin string) (*models.Product, error) {
	var p models.Product
	err := s.q.QueryRowContext(ctx, `
		SELECT asin, url, title, fulfilled_by, current_risk_score, last_checked_at, created_at, updated_at
		FROM products WHERE asin = $1
	`, asin).Scan(&p.ASIN, &p.URL, &p.Title, &p.FulfilledBy, &p.CurrentRiskScore, &p.LastCheckedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	var p models.Product
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO products (asin, url, title, fulfilled_by, current_risk_score, last_checked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (asin) DO UPDATE SET
			url = CASE WHEN EXCLUDED.last_checked_at >= products.last_checked_at
				THEN EXCLUDED.url ELSE products.url END,
			title = CASE WHEN EXCLUDED.last_checked_at >= products.last_checked_at
				THEN EXCLUDED.title ELSE products.title END,
			fulfilled_by = CASE WHEN EXCLUDED.last_checked_at >= products.last_checked_at
				THEN EXCLUDED.fulfilled_by ELSE products.fulfilled_by END,
			current_risk_score = CASE WHEN EXCLUDED.last_checked_at >= products.last_checked_at
				THEN EXCLUDED.current_risk_score ELSE products.current_risk_score END,
			updated_at = CASE WHEN EXCLUDED.last_checked_at >= products.last_checked_at
				THEN EXCLUDED.updated_at ELSE products.updated_at END,
			last_checked_at = GREATEST(EXCLUDED.last_checked_at, products.last_checked_at)
		RETURNING asin, url, title, fulfilled_by, current_risk_score, last_checked_at, created_at, updated_at
	`,
		product.ASIN,
		product.URL,
		product.Title,
		product.FulfilledBy,
		product.CurrentRiskScore,
		product.LastCheckedAt,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&p.ASIN, &p.URL, &p.Title, &p.FulfilledBy, &p.CurrentRiskScore, &p.LastCheckedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert product: %w", translate(err))
	}
	return &p, nil
}

func (s *PostgresStore) FindSeller(ctx context.Context, sellerID string) (*models.Seller, error) {
	var sl models.Seller
	err := s.q.QueryRowContext(ctx, `
		SELECT seller_id, name, website, created_at, updated_at FROM sellers WHERE seller_id = $1
	`, sellerID).Scan(&sl.SellerID, &sl.Name, &sl.Website, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find seller: %w", err)
	}
	return &sl, nil
}

func (s *PostgresStore) UpsertSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	var sl models.Seller
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO sellers (seller_id, name, website, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (seller_id) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), sellers.name),
			website = COALESCE(NULLIF(EXCLUDED.website, ''), sellers.website),
			updated_at = EXCLUDED.updated_at
		RETURNING seller_id, name, website, created_at, updated_at
	`, seller.SellerID, seller.Name, seller.Website, seller.CreatedAt, seller.UpdatedAt).
		Scan(&sl.SellerID, &sl.Name, &sl.Website, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert seller: %w", translate(err))
	}
	return &sl, nil
}

func (s *PostgresStore) InsertComplaintPack(ctx context.Context, pack *models.ComplaintPack) error {
	evidence, err := json.Marshal(pack.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO complaint_packs (
			complaint_id, check_id, product_asin, seller_id, marketplace_code,
			action, violation_score, evidence, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		pack.ComplaintID,
		pack.CheckID,
		pack.ProductASIN,
		pack.SellerID,
		pack.MarketplaceCode,
		string(pack.Action),
		pack.ViolationScore,
		evidence,
		pack.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert complaint pack: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) FindComplaintPack(ctx context.Context, checkID string) (*models.ComplaintPack, error) {
	var (
		p        models.ComplaintPack
		sellerID sql.NullString
		action   string
		evidence []byte
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT complaint_id, check_id, product_asin, seller_id, marketplace_code,
			action, violation_score, evidence, created_at
		FROM complaint_packs WHERE check_id = $1
	`, checkID).Scan(&p.ComplaintID, &p.CheckID, &p.ProductASIN, &sellerID, &p.MarketplaceCode,
		&action, &p.ViolationScore, &evidence, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find complaint pack: %w", err)
	}
	if sellerID.Valid {
		p.SellerID = &sellerID.String
	}
	p.Action = registry.Action(action)
	if err := json.Unmarshal(evidence, &p.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) AppendOutbox(ctx context.Context, entry *models.OutboxEntry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.AggregateType, entry.AggregateID, entry.EventType, entry.Payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending outbox: %w", err)
	}
	defer rows.Close()

	out := make([]*models.OutboxEntry, 0)
	for rows.Next() {
		var e models.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkOutboxPublished(ctx context.Context, id string, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE outbox SET published_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TouchKeyword(ctx context.Context, keyword *models.Keyword) (*models.Keyword, error) {
	var k models.Keyword
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO keywords (keyword_id, text, text_key, marketplace_code, created_at, last_searched, search_count)
		VALUES ($1, $2, lower($2), $3, $4, $5, 1)
		ON CONFLICT (text_key, marketplace_code) DO UPDATE SET
			search_count = keywords.search_count + 1,
			last_searched = GREATEST(keywords.last_searched, EXCLUDED.last_searched)
		RETURNING keyword_id, text, marketplace_code, created_at, last_searched, search_count
	`, keyword.KeywordID, keyword.Text, keyword.MarketplaceCode, keyword.CreatedAt, keyword.LastSearched).
		Scan(&k.KeywordID, &k.Text, &k.MarketplaceCode, &k.CreatedAt, &k.LastSearched, &k.SearchCount)
	if err != nil {
		return nil, fmt.Errorf("touch keyword: %w", translate(err))
	}
	return &k, nil
}

func (s *PostgresStore) ListKeywords(ctx context.Context, marketplace string) ([]*models.Keyword, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT keyword_id, text, marketplace_code, created_at, last_searched, search_count
		FROM keywords
		WHERE $1 = '' OR marketplace_code = $1
		ORDER BY last_searched DESC, keyword_id
	`, marketplace)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Keyword, 0)
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.KeywordID, &k.Text, &k.MarketplaceCode, &k.CreatedAt, &k.LastSearched, &k.SearchCount); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keywords: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertLearning(ctx context.Context, learning *models.Learning) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO learnings (learning_id, text, category, created_at) VALUES ($1, $2, $3, $4)
	`, learning.LearningID, learning.Text, learning.Category, learning.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert learning: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) FindLearning(ctx context.Context, learningID string) (*models.Learning, error) {
	var l models.Learning
	err := s.q.QueryRowContext(ctx, `
		SELECT learning_id, text, category, created_at FROM learnings WHERE learning_id = $1
	`, learningID).Scan(&l.LearningID, &l.Text, &l.Category, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find learning: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) ListLearnings(ctx context.Context, category string, limit int) ([]*models.Learning, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT learning_id, text, category, created_at
		FROM learnings
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC, learning_id
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list learnings: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Learning, 0)
	for rows.Next() {
		var l models.Learning
		if err := rows.Scan(&l.LearningID, &l.Text, &l.Category, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan learning: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate learnings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteLearning(ctx context.Context, learningID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
		DELETE FROM check_learnings WHERE learning_id = $1 RETURNING check_id
	`, learningID)
	if err != nil {
		return nil, fmt.Errorf("detach learning: %w", err)
	}
	defer rows.Close()

	checkIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan detached check: %w", err)
		}
		checkIDs = append(checkIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detached checks: %w", err)
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM learnings WHERE learning_id = $1`, learningID)
	if err != nil {
		return nil, fmt.Errorf("delete learning: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete learning: %w", err)
	}
	if n == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.Strings(checkIDs)
	return checkIDs, nil
}

func (s *PostgresStore) AttachLearning(ctx context.Context, checkID, learningID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO check_learnings (check_id, learning_id, attached_at)
		VALUES ($1, $2, now())
		ON CONFLICT (check_id, learning_id) DO NOTHING
	`, checkID, learningID)
	if err != nil {
		return fmt.Errorf("attach learning: %w", translate(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*models.ComplianceCheck, error) {
	var (
		c         models.ComplianceCheck
		state     string
		action    string
		sellerID  sql.NullString
		breakdown []byte
	)
	err := row.Scan(
		&c.CheckID,
		&c.Fingerprint,
		&state,
		&c.CheckedAt,
		&c.ProductASIN,
		&c.ProductURL,
		&c.ProductTitle,
		&sellerID,
		&c.SellerName,
		&c.SellerWebsite,
		&c.MarketplaceCode,
		&c.ViolationScore,
		&action,
		&breakdown,
		&c.Summary,
		&c.Reasoning,
		&c.CEMarkVisible,
		&c.CECertificationClaimed,
		&c.IsBabyProduct,
		&c.ProductAgeRange,
		&c.FulfilledBy,
		&c.ConfidenceScore,
		&c.ImagesAnalyzed,
	)
	if err != nil {
		return nil, err
	}
	c.State = models.CheckState(state)
	c.RecommendedAction = registry.Action(action)
	if sellerID.Valid {
		c.SellerID = &sellerID.String
	}
	if err := json.Unmarshal(breakdown, &c.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	c.Violations = []models.Violation{}
	return &c, nil
}

// loadChildren fills violations and attached learnings for checks with two
// queries regardless of how many checks there are.
func (s *PostgresStore) loadChildren(ctx context.Context, checks []*models.ComplianceCheck) error {
	if len(checks) == 0 {
		return nil
	}
	byID := make(map[string]*models.ComplianceCheck, len(checks))
	ids := make([]string, len(checks))
	for i, c := range checks {
		byID[c.CheckID] = c
		ids[i] = c.CheckID
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT violation_id, check_id, type, severity, points, explanation,
			evidence_text, evidence_text_translated, location, regulatory_reference
		FROM violations
		WHERE check_id = ANY($1)
		ORDER BY check_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load violations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			v        models.Violation
			severity string
		)
		if err := rows.Scan(&v.ViolationID, &v.CheckID, &v.Type, &severity, &v.Points, &v.Explanation,
			&v.EvidenceText, &v.EvidenceTextTranslated, &v.Location, &v.RegulatoryReference); err != nil {
			return fmt.Errorf("scan violation: %w", err)
		}
		v.Severity = registry.Severity(severity)
		c := byID[v.CheckID]
		c.Violations = append(c.Violations, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate violations: %w", err)
	}

	lrows, err := s.q.QueryContext(ctx, `
		SELECT check_id, learning_id FROM check_learnings
		WHERE check_id = ANY($1)
		ORDER BY attached_at, learning_id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load learnings: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var checkID, learningID string
		if err := lrows.Scan(&checkID, &learningID); err != nil {
			return fmt.Errorf("scan check learning: %w", err)
		}
		c := byID[checkID]
		c.LearningIDs = append(c.LearningIDs, learningID)
	}
	return lrows.Err()
}
