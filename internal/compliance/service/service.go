// Package service orchestrates compliance recording: it validates an
// observation, scores it, resolves the recommended action and persists the
// resulting check with its product, seller, violations and complaint pack in
// one transaction.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"listingwatch/internal/compliance/action"
	"listingwatch/internal/compliance/metrics"
	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/scoring"
	"listingwatch/internal/compliance/store"
	"listingwatch/internal/platform/logger"
	"listingwatch/internal/registry"
	dErrors "listingwatch/pkg/domain-errors"
	"listingwatch/pkg/platform/sentinel"
	"listingwatch/pkg/requestcontext"
)

const (
	defaultBatchConcurrency = 8
	tracerName              = "listingwatch/internal/compliance/service"

	msgCheckConflict = "a check with this id already exists with different results"
)

// CheckCache is an optional read-through cache for recorded checks.
type CheckCache interface {
	Get(ctx context.Context, checkID string) (*models.ComplianceCheck, error)
	Set(ctx context.Context, check *models.ComplianceCheck) error
	Delete(ctx context.Context, checkID string) error
}

// Service is the Compliance Check Repository and Keyword Tracker.
type Service struct {
	registry         *registry.Registry
	store            store.Store
	tx               store.Tx
	cache            CheckCache
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	locks            *productLocks
	batchConcurrency int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache enables the check cache. A nil cache leaves caching off.
func WithCache(cache CheckCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithBatchConcurrency bounds RecordBatch parallelism.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// New constructs a Service. tx provides the write boundary; st serves reads.
func New(reg *registry.Registry, st store.Store, tx store.Tx, opts ...Option) *Service {
	s := &Service{
		registry:         reg,
		store:            st,
		tx:               tx,
		locks:            &productLocks{},
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// RecordCheck scores obs and persists it as a new compliance check. When the
// check id already exists with an identical payload the stored check is
// returned with replayed set and nothing is written.
func (s *Service) RecordCheck(ctx context.Context, obs models.Observation) (result *models.CheckResult, replayed bool, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.RecordCheck")
	defer func() {
		s.metrics.ObserveRecordLatency(time.Since(start))
		if err != nil {
			code := string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			s.metrics.IncrementFailure(code)
		}
		span.End()
	}()

	obs.Normalize()
	if err := obs.Validate(); err != nil {
		return nil, false, err
	}
	fingerprint := obs.Fingerprint()
	span.SetAttributes(
		attribute.String("asin", obs.ASIN),
		attribute.String("marketplace", obs.MarketplaceCode),
	)

	if obs.CheckID != "" {
		existing, err := s.store.FindCheck(ctx, obs.CheckID)
		switch {
		case err == nil:
			return s.replay(ctx, existing, fingerprint)
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
		}
	} else {
		obs.CheckID = "chk-" + uuid.NewString()
	}
	span.SetAttributes(attribute.String("check_id", obs.CheckID))

	check, decision, err := s.score(ctx, &obs, fingerprint)
	if err != nil {
		return nil, false, err
	}

	err = s.locks.Do(ctx, check.ProductASIN, func() error {
		txCtx, txSpan := s.tracer.Start(ctx, "compliance.persist")
		defer txSpan.End()
		return s.tx.RunInTx(txCtx, func(st store.Store) error {
			return s.persist(txCtx, st, &obs, check, decision)
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return s.resolveConflict(ctx, check, err)
		}
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, false, err
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check")
	}

	s.metrics.IncrementRecorded(string(check.RecommendedAction), check.MarketplaceCode)
	if decision.RequiresComplaintPack {
		s.metrics.IncrementComplaintPack()
	}
	s.logger.InfoContext(ctx, "compliance check recorded",
		"check_id", check.CheckID,
		"asin", check.ProductASIN,
		"marketplace", check.MarketplaceCode,
		"violation_score", check.ViolationScore,
		"recommended_action", check.RecommendedAction,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.cacheCheck(ctx, check)
	return models.NewCheckResult(check), false, nil
}

// score resolves reference data and builds the check in the Scored state.
// It performs no writes.
func (s *Service) score(ctx context.Context, obs *models.Observation, fingerprint string) (*models.ComplianceCheck, action.Decision, error) {
	marketplace, err := s.registry.ResolveMarketplace(obs.MarketplaceCode)
	if err != nil {
		return nil, action.Decision{}, dErrors.Wrap(err, dErrors.CodeValidation, "unknown marketplace")
	}

	scored, err := scoring.Score(obs.Violations, s.registry)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrUnknownViolationType):
			return nil, action.Decision{}, dErrors.Wrap(err, dErrors.CodeValidation, "unknown violation type")
		case errors.Is(err, scoring.ErrInvalidScoreOverride):
			return nil, action.Decision{}, dErrors.Wrap(err, dErrors.CodeValidation, "score override must not be negative")
		}
		return nil, action.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to score observation")
	}
	decision := action.Resolve(s.registry, scored.Score)

	check := &models.ComplianceCheck{
		CheckID:                obs.CheckID,
		Fingerprint:            fingerprint,
		State:                  models.CheckStatePending,
		CheckedAt:              requestcontext.Now(ctx).UTC(),
		ProductASIN:            obs.ASIN,
		ProductURL:             obs.URL,
		ProductTitle:           obs.Title,
		SellerName:             obs.SellerName,
		SellerWebsite:          obs.SellerWebsite,
		MarketplaceCode:        marketplace.Code,
		ViolationScore:         decision.Score,
		RecommendedAction:      decision.Action(),
		Breakdown:              scored.Breakdown,
		Summary:                obs.Summary,
		Reasoning:              obs.Reasoning,
		CEMarkVisible:          obs.CEMarkVisible,
		CECertificationClaimed: obs.CECertificationClaimed,
		IsBabyProduct:          obs.IsBabyProduct,
		ProductAgeRange:        obs.ProductAgeRange,
		FulfilledBy:            obs.FulfilledBy,
		ConfidenceScore:        obs.ConfidenceScore,
		ImagesAnalyzed:         obs.ImagesAnalyzed,
		Violations:             make([]models.Violation, 0, len(scored.Contributions)),
	}
	if obs.HasSeller() {
		sellerID := obs.SellerID
		check.SellerID = &sellerID
	}
	for _, c := range scored.Contributions {
		check.Violations = append(check.Violations, models.Violation{
			ViolationID:            fmt.Sprintf("%s-v%d", check.CheckID, c.Index),
			CheckID:                check.CheckID,
			Type:                   c.Type.Code,
			Severity:               c.Type.BaseSeverity,
			Points:                 c.Points,
			Explanation:            c.Occurrence.Explanation,
			EvidenceText:           c.Occurrence.EvidenceText,
			EvidenceTextTranslated: c.Occurrence.EvidenceTextTranslated,
			Location:               c.Occurrence.Location,
			RegulatoryReference:    c.Occurrence.RegulatoryReference,
		})
	}
	if err := check.Advance(models.CheckStateScored); err != nil {
		return nil, action.Decision{}, err
	}
	return check, decision, nil
}

// persist writes every node for check inside one transaction.
func (s *Service) persist(ctx context.Context, st store.Store, obs *models.Observation, check *models.ComplianceCheck, decision action.Decision) error {
	now := check.CheckedAt
	if check.SellerID != nil {
		_, err := st.UpsertSeller(ctx, &models.Seller{
			SellerID:  *check.SellerID,
			Name:      obs.SellerName,
			Website:   obs.SellerWebsite,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("upsert seller: %w", err)
		}
	}

	_, err := st.UpsertProduct(ctx, &models.Product{
		ASIN:             obs.ASIN,
		URL:              obs.URL,
		Title:            obs.Title,
		FulfilledBy:      obs.FulfilledBy,
		CurrentRiskScore: check.ViolationScore,
		LastCheckedAt:    check.CheckedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	if err := check.Advance(models.CheckStateRecorded); err != nil {
		return err
	}
	if err := st.InsertCheck(ctx, check); err != nil {
		return fmt.Errorf("insert check: %w", err)
	}

	if !decision.RequiresComplaintPack {
		return nil
	}
	pack := &models.ComplaintPack{
		ComplaintID:     "cp-" + check.CheckID,
		CheckID:         check.CheckID,
		ProductASIN:     check.ProductASIN,
		SellerID:        check.SellerID,
		MarketplaceCode: check.MarketplaceCode,
		Action:          check.RecommendedAction,
		ViolationScore:  check.ViolationScore,
		Evidence:        check.Violations,
		CreatedAt:       now,
	}
	if err := st.InsertComplaintPack(ctx, pack); err != nil {
		return fmt.Errorf("insert complaint pack: %w", err)
	}
	payload, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("marshal complaint pack: %w", err)
	}
	return st.AppendOutbox(ctx, &models.OutboxEntry{
		ID:            uuid.NewString(),
		AggregateType: models.AggregateComplaintPack,
		AggregateID:   pack.ComplaintID,
		EventType:     models.EventComplaintPackCreated,
		Payload:       payload,
		CreatedAt:     now,
	})
}

// resolveConflict reads the check back after a unique-key collision. An
// identical check is an idempotent replay; anything else is surfaced.
func (s *Service) resolveConflict(ctx context.Context, check *models.ComplianceCheck, cause error) (*models.CheckResult, bool, error) {
	existing, err := s.store.FindCheck(ctx, check.CheckID)
	if err == nil {
		return s.replay(ctx, existing, check.Fingerprint)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "check rejected by natural key constraint",
			"check_id", check.CheckID,
			"asin", check.ProductASIN,
			"error", cause,
		)
		return nil, false, dErrors.Wrap(
			fmt.Errorf("%w: %w", models.ErrConstraintViolation, cause),
			dErrors.CodeConflict,
			"listing conflicts with an existing product or seller",
		)
	}
	return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
}

func (s *Service) replay(ctx context.Context, existing *models.ComplianceCheck, fingerprint string) (*models.CheckResult, bool, error) {
	if existing.Fingerprint != fingerprint {
		s.logger.WarnContext(ctx, "check id reused with different payload",
			"check_id", existing.CheckID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, false, dErrors.Wrap(models.ErrConstraintViolation, dErrors.CodeConflict, msgCheckConflict)
	}
	s.metrics.IncrementReplay()
	s.logger.InfoContext(ctx, "compliance check replayed", "check_id", existing.CheckID)
	return models.NewCheckResult(existing), true, nil
}

// BatchItem is the outcome of one observation in RecordBatch.
type BatchItem struct {
	Result   *models.CheckResult
	Replayed bool
	Err      error
}

// RecordBatch records independent observations concurrently. Items are
// returned in input order and one failure never affects the others.
func (s *Service) RecordBatch(ctx context.Context, observations []models.Observation) []BatchItem {
	ctx, span := s.tracer.Start(ctx, "compliance.RecordBatch",
		trace.WithAttributes(attribute.Int("batch_size", len(observations))))
	defer span.End()

	items := make([]BatchItem, len(observations))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i := range observations {
		g.Go(func() error {
			result, replayed, err := s.RecordCheck(ctx, observations[i])
			items[i] = BatchItem{Result: result, Replayed: replayed, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "compliance batch recorded",
		"batch_size", len(observations),
		"failed", failed,
	)
	return items
}

// GetResult returns one recorded check.
func (s *Service) GetResult(ctx context.Context, checkID string) (*models.CheckResult, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, checkID)
		switch {
		case err == nil:
			s.metrics.IncrementCacheLookup("hit")
			return models.NewCheckResult(cached), nil
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.IncrementCacheLookup("miss")
		default:
			s.metrics.IncrementCacheLookup("error")
			s.logger.WarnContext(ctx, "check cache lookup failed", "check_id", checkID, "error", err)
		}
	}

	check, err := s.store.FindCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
	}
	s.cacheCheck(ctx, check)
	return models.NewCheckResult(check), nil
}

// ListResults returns recorded checks, newest first.
func (s *Service) ListResults(ctx context.Context, filter models.ResultFilter) ([]*models.CheckResult, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	checks, err := s.store.ListChecks(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list checks")
	}
	out := make([]*models.CheckResult, len(checks))
	for i, c := range checks {
		out[i] = models.NewCheckResult(c)
	}
	return out, nil
}

// Stats aggregates checks recorded in the last days days, optionally for a
// single marketplace. days defaults to 30.
func (s *Service) Stats(ctx context.Context, marketplace string, days int) (*models.Stats, error) {
	if days == 0 {
		days = models.DefaultStatsDays
	}
	if days < 1 || days > models.MaxStatsDays {
		return nil, dErrors.New(dErrors.CodeValidation, "days must be between 1 and 365")
	}
	filter := models.StatsFilter{Since: requestcontext.Now(ctx).AddDate(0, 0, -days)}
	if marketplace != "" {
		m, err := s.registry.ResolveMarketplace(marketplace)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "unknown marketplace")
		}
		filter.Marketplace = m.Code
	}
	stats, err := s.store.CheckStats(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}
	return stats, nil
}

// Catalog is the read-only reference data.
type Catalog struct {
	Marketplaces     []registry.Marketplace     `json:"marketplaces"`
	ViolationTypes   []registry.ViolationType   `json:"violation_types"`
	ActionThresholds []registry.ActionThreshold `json:"action_thresholds"`
}

// Reference returns the registry catalogs in deterministic order.
func (s *Service) Reference() Catalog {
	return Catalog{
		Marketplaces:     s.registry.Marketplaces(),
		ViolationTypes:   s.registry.ViolationTypes(),
		ActionThresholds: s.registry.Thresholds(),
	}
}

func (s *Service) cacheCheck(ctx context.Context, check *models.ComplianceCheck) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, check); err != nil {
		s.logger.WarnContext(ctx, "check cache write failed", "check_id", check.CheckID, "error", err)
	}
}
