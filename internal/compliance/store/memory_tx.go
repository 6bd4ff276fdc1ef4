package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/registry"
	"listingwatch/pkg/platform/sentinel"
)

// memTx operates on the arena without locking; the owning InMemory holds the
// lock. Every mutation pushes its inverse onto undo.
type memTx struct {
	g    *graph
	undo []func()
}

func (t *memTx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) FindCheck(_ context.Context, checkID string) (*models.ComplianceCheck, error) {
	c, ok := t.g.checks[checkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.withLearnings(c), nil
}

func (t *memTx) InsertCheck(_ context.Context, check *models.ComplianceCheck) error {
	if _, exists := t.g.checks[check.CheckID]; exists {
		return fmt.Errorf("insert check %s: %w", check.CheckID, sentinel.ErrConflict)
	}
	if _, ok := t.g.products[check.ProductASIN]; !ok {
		return fmt.Errorf("insert check %s: product %s: %w", check.CheckID, check.ProductASIN, sentinel.ErrNotFound)
	}
	if check.SellerID != nil {
		if _, ok := t.g.sellers[*check.SellerID]; !ok {
			return fmt.Errorf("insert check %s: seller %s: %w", check.CheckID, *check.SellerID, sentinel.ErrNotFound)
		}
	}
	seen := make(map[string]struct{}, len(check.Violations))
	for _, v := range check.Violations {
		if _, taken := t.g.violationIDs[v.ViolationID]; taken {
			return fmt.Errorf("insert violation %s: %w", v.ViolationID, sentinel.ErrConflict)
		}
		if _, dup := seen[v.ViolationID]; dup {
			return fmt.Errorf("insert violation %s: %w", v.ViolationID, sentinel.ErrConflict)
		}
		seen[v.ViolationID] = struct{}{}
	}

	stored := cloneCheck(check)
	stored.LearningIDs = nil
	t.g.checks[check.CheckID] = stored
	for id := range seen {
		t.g.violationIDs[id] = check.CheckID
	}
	t.record(func() {
		delete(t.g.checks, check.CheckID)
		for id := range seen {
			delete(t.g.violationIDs, id)
		}
	})
	return nil
}

func (t *memTx) ListChecks(_ context.Context, filter models.ResultFilter) ([]*models.ComplianceCheck, error) {
	matched := make([]*models.ComplianceCheck, 0)
	for _, c := range t.g.checks {
		if filter.Matches(c) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CheckedAt.Equal(matched[j].CheckedAt) {
			return matched[i].CheckedAt.After(matched[j].CheckedAt)
		}
		return matched[i].CheckID > matched[j].CheckID
	})

	if filter.Offset >= len(matched) {
		return []*models.ComplianceCheck{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	out := make([]*models.ComplianceCheck, len(matched))
	for i, c := range matched {
		out[i] = t.withLearnings(c)
	}
	return out, nil
}

func (t *memTx) CheckStats(_ context.Context, filter models.StatsFilter) (*models.Stats, error) {
	stats := &models.Stats{TopViolationTypes: []models.ViolationTypeCount{}}
	products := make(map[string]struct{})
	typeCounts := make(map[string]int)
	scoreSum := 0

	for _, c := range t.g.checks {
		if filter.Marketplace != "" && c.MarketplaceCode != filter.Marketplace {
			continue
		}
		if c.CheckedAt.Before(filter.Since) {
			continue
		}
		stats.TotalChecks++
		products[c.ProductASIN] = struct{}{}
		scoreSum += c.ViolationScore
		switch {
		case c.ViolationScore >= 61:
			stats.HighRiskCount++
		case c.ViolationScore >= 31:
			stats.MediumRiskCount++
		case c.ViolationScore >= 1:
			stats.LowRiskCount++
		default:
			stats.ClearCount++
		}
		for _, v := range c.Violations {
			stats.TotalViolations++
			typeCounts[v.Type]++
		}
	}

	stats.TotalProducts = len(products)
	if stats.TotalChecks > 0 {
		stats.AvgViolationScore = roundTenth(float64(scoreSum) / float64(stats.TotalChecks))
	}
	stats.TopViolationTypes = topTypes(typeCounts)
	return stats, nil
}

func (t *memTx) FindProduct(_ context.Context, asin string) (*models.Product, error) {
	p, ok := t.g.products[asin]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) UpsertProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	owner, urlTaken := t.g.productURLs[product.URL]
	if urlTaken && owner != product.ASIN {
		return nil, fmt.Errorf("upsert product %s: url owned by %s: %w", product.ASIN, owner, sentinel.ErrConflict)
	}

	existing, ok := t.g.products[product.ASIN]
	if !ok {
		stored := *product
		t.g.products[product.ASIN] = &stored
		t.g.productURLs[product.URL] = product.ASIN
		t.record(func() {
			delete(t.g.products, product.ASIN)
			delete(t.g.productURLs, product.URL)
		})
		cp := stored
		return &cp, nil
	}

	if product.LastCheckedAt.Before(existing.LastCheckedAt) {
		cp := *existing
		return &cp, nil
	}

	prev := *existing
	existing.URL = product.URL
	existing.Title = product.Title
	existing.FulfilledBy = product.FulfilledBy
	existing.CurrentRiskScore = product.CurrentRiskScore
	existing.LastCheckedAt = product.LastCheckedAt
	existing.UpdatedAt = product.UpdatedAt
	if prev.URL != product.URL {
		delete(t.g.productURLs, prev.URL)
		t.g.productURLs[product.URL] = product.ASIN
	}
	t.record(func() {
		if prev.URL != product.URL {
			delete(t.g.productURLs, product.URL)
			t.g.productURLs[prev.URL] = prev.ASIN
		}
		*existing = prev
	})
	cp := *existing
	return &cp, nil
}

func (t *memTx) FindSeller(_ context.Context, sellerID string) (*models.Seller, error) {
	s, ok := t.g.sellers[sellerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *memTx) UpsertSeller(_ context.Context, seller *models.Seller) (*models.Seller, error) {
	existing, ok := t.g.sellers[seller.SellerID]
	if !ok {
		stored := *seller
		t.g.sellers[seller.SellerID] = &stored
		t.record(func() { delete(t.g.sellers, seller.SellerID) })
		cp := stored
		return &cp, nil
	}

	prev := *existing
	if seller.Name != "" {
		existing.Name = seller.Name
	}
	if seller.Website != "" {
		existing.Website = seller.Website
	}
	existing.UpdatedAt = seller.UpdatedAt
	t.record(func() { *existing = prev })
	cp := *existing
	return &cp, nil
}

func (t *memTx) InsertComplaintPack(_ context.Context, pack *models.ComplaintPack) error {
	if _, ok := t.g.checks[pack.CheckID]; !ok {
		return fmt.Errorf("insert complaint pack %s: check %s: %w", pack.ComplaintID, pack.CheckID, sentinel.ErrNotFound)
	}
	if _, exists := t.g.packs[pack.CheckID]; exists {
		return fmt.Errorf("insert complaint pack for %s: %w", pack.CheckID, sentinel.ErrConflict)
	}
	if _, exists := t.g.packIDs[pack.ComplaintID]; exists {
		return fmt.Errorf("insert complaint pack %s: %w", pack.ComplaintID, sentinel.ErrConflict)
	}
	t.g.packs[pack.CheckID] = clonePack(pack)
	t.g.packIDs[pack.ComplaintID] = pack.CheckID
	t.record(func() {
		delete(t.g.packs, pack.CheckID)
		delete(t.g.packIDs, pack.ComplaintID)
	})
	return nil
}

func (t *memTx) FindComplaintPack(_ context.Context, checkID string) (*models.ComplaintPack, error) {
	p, ok := t.g.packs[checkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePack(p), nil
}

func (t *memTx) AppendOutbox(_ context.Context, entry *models.OutboxEntry) error {
	if _, exists := t.g.outbox[entry.ID]; exists {
		return fmt.Errorf("append outbox %s: %w", entry.ID, sentinel.ErrConflict)
	}
	stored := *entry
	stored.Payload = append([]byte(nil), entry.Payload...)
	t.g.outbox[entry.ID] = &stored
	t.g.outboxOrder = append(t.g.outboxOrder, entry.ID)
	t.record(func() {
		delete(t.g.outbox, entry.ID)
		t.g.outboxOrder = t.g.outboxOrder[:len(t.g.outboxOrder)-1]
	})
	return nil
}

func (t *memTx) PendingOutbox(_ context.Context, limit int) ([]*models.OutboxEntry, error) {
	out := make([]*models.OutboxEntry, 0)
	for _, id := range t.g.outboxOrder {
		e := t.g.outbox[id]
		if e.PublishedAt != nil {
			continue
		}
		cp := *e
		cp.Payload = append([]byte(nil), e.Payload...)
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *memTx) MarkOutboxPublished(_ context.Context, id string, at time.Time) error {
	e, ok := t.g.outbox[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	prev := e.PublishedAt
	published := at
	e.PublishedAt = &published
	t.record(func() { e.PublishedAt = prev })
	return nil
}

func (t *memTx) TouchKeyword(_ context.Context, keyword *models.Keyword) (*models.Keyword, error) {
	key := keywordKey(keyword.Text, keyword.MarketplaceCode)
	existing, ok := t.g.keywords[key]
	if !ok {
		if _, taken := t.g.keywordIDs[keyword.KeywordID]; taken {
			return nil, fmt.Errorf("insert keyword %s: %w", keyword.KeywordID, sentinel.ErrConflict)
		}
		stored := *keyword
		stored.SearchCount = 1
		t.g.keywords[key] = &stored
		t.g.keywordIDs[stored.KeywordID] = key
		t.record(func() {
			delete(t.g.keywords, key)
			delete(t.g.keywordIDs, stored.KeywordID)
		})
		cp := stored
		return &cp, nil
	}

	prev := *existing
	existing.SearchCount++
	if keyword.LastSearched.After(existing.LastSearched) {
		existing.LastSearched = keyword.LastSearched
	}
	t.record(func() { *existing = prev })
	cp := *existing
	return &cp, nil
}

func (t *memTx) ListKeywords(_ context.Context, marketplace string) ([]*models.Keyword, error) {
	out := make([]*models.Keyword, 0, len(t.g.keywords))
	for _, k := range t.g.keywords {
		if marketplace != "" && k.MarketplaceCode != marketplace {
			continue
		}
		cp := *k
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSearched.Equal(out[j].LastSearched) {
			return out[i].LastSearched.After(out[j].LastSearched)
		}
		return out[i].KeywordID < out[j].KeywordID
	})
	return out, nil
}

func (t *memTx) InsertLearning(_ context.Context, learning *models.Learning) error {
	if _, exists := t.g.learnings[learning.LearningID]; exists {
		return fmt.Errorf("insert learning %s: %w", learning.LearningID, sentinel.ErrConflict)
	}
	stored := *learning
	t.g.learnings[learning.LearningID] = &stored
	t.record(func() { delete(t.g.learnings, learning.LearningID) })
	return nil
}

func (t *memTx) FindLearning(_ context.Context, learningID string) (*models.Learning, error) {
	l, ok := t.g.learnings[learningID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (t *memTx) ListLearnings(_ context.Context, category string, limit int) ([]*models.Learning, error) {
	out := make([]*models.Learning, 0)
	for _, l := range t.g.learnings {
		if category != "" && l.Category != category {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].LearningID < out[j].LearningID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) DeleteLearning(_ context.Context, learningID string) ([]string, error) {
	l, ok := t.g.learnings[learningID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(t.g.learnings, learningID)

	detached := make(map[string][]string)
	checkIDs := make([]string, 0)
	for checkID, ids := range t.g.attachments {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != learningID {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(ids) {
			detached[checkID] = ids
			checkIDs = append(checkIDs, checkID)
			t.g.attachments[checkID] = kept
		}
	}
	t.record(func() {
		t.g.learnings[learningID] = l
		for checkID, ids := range detached {
			t.g.attachments[checkID] = ids
		}
	})
	sort.Strings(checkIDs)
	return checkIDs, nil
}

func (t *memTx) AttachLearning(_ context.Context, checkID, learningID string) error {
	if _, ok := t.g.checks[checkID]; !ok {
		return fmt.Errorf("attach learning: check %s: %w", checkID, sentinel.ErrNotFound)
	}
	if _, ok := t.g.learnings[learningID]; !ok {
		return fmt.Errorf("attach learning: learning %s: %w", learningID, sentinel.ErrNotFound)
	}
	prev := t.g.attachments[checkID]
	for _, id := range prev {
		if id == learningID {
			return nil
		}
	}
	next := make([]string, len(prev), len(prev)+1)
	copy(next, prev)
	t.g.attachments[checkID] = append(next, learningID)
	t.record(func() {
		if prev == nil {
			delete(t.g.attachments, checkID)
			return
		}
		t.g.attachments[checkID] = prev
	})
	return nil
}

func (t *memTx) withLearnings(c *models.ComplianceCheck) *models.ComplianceCheck {
	out := cloneCheck(c)
	if ids := t.g.attachments[c.CheckID]; len(ids) > 0 {
		out.LearningIDs = append([]string(nil), ids...)
	}
	return out
}

func cloneCheck(c *models.ComplianceCheck) *models.ComplianceCheck {
	out := *c
	if c.SellerID != nil {
		id := *c.SellerID
		out.SellerID = &id
	}
	out.Violations = append([]models.Violation(nil), c.Violations...)
	out.LearningIDs = append([]string(nil), c.LearningIDs...)
	if c.Breakdown.SeverityBreakdown != nil {
		out.Breakdown.SeverityBreakdown = make(map[registry.Severity]int, len(c.Breakdown.SeverityBreakdown))
		for k, v := range c.Breakdown.SeverityBreakdown {
			out.Breakdown.SeverityBreakdown[k] = v
		}
	}
	return &out
}

func clonePack(p *models.ComplaintPack) *models.ComplaintPack {
	out := *p
	if p.SellerID != nil {
		id := *p.SellerID
		out.SellerID = &id
	}
	out.Evidence = append([]models.Violation(nil), p.Evidence...)
	return &out
}

// topTypes orders type counts by count desc, then code.
func topTypes(counts map[string]int) []models.ViolationTypeCount {
	out := make([]models.ViolationTypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, models.ViolationTypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > models.TopViolationTypesLimit {
		out = out[:models.TopViolationTypesLimit]
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
