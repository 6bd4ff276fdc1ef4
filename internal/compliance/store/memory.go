package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"listingwatch/internal/compliance/models"
	dErrors "listingwatch/pkg/domain-errors"
)

// defaultTxTimeout bounds an in-memory transaction when ctx has no deadline.
const defaultTxTimeout = 5 * time.Second

// graph is the arena: every node lives in a map keyed by its natural key and
// nodes refer to each other by key.
type graph struct {
	products     map[string]*models.Product
	productURLs  map[string]string // url -> asin
	sellers      map[string]*models.Seller
	checks       map[string]*models.ComplianceCheck
	violationIDs map[string]string // violation id -> check id
	packs        map[string]*models.ComplaintPack
	packIDs      map[string]string // complaint id -> check id
	outbox       map[string]*models.OutboxEntry
	outboxOrder  []string
	keywords     map[string]*models.Keyword // keywordKey -> keyword
	keywordIDs   map[string]string
	learnings    map[string]*models.Learning
	attachments  map[string][]string // check id -> learning ids
}

// InMemory is a Store backed by process memory. Writes through RunInTx are
// serialized and rolled back from an undo journal when fn fails.
type InMemory struct {
	mu      sync.RWMutex
	g       graph
	timeout time.Duration
}

// NewInMemory creates an empty in-memory graph.
func NewInMemory() *InMemory {
	return &InMemory{
		g: graph{
			products:     make(map[string]*models.Product),
			productURLs:  make(map[string]string),
			sellers:      make(map[string]*models.Seller),
			checks:       make(map[string]*models.ComplianceCheck),
			violationIDs: make(map[string]string),
			packs:        make(map[string]*models.ComplaintPack),
			packIDs:      make(map[string]string),
			outbox:       make(map[string]*models.OutboxEntry),
			keywords:     make(map[string]*models.Keyword),
			keywordIDs:   make(map[string]string),
			learnings:    make(map[string]*models.Learning),
			attachments:  make(map[string][]string),
		},
	}
}

// WithTimeout overrides the default transaction timeout.
func (s *InMemory) WithTimeout(d time.Duration) *InMemory {
	s.timeout = d
	return s
}

// RunInTx runs fn with exclusive access to the graph. If fn returns an error
// or ctx expires, every write fn made is undone.
func (s *InMemory) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	tx := &memTx{g: &s.g}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return nil
}

func (s *InMemory) read() (*memTx, func()) {
	s.mu.RLock()
	return &memTx{g: &s.g}, s.mu.RUnlock
}

func (s *InMemory) write() (*memTx, func()) {
	s.mu.Lock()
	return &memTx{g: &s.g}, s.mu.Unlock
}

func (s *InMemory) FindCheck(ctx context.Context, checkID string) (*models.ComplianceCheck, error) {
	tx, done := s.read()
	defer done()
	return tx.FindCheck(ctx, checkID)
}

func (s *InMemory) InsertCheck(ctx context.Context, check *models.ComplianceCheck) error {
	tx, done := s.write()
	defer done()
	return tx.InsertCheck(ctx, check)
}

func (s *InMemory) ListChecks(ctx context.Context, filter models.ResultFilter) ([]*models.ComplianceCheck, error) {
	tx, done := s.read()
	defer done()
	return tx.ListChecks(ctx, filter)
}

func (s *InMemory) CheckStats(ctx context.Context, filter models.StatsFilter) (*models.Stats, error) {
	tx, done := s.read()
	defer done()
	return tx.CheckStats(ctx, filter)
}

func (s *InMemory) FindProduct(ctx context.Context, asin string) (*models.Product, error) {
	tx, done := s.read()
	defer done()
	return tx.FindProduct(ctx, asin)
}

func (s *InMemory) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	tx, done := s.write()
	defer done()
	return tx.UpsertProduct(ctx, product)
}

func (s *InMemory) FindSeller(ctx context.Context, sellerID string) (*models.Seller, error) {
	tx, done := s.read()
	defer done()
	return tx.FindSeller(ctx, sellerID)
}

func (s *InMemory) UpsertSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	tx, done := s.write()
	defer done()
	return tx.UpsertSeller(ctx, seller)
}

func (s *InMemory) InsertComplaintPack(ctx context.Context, pack *models.ComplaintPack) error {
	tx, done := s.write()
	defer done()
	return tx.InsertComplaintPack(ctx, pack)
}

func (s *InMemory) FindComplaintPack(ctx context.Context, checkID string) (*models.ComplaintPack, error) {
	tx, done := s.read()
	defer done()
	return tx.FindComplaintPack(ctx, checkID)
}

func (s *InMemory) AppendOutbox(ctx context.Context, entry *models.OutboxEntry) error {
	tx, done := s.write()
	defer done()
	return tx.AppendOutbox(ctx, entry)
}

func (s *InMemory) PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error) {
	tx, done := s.read()
	defer done()
	return tx.PendingOutbox(ctx, limit)
}

func (s *InMemory) MarkOutboxPublished(ctx context.Context, id string, at time.Time) error {
	tx, done := s.write()
	defer done()
	return tx.MarkOutboxPublished(ctx, id, at)
}

func (s *InMemory) TouchKeyword(ctx context.Context, keyword *models.Keyword) (*models.Keyword, error) {
	tx, done := s.write()
	defer done()
	return tx.TouchKeyword(ctx, keyword)
}

func (s *InMemory) ListKeywords(ctx context.Context, marketplace string) ([]*models.Keyword, error) {
	tx, done := s.read()
	defer done()
	return tx.ListKeywords(ctx, marketplace)
}

func (s *InMemory) InsertLearning(ctx context.Context, learning *models.Learning) error {
	tx, done := s.write()
	defer done()
	return tx.InsertLearning(ctx, learning)
}

func (s *InMemory) FindLearning(ctx context.Context, learningID string) (*models.Learning, error) {
	tx, done := s.read()
	defer done()
	return tx.FindLearning(ctx, learningID)
}

func (s *InMemory) ListLearnings(ctx context.Context, category string, limit int) ([]*models.Learning, error) {
	tx, done := s.read()
	defer done()
	return tx.ListLearnings(ctx, category, limit)
}

func (s *InMemory) DeleteLearning(ctx context.Context, learningID string) ([]string, error) {
	tx, done := s.write()
	defer done()
	return tx.DeleteLearning(ctx, learningID)
}

func (s *InMemory) AttachLearning(ctx context.Context, checkID, learningID string) error {
	tx, done := s.write()
	defer done()
	return tx.AttachLearning(ctx, checkID, learningID)
}

// keywordKey is the composite identity of a keyword.
func keywordKey(text, marketplace string) string {
	return strings.ToLower(text) + "\x00" + marketplace
}
