package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/store"
	dErrors "listingwatch/pkg/domain-errors"
	"listingwatch/pkg/platform/sentinel"
	"listingwatch/pkg/requestcontext"
)

const (
	maxLearningLength       = 1000
	defaultLearningCategory = "general"
)

// CreateLearning stores a curated note. category defaults to "general".
func (s *Service) CreateLearning(ctx context.Context, text, category string) (*models.Learning, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "learning text is required")
	}
	if utf8.RuneCountInString(text) > maxLearningLength {
		return nil, dErrors.New(dErrors.CodeValidation, "learning text must be 1000 characters or fewer")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = defaultLearningCategory
	}

	id, err := newLearningID()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate learning id")
	}
	learning := &models.Learning{
		LearningID: id,
		Text:       text,
		Category:   category,
		CreatedAt:  requestcontext.Now(ctx).UTC(),
	}
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		return st.InsertLearning(ctx, learning)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "learning id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create learning")
	}
	s.logger.InfoContext(ctx, "learning created", "learning_id", id, "category", category)
	return learning, nil
}

// ListLearnings returns learnings newest first.
func (s *Service) ListLearnings(ctx context.Context, category string, limit int) ([]*models.Learning, error) {
	if limit == 0 {
		limit = models.DefaultListLimit
	}
	if limit < 1 || limit > models.MaxListLimit {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 200")
	}
	learnings, err := s.store.ListLearnings(ctx, strings.ToLower(strings.TrimSpace(category)), limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list learnings")
	}
	return learnings, nil
}

// DeleteLearning removes a learning, detaches it from every check and drops
// those checks from the cache.
func (s *Service) DeleteLearning(ctx context.Context, learningID string) error {
	var detached []string
	err := s.tx.RunInTx(ctx, func(st store.Store) error {
		var err error
		detached, err = st.DeleteLearning(ctx, learningID)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "learning not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete learning")
	}
	for _, checkID := range detached {
		s.invalidate(ctx, checkID)
	}
	s.logger.InfoContext(ctx, "learning deleted", "learning_id", learningID, "detached_checks", len(detached))
	return nil
}

// AttachLearning links a learning to a check. Attaching twice is a no-op.
func (s *Service) AttachLearning(ctx context.Context, checkID, learningID string) error {
	learningMissing := false
	err := s.tx.RunInTx(ctx, func(st store.Store) error {
		if _, err := st.FindLearning(ctx, learningID); err != nil {
			learningMissing = errors.Is(err, sentinel.ErrNotFound)
			return err
		}
		return st.AttachLearning(ctx, checkID, learningID)
	})
	if err != nil {
		switch {
		case learningMissing:
			return dErrors.Wrap(err, dErrors.CodeNotFound, "learning not found")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeNotFound, "check not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach learning")
	}
	s.invalidate(ctx, checkID)
	s.logger.InfoContext(ctx, "learning attached", "check_id", checkID, "learning_id", learningID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, checkID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, checkID); err != nil {
		s.logger.WarnContext(ctx, "check cache invalidation failed", "check_id", checkID, "error", err)
	}
}

func newLearningID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "learn-" + hex.EncodeToString(b), nil
}
