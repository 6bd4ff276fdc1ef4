package service

import (
	"context"

	"github.com/google/uuid"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/store"
	dErrors "listingwatch/pkg/domain-errors"
	strutil "listingwatch/pkg/platform/strings"
	"listingwatch/pkg/requestcontext"
)

const maxKeywordLength = 200

// TouchKeyword records a search for text on marketplaceCode. The first search
// creates the keyword; later ones bump its count and last-searched time.
func (s *Service) TouchKeyword(ctx context.Context, text, marketplaceCode string) (*models.Keyword, error) {
	text = strutil.CollapseSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "keyword text is required")
	}
	if len([]rune(text)) > maxKeywordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "keyword text must be 200 characters or fewer")
	}
	marketplace, err := s.registry.ResolveMarketplace(marketplaceCode)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "unknown marketplace")
	}

	now := requestcontext.Now(ctx).UTC()
	var touched *models.Keyword
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		var txErr error
		touched, txErr = st.TouchKeyword(ctx, &models.Keyword{
			KeywordID:       "kw-" + uuid.NewString(),
			Text:            text,
			MarketplaceCode: marketplace.Code,
			CreatedAt:       now,
			LastSearched:    now,
		})
		return txErr
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeTimeout {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to touch keyword")
	}

	s.metrics.IncrementKeywordTouch(marketplace.Code)
	s.logger.InfoContext(ctx, "keyword touched",
		"keyword_id", touched.KeywordID,
		"marketplace", touched.MarketplaceCode,
		"search_count", touched.SearchCount,
	)
	return touched, nil
}

// ListKeywords returns tracked keywords, most recently searched first. An
// empty marketplace lists every marketplace.
func (s *Service) ListKeywords(ctx context.Context, marketplace string) ([]*models.Keyword, error) {
	code := ""
	if marketplace != "" {
		m, err := s.registry.ResolveMarketplace(marketplace)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "unknown marketplace")
		}
		code = m.Code
	}
	keywords, err := s.store.ListKeywords(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list keywords")
	}
	return keywords, nil
}
