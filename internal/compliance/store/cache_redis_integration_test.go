//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/store"
	"listingwatch/internal/registry"
	"listingwatch/pkg/platform/sentinel"
	"listingwatch/pkg/testutil/containers"
)

type RedisCheckCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *store.RedisCheckCache
}

func TestRedisCheckCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCheckCacheSuite))
}

func (s *RedisCheckCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = store.NewRedisCheckCache(s.redis.Client, store.WithCacheTTL(time.Minute))
}

func (s *RedisCheckCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCheckCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	sellerID := "A1"
	check := &models.ComplianceCheck{
		CheckID:           "chk-cache",
		State:             models.CheckStateRecorded,
		CheckedAt:         time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		ProductASIN:       "B0CACHE001",
		SellerID:          &sellerID,
		MarketplaceCode:   "de",
		ViolationScore:    35,
		RecommendedAction: registry.ActionReview,
		Violations: []models.Violation{
			{ViolationID: "chk-cache-v0", CheckID: "chk-cache", Type: "age_claim_without_ce", Severity: registry.SeverityCritical, Points: 35},
		},
	}

	_, err := s.cache.Get(ctx, "chk-cache")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.cache.Set(ctx, check))
	got, err := s.cache.Get(ctx, "chk-cache")
	s.Require().NoError(err)
	s.Equal(check.CheckID, got.CheckID)
	s.Equal("A1", *got.SellerID)
	s.Equal(check.Violations, got.Violations)

	ttl, err := s.redis.Client.TTL(ctx, "listingwatch:check:chk-cache").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)

	s.Require().NoError(s.cache.Delete(ctx, "chk-cache"))
	_, err = s.cache.Get(ctx, "chk-cache")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
