package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"porchlight/internal/domain"
)

// ValuationService wraps the AVM lookup with per-user quota accounting and
// a response cache keyed by address.
type ValuationService struct {
	client    domain.ValuationClient
	users     domain.UserRepository
	cache     domain.Cache
	freeLimit int
	cacheTTL  time.Duration
}

func NewValuationService(c domain.ValuationClient, u domain.UserRepository, cache domain.Cache, freeLimit int, ttl time.Duration) *ValuationService {
	return &ValuationService{client: c, users: u, cache: cache, freeLimit: freeLimit, cacheTTL: ttl}
}

// Value charges the user's quota before any upstream call; a cached hit
// still counts against the quota, matching the legacy billing behavior.
func (s *ValuationService) Value(ctx context.Context, userID, email, address string) (domain.Valuation, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Valuation{}, fmt.Errorf("%w: address is required", domain.ErrInvalidFilter)
	}
	if err := s.users.ConsumeValuation(ctx, userID, email, s.freeLimit); err != nil {
		return domain.Valuation{}, err
	}

	key := "avm:" + strings.ToLower(address)
	var v domain.Valuation
	if ok, _ := s.cache.Get(ctx, key, &v); ok {
		return v, nil
	}
	v, err := s.client.Value(ctx, address)
	if err != nil {
		return domain.Valuation{}, err
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	return v, nil
}

type InquiryService struct {
	users domain.UserRepository
}

func NewInquiryService(u domain.UserRepository) *InquiryService { return &InquiryService{users: u} }

func (s *InquiryService) Record(ctx context.Context, userID, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrInvalidFilter)
	}
	return s.users.AddInquiry(ctx, userID, address)
}
