package domain

import "context"

type ListingStore interface {
	// Search runs one composed query and returns a raw page. Store errors
	// propagate verbatim; callers decide whether to retry with a
	// different query.
	Search(ctx context.Context, q ListingQuery) (ListingPage, error)
	// GetByAddress is the exact-match lookup. ErrNotFound on miss.
	GetByAddress(ctx context.Context, address string) (Listing, error)
}

// ZipGeoRepository serves the immutable zip reference set. The set is
// small (thousands of rows) and always read in full.
type ZipGeoRepository interface {
	LoadAll(ctx context.Context) ([]ZipGeoEntry, error)
}

type UserRepository interface {
	// ConsumeValuation increments the user's valuation counter, creating
	// the user row on first use. ErrQuotaExceeded when a non-admin user is
	// at the limit.
	ConsumeValuation(ctx context.Context, userID, email string, limit int) error
	AddInquiry(ctx context.Context, userID, address string) error
}

type ValuationClient interface {
	Value(ctx context.Context, address string) (Valuation, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
