package app

import (
	"context"
	"math"

	"porchlight/internal/adapters/observability"
	"porchlight/internal/domain"
	"porchlight/internal/geo"
)

const zipGeoCacheKey = "zipgeo:all"

// loadZipIndex builds the in-memory zip index, going through the cache
// first; the reference set is immutable so a long TTL is fine.
func (s *SearchService) loadZipIndex(ctx context.Context) (*geo.Index, error) {
	var entries []domain.ZipGeoEntry
	if ok, _ := s.cache.Get(ctx, zipGeoCacheKey, &entries); !ok {
		var err error
		entries, err = s.zips.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, zipGeoCacheKey, entries, int(s.zipTTL.Seconds()))
	}
	return geo.NewIndex(entries), nil
}

// runFallback retries the zip-scoped query against the nearest zips in
// distance order until one yields results. Unknown origin zip and an
// exhausted candidate list both resolve to a valid empty page, never an
// error. Worst case is O(Z) sequential re-queries; Z is small and this
// path only fires on an empty primary result, so the simplicity wins. The
// loop stops as soon as the caller's context is cancelled.
func (s *SearchService) runFallback(ctx context.Context, p Plan, originZip string) (domain.ListingPage, []domain.Listing, *domain.FallbackInfo, error) {
	ix, err := s.loadZipIndex(ctx)
	if err != nil {
		return domain.ListingPage{}, nil, nil, err
	}
	cands := ix.Nearest(originZip)
	if cands == nil {
		observability.ObserveFallback("unknown_zip")
		return domain.ListingPage{}, nil, nil, nil
	}

	// The incoming cursor carries into every retry: a fallback page that
	// fills up hands out a cursor, and replaying it must resume after the
	// rows already shown instead of re-serving page one.
	q := p.Query
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return domain.ListingPage{}, nil, nil, err
		}
		q.Constraints = swapZip(p.Query.Constraints, c.Zip)
		page, err := s.store.Search(ctx, q)
		if err != nil {
			return domain.ListingPage{}, nil, nil, err
		}
		items := p.applyPostFilters(page.Items)
		if len(items) == 0 {
			continue
		}
		observability.ObserveFallback("resolved")
		info := &domain.FallbackInfo{
			OriginZip:      originZip,
			FallbackZip:    c.Zip,
			FallbackCity:   c.City,
			FallbackCounty: c.PrimaryCounty(),
			DistanceMiles:  math.Round(c.DistanceMiles()*10) / 10,
		}
		return page, items, info, nil
	}
	observability.ObserveFallback("exhausted")
	return domain.ListingPage{}, nil, nil, nil
}

func swapZip(cons []domain.Constraint, zip string) []domain.Constraint {
	out := make([]domain.Constraint, len(cons))
	copy(out, cons)
	for i := range out {
		if out[i].Field == domain.FieldZip && out[i].Op == domain.OpEq {
			out[i].Value = zip
		}
	}
	return out
}
