package app

import (
	"context"
	"math/rand"
	"time"

	"porchlight/internal/domain"
)

// SearchService is the single search entry point. Both the public HTTP
// endpoint and any internal callers go through it, so the precedence and
// fallback rules live in exactly one place.
type SearchService struct {
	store       domain.ListingStore
	zips        domain.ZipGeoRepository
	cache       domain.Cache
	zipTTL      time.Duration
	defaultCity string
}

func NewSearchService(store domain.ListingStore, zips domain.ZipGeoRepository, cache domain.Cache, zipTTL time.Duration, defaultCity string) *SearchService {
	return &SearchService{store: store, zips: zips, cache: cache, zipTTL: zipTTL, defaultCity: defaultCity}
}

// Search sequences: free-text resolution, constraint build, primary query,
// zip fallback on empty, promotion, response assembly.
func (s *SearchService) Search(ctx context.Context, spec domain.FilterSpec) (domain.SearchResult, error) {
	var promo promotion
	if spec.CitySearch != nil {
		var err error
		promo, err = s.resolveCitySearch(ctx, *spec.CitySearch)
		if err != nil {
			return domain.SearchResult{}, err
		}
		if promo.city != "" && promo.zip == "" && spec.Zip == nil && len(spec.Cities) == 0 {
			spec.Cities = []string{promo.city}
		}
	}

	plan, err := BuildQuery(spec, promo.zip)
	if err != nil {
		return domain.SearchResult{}, err
	}

	if spec.Cursor != nil && *spec.Cursor != "" {
		// The pinned match belongs to the first page only; cursor pages
		// keep its zip scope but replay the plain sorted sequence.
		promo.listing = nil
	}
	if promo.listing != nil && plan.Mode == domain.ModeSorted {
		// Reserve a slot for the pinned match. The next cursor comes from
		// the last fetched row, so that row must survive the final trim.
		plan.Query.Limit = plan.PageSize - 1
	}

	page, err := s.store.Search(ctx, plan.Query)
	if err != nil {
		return domain.SearchResult{}, err
	}
	items := plan.applyPostFilters(page.Items)

	var fb *domain.FallbackInfo
	if len(items) == 0 && plan.ZipScope != "" {
		page, items, fb, err = s.runFallback(ctx, plan, plan.ZipScope)
		if err != nil {
			return domain.SearchResult{}, err
		}
	}

	res := domain.SearchResult{Fallback: fb}
	switch plan.Mode {
	case domain.ModeBrowse:
		// Variety over strict paging: shuffle the over-fetched set and
		// never hand out a cursor.
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		if len(items) > plan.PageSize {
			items = items[:plan.PageSize]
		}
	case domain.ModeSorted:
		if !page.Short && len(page.Items) > 0 && page.Last != nil {
			c := EncodeCursor(*page.Last)
			res.NextCursor = &c
		}
	}

	items = promote(promo.listing, items)
	if len(items) > plan.PageSize {
		items = items[:plan.PageSize]
	}
	res.Listings = items
	return res, nil
}

const recommendedCount = 6

// Recommended returns the top-priced listings for a city, falling back to
// the configured default city when the requested one is empty.
func (s *SearchService) Recommended(ctx context.Context, city string) ([]domain.Listing, error) {
	if city == "" {
		city = s.defaultCity
	}
	items, err := s.topPriced(ctx, city)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && city != s.defaultCity {
		return s.topPriced(ctx, s.defaultCity)
	}
	return items, nil
}

func (s *SearchService) topPriced(ctx context.Context, city string) ([]domain.Listing, error) {
	page, err := s.store.Search(ctx, domain.ListingQuery{
		Constraints: []domain.Constraint{{Field: domain.FieldCity, Op: domain.OpEq, Value: city}},
		Order:       &domain.Order{Field: domain.FieldPrice, Direction: domain.Desc},
		Limit:       recommendedCount,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
