package app

import (
	"fmt"

	"porchlight/internal/domain"
)

const (
	defaultPageSize = 40
	maxCities       = 10 // hard platform limit on membership clauses
	browseOverfetch = 3  // browse mode fetches 3x and shuffles
)

// Plan is a validated, executable form of a FilterSpec. MinBeds/MinBaths
// are applied in memory after the fetch: the store composes at most one
// inequality field, and the price range owns it.
type Plan struct {
	Mode     domain.Mode
	Query    domain.ListingQuery
	PageSize int
	// ZipScope is the zip the query is pinned to, empty when location is
	// scoped by city/county or not at all. Only zip-scoped empty results
	// trigger the geo fallback.
	ZipScope string
	MinBeds  *float64
	MinBaths *float64
}

func sortable(f domain.Field) bool {
	switch f {
	case domain.FieldPrice, domain.FieldBeds, domain.FieldBaths, domain.FieldSqft:
		return true
	}
	return false
}

// BuildQuery turns a FilterSpec into a Plan, enforcing the store's
// composition rules up front so invalid combinations never reach it:
//
//   - a sort combined with a price range must sort on price_num
//     (rejected with ErrSortConflict otherwise, never silently dropped);
//   - at most 10 city values (ErrTooManyCities, never truncated);
//   - zip suppresses city/county; city list suppresses county;
//   - cursors are only honored in sorted mode and only when they replay
//     the same sort field and direction.
//
// zipOverride comes from the address promoter and outranks the spec's own
// zip.
func BuildQuery(spec domain.FilterSpec, zipOverride string) (Plan, error) {
	pageSize := spec.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	if len(spec.Cities) > maxCities {
		return Plan{}, fmt.Errorf("%w: got %d", domain.ErrTooManyCities, len(spec.Cities))
	}
	if spec.MinPrice != nil && spec.MaxPrice != nil && *spec.MinPrice > *spec.MaxPrice {
		return Plan{}, fmt.Errorf("%w: minPrice above maxPrice", domain.ErrInvalidFilter)
	}

	var order *domain.Order
	if spec.Order != nil {
		o := *spec.Order
		if !sortable(o.Field) {
			return Plan{}, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidFilter, o.Field)
		}
		if o.Direction != domain.Asc && o.Direction != domain.Desc {
			return Plan{}, fmt.Errorf("%w: bad sort direction %q", domain.ErrInvalidFilter, o.Direction)
		}
		hasPriceRange := spec.MinPrice != nil || spec.MaxPrice != nil
		if hasPriceRange && o.Field != domain.FieldPrice {
			return Plan{}, domain.ErrSortConflict
		}
		order = &o
	}

	p := Plan{PageSize: pageSize}

	// Location scope: zip override > explicit zip > city list > county.
	// Only the winning scope reaches the store.
	switch {
	case zipOverride != "":
		p.ZipScope = zipOverride
	case spec.Zip != nil && *spec.Zip != "":
		p.ZipScope = *spec.Zip
	}
	var cons []domain.Constraint
	switch {
	case p.ZipScope != "":
		cons = append(cons, domain.Constraint{Field: domain.FieldZip, Op: domain.OpEq, Value: p.ZipScope})
	case len(spec.Cities) > 0:
		cons = append(cons, domain.Constraint{Field: domain.FieldCity, Op: domain.OpIn, Values: spec.Cities})
	case spec.County != nil && *spec.County != "":
		cons = append(cons, domain.Constraint{Field: domain.FieldCounty, Op: domain.OpEq, Value: *spec.County})
	}

	if spec.MinPrice != nil {
		cons = append(cons, domain.Constraint{Field: domain.FieldPrice, Op: domain.OpGte, Value: *spec.MinPrice})
	}
	if spec.MaxPrice != nil {
		cons = append(cons, domain.Constraint{Field: domain.FieldPrice, Op: domain.OpLte, Value: *spec.MaxPrice})
	}
	if spec.Beds != nil {
		if spec.ExactBeds {
			cons = append(cons, domain.Constraint{Field: domain.FieldBeds, Op: domain.OpEq, Value: *spec.Beds})
		} else {
			p.MinBeds = spec.Beds
		}
	}
	p.MinBaths = spec.Baths

	if order == nil {
		// Browse mode: over-fetch, shuffle later, no paging.
		if spec.Cursor != nil && *spec.Cursor != "" {
			return Plan{}, fmt.Errorf("%w: cursor requires an explicit sort", domain.ErrInvalidCursor)
		}
		p.Mode = domain.ModeBrowse
		p.Query = domain.ListingQuery{Constraints: cons, Limit: pageSize * browseOverfetch}
		return p, nil
	}

	p.Mode = domain.ModeSorted
	p.Query = domain.ListingQuery{Constraints: cons, Order: order, Limit: pageSize}
	if spec.Cursor != nil && *spec.Cursor != "" {
		after, err := DecodeCursor(*spec.Cursor, *order)
		if err != nil {
			return Plan{}, err
		}
		p.Query.After = &after
	}
	return p, nil
}

// matchesPostFilters applies the beds/baths minimums the store query could
// not carry.
func (p Plan) matchesPostFilters(l domain.Listing) bool {
	if p.MinBeds != nil && l.BedsNum < *p.MinBeds {
		return false
	}
	if p.MinBaths != nil && l.BathsNum < *p.MinBaths {
		return false
	}
	return true
}

func (p Plan) applyPostFilters(items []domain.Listing) []domain.Listing {
	if p.MinBeds == nil && p.MinBaths == nil {
		return items
	}
	out := items[:0:0]
	for _, l := range items {
		if p.matchesPostFilters(l) {
			out = append(out, l)
		}
	}
	return out
}
