package app

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"porchlight/internal/domain"
)

var (
	// A specific street address starts with a house number followed by at
	// least one word, e.g. "123 Main St". Bare city/zip/county tokens do
	// not match.
	streetAddressRe = regexp.MustCompile(`^\d+\s+\S+`)
	zipTokenRe      = regexp.MustCompile(`\b\d{5}\b`)
)

// promotion is the outcome of the free-text pass: an optional listing to
// pin at the top of the page, an optional zip to scope the rest of the
// search, and an optional city guess for plain-text input.
type promotion struct {
	listing *domain.Listing
	zip     string
	city    string
}

// resolveCitySearch handles the free-text query. Address-looking input is
// tried as an exact address match; a hit is promoted and its zip scopes
// the generic search. Otherwise a 5-digit token becomes the zip scope, and
// failing that the text is treated as a city name.
func (s *SearchService) resolveCitySearch(ctx context.Context, q string) (promotion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return promotion{}, nil
	}
	if streetAddressRe.MatchString(q) {
		l, err := s.store.GetByAddress(ctx, q)
		switch {
		case err == nil:
			return promotion{listing: &l, zip: l.Zip}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return promotion{}, err
		}
	}
	if z := zipTokenRe.FindString(q); z != "" {
		return promotion{zip: z}, nil
	}
	if streetAddressRe.MatchString(q) {
		// Address-looking but unmatched and no zip token: nothing to scope.
		return promotion{}, nil
	}
	return promotion{city: q}, nil
}

// promote pins the matched listing to index 0, dropping any duplicate the
// generic query also returned.
func promote(match *domain.Listing, items []domain.Listing) []domain.Listing {
	if match == nil {
		return items
	}
	out := make([]domain.Listing, 0, len(items)+1)
	out = append(out, *match)
	for _, l := range items {
		if l.ID != match.ID {
			out = append(out, l)
		}
	}
	return out
}
