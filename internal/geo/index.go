// Package geo ranks zip codes by planar distance for the search fallback.
//
// Distance is plain Euclidean distance in degree space, converted to miles
// with a flat 69 miles-per-degree factor. Both are deliberate
// approximations: they are only sound at the metro-area scale and latitude
// band this product targets, and they match the fixtures the legacy system
// was tuned against. Do not "fix" this to great-circle distance.
package geo

import (
	"math"
	"sort"

	"porchlight/internal/domain"
)

const milesPerDegree = 69.0

// Candidate is one zip ranked by its distance from the origin.
type Candidate struct {
	domain.ZipGeoEntry
	DistanceDegrees float64
}

func (c Candidate) DistanceMiles() float64 {
	return c.DistanceDegrees * milesPerDegree
}

// Index is an immutable in-memory view of the zip reference set.
type Index struct {
	byZip   map[string]domain.ZipGeoEntry
	entries []domain.ZipGeoEntry
}

func NewIndex(entries []domain.ZipGeoEntry) *Index {
	m := make(map[string]domain.ZipGeoEntry, len(entries))
	for _, e := range entries {
		m[e.Zip] = e
	}
	return &Index{byZip: m, entries: entries}
}

func (ix *Index) Get(zip string) (domain.ZipGeoEntry, bool) {
	e, ok := ix.byZip[zip]
	return e, ok
}

func (ix *Index) Len() int { return len(ix.entries) }

// Nearest returns every other zip sorted ascending by distance from the
// origin zip. Unknown origin yields nil. O(Z log Z), acceptable because Z
// is thousands and this only runs on the empty-result fallback path.
func (ix *Index) Nearest(originZip string) []Candidate {
	origin, ok := ix.byZip[originZip]
	if !ok {
		return nil
	}
	out := make([]Candidate, 0, len(ix.entries)-1)
	for _, e := range ix.entries {
		if e.Zip == originZip {
			continue
		}
		d := math.Sqrt(math.Pow(e.Lat-origin.Lat, 2) + math.Pow(e.Lng-origin.Lng, 2))
		out = append(out, Candidate{ZipGeoEntry: e, DistanceDegrees: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceDegrees < out[j].DistanceDegrees })
	return out
}
