package domain

import "strings"

// Listing is a property record as served to search. The *Num fields are
// normalized numeric copies of the human-entered display strings (Price,
// Beds, Baths, Sqft); the backfill process keeps them in sync and search
// only ever reads the numeric copies.
type Listing struct {
	ID       int64
	Address  string
	City     string
	County   string
	Zip      string
	Price    string
	Beds     string
	Baths    string
	Sqft     string
	PriceNum float64
	BedsNum  float64
	BathsNum float64
	SqftNum  float64
	Coords   *Coords
	Images   []string
	Blurb    *string
}

type Coords struct{ Lat, Lng float64 }

// ZipGeoEntry is one row of the static zip reference set. CountyNames is
// pipe-delimited when a zip overlaps several counties.
type ZipGeoEntry struct {
	Zip         string
	Lat, Lng    float64
	City        string
	CountyNames string
}

// PrimaryCounty returns the first county of the pipe-delimited list.
func (z ZipGeoEntry) PrimaryCounty() string {
	if i := strings.IndexByte(z.CountyNames, '|'); i >= 0 {
		return z.CountyNames[:i]
	}
	return z.CountyNames
}

// Valuation is an automated-valuation-model estimate for an address.
type Valuation struct {
	Price     float64 `json:"price"`
	PriceLow  float64 `json:"priceRangeLow"`
	PriceHigh float64 `json:"priceRangeHigh"`
}

type User struct {
	ID             string
	Email          string
	Tier           string // free|admin
	ValuationCount int
}
