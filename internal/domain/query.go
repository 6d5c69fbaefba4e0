package domain

// Field names a queryable listing attribute. Values double as the store
// column identifiers the adapter is allowed to touch.
type Field string

const (
	FieldPrice  Field = "price_num"
	FieldBeds   Field = "beds_num"
	FieldBaths  Field = "baths_num"
	FieldSqft   Field = "sqft_num"
	FieldCity   Field = "city"
	FieldCounty Field = "county"
	FieldZip    Field = "zip"
)

type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
	OpIn  Op = "in"
)

// Constraint is one store predicate. Values is set for OpIn, Value otherwise.
type Constraint struct {
	Field  Field
	Op     Op
	Value  any
	Values []string
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Order struct {
	Field     Field
	Direction Direction
}

// Mode distinguishes the two query shapes. Browse (no explicit sort)
// over-fetches and shuffles for variety and never pages; sorted search is
// deterministic and cursor-friendly.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSorted
)

// FilterSpec is the normalized search input. Nil pointers mean "not
// filtered". Cities and County are ignored when Zip is set.
type FilterSpec struct {
	MinPrice   *float64
	MaxPrice   *float64
	Beds       *float64
	ExactBeds  bool
	Baths      *float64
	Cities     []string
	County     *string
	Zip        *string
	CitySearch *string
	Order      *Order
	PageSize   int
	Cursor     *string
}

// CursorKey is the decoded form of a page cursor: the sort position of the
// last row of the previous page. ID breaks ties so pages never overlap.
type CursorKey struct {
	Field     Field     `json:"f"`
	Direction Direction `json:"d"`
	Value     float64   `json:"v"`
	ID        int64     `json:"id"`
}

// ListingQuery is what the store adapter executes: constraints it can
// compose natively, plus paging state.
type ListingQuery struct {
	Constraints []Constraint
	Order       *Order
	Limit       int
	After       *CursorKey
}

// ListingPage is one raw page from the store. Last is the cursor key of the
// final row (nil for an empty page); Short reports that fewer than Limit
// rows came back, i.e. the data is likely exhausted.
type ListingPage struct {
	Items []Listing
	Last  *CursorKey
	Short bool
}

// FallbackInfo records a zip substitution made by the geo fallback.
type FallbackInfo struct {
	OriginZip      string  `json:"originalZip"`
	FallbackZip    string  `json:"fallbackZip"`
	FallbackCity   string  `json:"fallbackCity"`
	FallbackCounty string  `json:"fallbackCounty"`
	DistanceMiles  float64 `json:"distanceMiles"`
}

// SearchResult is the assembled response for one search page.
type SearchResult struct {
	Listings   []Listing
	NextCursor *string
	Fallback   *FallbackInfo
}
