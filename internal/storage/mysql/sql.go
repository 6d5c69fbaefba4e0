package mysql

import (
	"fmt"
	"strings"

	"porchlight/internal/domain"
)

const listingColumns = `id, address, city, county, zip, price, beds, baths, sqft,
price_num, beds_num, baths_num, sqft_num, lat, lng, images, blurb`

// columnFor whitelists the fields a constraint or sort may touch; anything
// else is a programming error surfaced before the query runs.
func columnFor(f domain.Field) (string, bool) {
	switch f {
	case domain.FieldPrice, domain.FieldBeds, domain.FieldBaths, domain.FieldSqft,
		domain.FieldCity, domain.FieldCounty, domain.FieldZip:
		return string(f), true
	}
	return "", false
}

// buildSearchSQL translates a composed query into one SELECT. Cursor
// paging is a tuple comparison on (sort column, id); id is also the sort
// tie-break so pages never overlap.
func buildSearchSQL(q domain.ListingQuery) (string, []any, error) {
	var b strings.Builder
	var args []any
	b.WriteString("SELECT " + listingColumns + " FROM listings")

	var where []string
	for _, c := range q.Constraints {
		col, ok := columnFor(c.Field)
		if !ok {
			return "", nil, fmt.Errorf("unqueryable field %q", c.Field)
		}
		switch c.Op {
		case domain.OpEq:
			where = append(where, col+" = ?")
			args = append(args, c.Value)
		case domain.OpGte:
			where = append(where, col+" >= ?")
			args = append(args, c.Value)
		case domain.OpLte:
			where = append(where, col+" <= ?")
			args = append(args, c.Value)
		case domain.OpIn:
			if len(c.Values) == 0 {
				return "", nil, fmt.Errorf("empty membership clause on %q", c.Field)
			}
			ph := strings.Repeat("?,", len(c.Values))
			where = append(where, col+" IN ("+ph[:len(ph)-1]+")")
			for _, v := range c.Values {
				args = append(args, v)
			}
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}

	if q.Order != nil && q.After != nil {
		col, ok := columnFor(q.Order.Field)
		if !ok {
			return "", nil, fmt.Errorf("unsortable field %q", q.Order.Field)
		}
		cmp := ">"
		if q.Order.Direction == domain.Desc {
			cmp = "<"
		}
		where = append(where, fmt.Sprintf("(%s %s ? OR (%s = ? AND id %s ?))", col, cmp, col, cmp))
		args = append(args, q.After.Value, q.After.Value, q.After.ID)
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	if q.Order != nil {
		col, ok := columnFor(q.Order.Field)
		if !ok {
			return "", nil, fmt.Errorf("unsortable field %q", q.Order.Field)
		}
		dir := "ASC"
		if q.Order.Direction == domain.Desc {
			dir = "DESC"
		}
		b.WriteString(fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir))
	} else {
		b.WriteString(" ORDER BY id")
	}

	b.WriteString(" LIMIT ?")
	args = append(args, q.Limit)
	return b.String(), args, nil
}

const getByAddressSQL = `SELECT ` + listingColumns + ` FROM listings WHERE address = ? LIMIT 1`

const upsertListingSQL = `
INSERT INTO listings
  (id, address, city, county, zip, price, beds, baths, sqft,
   price_num, beds_num, baths_num, sqft_num, lat, lng, images, blurb)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  address    = VALUES(address),
  city       = VALUES(city),
  county     = VALUES(county),
  zip        = VALUES(zip),
  price      = VALUES(price),
  beds       = VALUES(beds),
  baths      = VALUES(baths),
  sqft       = VALUES(sqft),
  price_num  = VALUES(price_num),
  beds_num   = VALUES(beds_num),
  baths_num  = VALUES(baths_num),
  sqft_num   = VALUES(sqft_num),
  lat        = VALUES(lat),
  lng        = VALUES(lng),
  images     = VALUES(images),
  blurb      = VALUES(blurb),
  updated_at = CURRENT_TIMESTAMP
`

const listDisplayFieldsSQL = `SELECT id, price, beds, baths, sqft FROM listings`

const updateNumericFieldsSQL = `
UPDATE listings
SET price_num = ?, beds_num = ?, baths_num = ?, sqft_num = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const loadZipGeoSQL = `SELECT zip, lat, lng, city, county_names FROM zip_geo`

const upsertZipGeoSQL = `
INSERT INTO zip_geo (zip, lat, lng, city, county_names)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  lat = VALUES(lat), lng = VALUES(lng), city = VALUES(city), county_names = VALUES(county_names)
`

const selectUserForUpdateSQL = `SELECT tier, valuation_count FROM users WHERE id = ? FOR UPDATE`

const insertUserSQL = `INSERT INTO users (id, email, tier, valuation_count) VALUES (?, ?, 'free', 1)`

const bumpValuationSQL = `UPDATE users SET valuation_count = valuation_count + 1 WHERE id = ?`

const insertInquirySQL = `INSERT INTO inquiries (user_id, address) VALUES (?, ?)`
