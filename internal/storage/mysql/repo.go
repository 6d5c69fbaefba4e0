package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"porchlight/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func scanListing(sc interface{ Scan(...any) error }) (domain.Listing, error) {
	var l domain.Listing
	var lat, lng sql.NullFloat64
	var imagesJSON []byte
	var blurb sql.NullString
	if err := sc.Scan(
		&l.ID, &l.Address, &l.City, &l.County, &l.Zip,
		&l.Price, &l.Beds, &l.Baths, &l.Sqft,
		&l.PriceNum, &l.BedsNum, &l.BathsNum, &l.SqftNum,
		&lat, &lng, &imagesJSON, &blurb,
	); err != nil {
		return domain.Listing{}, err
	}
	if lat.Valid && lng.Valid {
		l.Coords = &domain.Coords{Lat: lat.Float64, Lng: lng.Float64}
	}
	_ = json.Unmarshal(imagesJSON, &l.Images)
	if blurb.Valid {
		b := blurb.String
		l.Blurb = &b
	}
	return l, nil
}

func (r *Repo) Search(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	sqlStr, args, err := buildSearchSQL(q)
	if err != nil {
		return domain.ListingPage{}, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return domain.ListingPage{}, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return domain.ListingPage{}, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return domain.ListingPage{}, err
	}

	page := domain.ListingPage{Items: out, Short: len(out) < q.Limit}
	if len(out) > 0 && q.Order != nil {
		last := out[len(out)-1]
		page.Last = &domain.CursorKey{
			Field:     q.Order.Field,
			Direction: q.Order.Direction,
			Value:     sortValue(last, q.Order.Field),
			ID:        last.ID,
		}
	}
	return page, nil
}

func sortValue(l domain.Listing, f domain.Field) float64 {
	switch f {
	case domain.FieldPrice:
		return l.PriceNum
	case domain.FieldBeds:
		return l.BedsNum
	case domain.FieldBaths:
		return l.BathsNum
	case domain.FieldSqft:
		return l.SqftNum
	}
	return 0
}

func (r *Repo) GetByAddress(ctx context.Context, address string) (domain.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, getByAddressSQL, address))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, err
}

// UpsertListing is the ingestion/backfill write path; id 0 lets the store
// assign one.
func (r *Repo) UpsertListing(ctx context.Context, l domain.Listing) error {
	imgs, _ := json.Marshal(l.Images)
	var id any
	if l.ID != 0 {
		id = l.ID
	}
	var lat, lng any
	if l.Coords != nil {
		lat, lng = l.Coords.Lat, l.Coords.Lng
	}
	var blurb any
	if l.Blurb != nil {
		blurb = *l.Blurb
	}
	_, err := r.db.ExecContext(ctx, upsertListingSQL,
		id, l.Address, l.City, l.County, l.Zip,
		l.Price, l.Beds, l.Baths, l.Sqft,
		l.PriceNum, l.BedsNum, l.BathsNum, l.SqftNum,
		lat, lng, string(imgs), blurb,
	)
	return err
}

// DisplayFields is the raw human-entered numbers the backfill normalizes.
type DisplayFields struct {
	ID    int64
	Price string
	Beds  string
	Baths string
	Sqft  string
}

func (r *Repo) ListDisplayFields(ctx context.Context) ([]DisplayFields, error) {
	rows, err := r.db.QueryContext(ctx, listDisplayFieldsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DisplayFields
	for rows.Next() {
		var d DisplayFields
		if err := rows.Scan(&d.ID, &d.Price, &d.Beds, &d.Baths, &d.Sqft); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateNumericFields(ctx context.Context, id int64, price, beds, baths, sqft float64) error {
	_, err := r.db.ExecContext(ctx, updateNumericFieldsSQL, price, beds, baths, sqft, id)
	return err
}

func (r *Repo) LoadAll(ctx context.Context) ([]domain.ZipGeoEntry, error) {
	rows, err := r.db.QueryContext(ctx, loadZipGeoSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ZipGeoEntry
	for rows.Next() {
		var z domain.ZipGeoEntry
		if err := rows.Scan(&z.Zip, &z.Lat, &z.Lng, &z.City, &z.CountyNames); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertZipGeo(ctx context.Context, z domain.ZipGeoEntry) error {
	_, err := r.db.ExecContext(ctx, upsertZipGeoSQL, z.Zip, z.Lat, z.Lng, z.City, z.CountyNames)
	return err
}

// ConsumeValuation creates the user row on first use, otherwise checks the
// tier and count under a row lock before bumping.
func (r *Repo) ConsumeValuation(ctx context.Context, userID, email string, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	u := domain.User{ID: userID, Email: email}
	err = tx.QueryRowContext(ctx, selectUserForUpdateSQL, userID).Scan(&u.Tier, &u.ValuationCount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, insertUserSQL, userID, email); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if u.Tier != "admin" && u.ValuationCount >= limit {
			return domain.ErrQuotaExceeded
		}
		if _, err := tx.ExecContext(ctx, bumpValuationSQL, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) AddInquiry(ctx context.Context, userID, address string) error {
	_, err := r.db.ExecContext(ctx, insertInquirySQL, userID, address)
	return err
}
