package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Input validation, rejected before any store access.
	ErrInvalidFilter = errors.New("invalid filter")
	ErrSortConflict  = errors.New("sort field conflicts with price range")
	ErrTooManyCities = errors.New("city filter accepts at most 10 values")
	ErrInvalidCursor = errors.New("invalid cursor")

	ErrQuotaExceeded = errors.New("valuation limit reached")
)
