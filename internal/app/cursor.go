package app

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"porchlight/internal/domain"
)

// Cursors are opaque to clients: base64 of the last row's sort position.
// They replay only against the same sort field and direction; anything
// else is rejected rather than producing a store-dependent page.

func EncodeCursor(k domain.CursorKey) string {
	b, _ := json.Marshal(k)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(s string, o domain.Order) (domain.CursorKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return domain.CursorKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	var k domain.CursorKey
	if err := json.Unmarshal(raw, &k); err != nil {
		return domain.CursorKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	if k.Field != o.Field || k.Direction != o.Direction {
		return domain.CursorKey{}, fmt.Errorf("%w: cursor was issued for %s %s", domain.ErrInvalidCursor, k.Field, k.Direction)
	}
	return k, nil
}
