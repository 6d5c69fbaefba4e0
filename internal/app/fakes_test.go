package app_test

import (
	"context"
	"encoding/json"
	"sort"

	"porchlight/internal/domain"
)

// ---- fakes ----

// fakeStore is a tiny in-memory listing store honoring the same constraint
// and cursor semantics as the SQL adapter.
type fakeStore struct {
	all       []domain.Listing
	byAddress map[string]domain.Listing
	failErr   error
	calls     []domain.ListingQuery
	// onSearch runs before each Search, e.g. to cancel a context mid-loop.
	onSearch func(q domain.ListingQuery)
}

func num(l domain.Listing, f domain.Field) float64 {
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

func matches(l domain.Listing, c domain.Constraint) bool {
	switch c.Field {
	case domain.FieldZip:
		return l.Zip == c.Value.(string)
	case domain.FieldCounty:
		return l.County == c.Value.(string)
	case domain.FieldCity:
		if c.Op == domain.OpIn {
			for _, v := range c.Values {
				if l.City == v {
					return true
				}
			}
			return false
		}
		return l.City == c.Value.(string)
	default:
		v := num(l, c.Field)
		w := c.Value.(float64)
		switch c.Op {
		case domain.OpEq:
			return v == w
		case domain.OpGte:
			return v >= w
		case domain.OpLte:
			return v <= w
		}
	}
	return false
}

func (f *fakeStore) Search(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	f.calls = append(f.calls, q)
	if f.onSearch != nil {
		f.onSearch(q)
	}
	if f.failErr != nil {
		return domain.ListingPage{}, f.failErr
	}
	var out []domain.Listing
	for _, l := range f.all {
		ok := true
		for _, c := range q.Constraints {
			if !matches(l, c) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, l)
		}
	}
	if q.Order != nil {
		o := *q.Order
		sort.Slice(out, func(i, j int) bool {
			vi, vj := num(out[i], o.Field), num(out[j], o.Field)
			if vi != vj {
				if o.Direction == domain.Desc {
					return vi > vj
				}
				return vi < vj
			}
			if o.Direction == domain.Desc {
				return out[i].ID > out[j].ID
			}
			return out[i].ID < out[j].ID
		})
		if q.After != nil {
			k := *q.After
			idx := 0
			for idx < len(out) {
				v, id := num(out[idx], o.Field), out[idx].ID
				past := false
				if o.Direction == domain.Desc {
					past = v < k.Value || (v == k.Value && id < k.ID)
				} else {
					past = v > k.Value || (v == k.Value && id > k.ID)
				}
				if past {
					break
				}
				idx++
			}
			out = out[idx:]
		}
	}
	page := domain.ListingPage{}
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	page.Short = len(out) < q.Limit
	page.Items = out
	if len(out) > 0 && q.Order != nil {
		last := out[len(out)-1]
		page.Last = &domain.CursorKey{
			Field:     q.Order.Field,
			Direction: q.Order.Direction,
			Value:     num(last, q.Order.Field),
			ID:        last.ID,
		}
	}
	return page, nil
}

func (f *fakeStore) GetByAddress(ctx context.Context, address string) (domain.Listing, error) {
	if l, ok := f.byAddress[address]; ok {
		return l, nil
	}
	return domain.Listing{}, domain.ErrNotFound
}

type fakeZips struct {
	entries []domain.ZipGeoEntry
	loads   int
}

func (f *fakeZips) LoadAll(ctx context.Context) ([]domain.ZipGeoEntry, error) {
	f.loads++
	return f.entries, nil
}

// fakeCache stores JSON so it works for any value type.
type fakeCache struct{ m map[string][]byte }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	b, _ := json.Marshal(v)
	c.m[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.m, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
