package mysql

import (
	"strings"
	"testing"

	"porchlight/internal/domain"
)

func TestBuildSearchSQL_ZipAndPriceRange(t *testing.T) {
	sqlStr, args, err := buildSearchSQL(domain.ListingQuery{
		Constraints: []domain.Constraint{
			{Field: domain.FieldZip, Op: domain.OpEq, Value: "80202"},
			{Field: domain.FieldPrice, Op: domain.OpGte, Value: 500000.0},
			{Field: domain.FieldPrice, Op: domain.OpLte, Value: 750000.0},
		},
		Order: &domain.Order{Field: domain.FieldPrice, Direction: domain.Desc},
		Limit: 40,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	for _, want := range []string{
		"zip = ?", "price_num >= ?", "price_num <= ?",
		"ORDER BY price_num DESC, id DESC", "LIMIT ?",
	} {
		if !strings.Contains(sqlStr, want) {
			t.Fatalf("missing %q in:\n%s", want, sqlStr)
		}
	}
	if len(args) != 4 {
		t.Fatalf("args = %v", args)
	}
	if args[len(args)-1] != 40 {
		t.Fatalf("limit arg = %v", args[len(args)-1])
	}
}

func TestBuildSearchSQL_CityMembership(t *testing.T) {
	sqlStr, args, err := buildSearchSQL(domain.ListingQuery{
		Constraints: []domain.Constraint{
			{Field: domain.FieldCity, Op: domain.OpIn, Values: []string{"Denver", "Aurora", "Lakewood"}},
		},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(sqlStr, "city IN (?,?,?)") {
		t.Fatalf("bad IN clause:\n%s", sqlStr)
	}
	if !strings.Contains(sqlStr, "ORDER BY id") {
		t.Fatalf("browse queries need a stable order:\n%s", sqlStr)
	}
	if len(args) != 4 {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildSearchSQL_CursorTuple(t *testing.T) {
	sqlStr, args, err := buildSearchSQL(domain.ListingQuery{
		Order: &domain.Order{Field: domain.FieldPrice, Direction: domain.Desc},
		After: &domain.CursorKey{Field: domain.FieldPrice, Direction: domain.Desc, Value: 650000, ID: 12},
		Limit: 40,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(sqlStr, "(price_num < ? OR (price_num = ? AND id < ?))") {
		t.Fatalf("bad cursor predicate:\n%s", sqlStr)
	}
	if len(args) != 4 { // three cursor args + limit
		t.Fatalf("args = %v", args)
	}

	asc, _, err := buildSearchSQL(domain.ListingQuery{
		Order: &domain.Order{Field: domain.FieldPrice, Direction: domain.Asc},
		After: &domain.CursorKey{Field: domain.FieldPrice, Direction: domain.Asc, Value: 650000, ID: 12},
		Limit: 40,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(asc, "(price_num > ? OR (price_num = ? AND id > ?))") {
		t.Fatalf("bad asc cursor predicate:\n%s", asc)
	}
}

func TestBuildSearchSQL_RejectsUnknownField(t *testing.T) {
	_, _, err := buildSearchSQL(domain.ListingQuery{
		Constraints: []domain.Constraint{{Field: "address; DROP TABLE listings", Op: domain.OpEq, Value: "x"}},
		Limit:       1,
	})
	if err == nil {
		t.Fatal("unknown field must be rejected")
	}
}

func TestBuildSearchSQL_RejectsEmptyMembership(t *testing.T) {
	_, _, err := buildSearchSQL(domain.ListingQuery{
		Constraints: []domain.Constraint{{Field: domain.FieldCity, Op: domain.OpIn}},
		Limit:       1,
	})
	if err == nil {
		t.Fatal("empty IN clause must be rejected")
	}
}
