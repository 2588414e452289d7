package service

import (
	"math"
	"strings"
	"testing"
)

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd":  true,
		"Éléphant1": true,
		"Pa0":       false,
		"password1": false,
		"PASSWORD1": false,
		"Password":  false,

		"Passw0rd" + strings.Repeat("a", 64): true,
		"Passw0rd" + strings.Repeat("a", 65): false,
		"Passw0rd" + strings.Repeat("a", 70): false,
	}
	for in, want := range cases {
		if got := strongPassword(in); got != want {
			t.Errorf("strongPassword(%q) = %t, want %t", in, got, want)
		}
	}
}

func TestCheckReportsJSONFieldNames(t *testing.T) {
	err := check(ListingInput{Title: "x", Description: "short", Price: nil, Category: "Laptop", Condition: "Bon état"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "description must be at least 10 characters" {
		t.Errorf("message = %q", got)
	}

	err = check(ListingInput{Title: "x", Description: "long enough text", Price: ptrTo(1.0), Category: "Tablet", Condition: "Bon état"})
	if err == nil || err.Error()[:8] != "category" {
		t.Errorf("category error = %v", err)
	}
}

func ptrTo[T any](v T) *T { return &v }

func TestNormalizePage(t *testing.T) {
	cases := []struct{ page, limit, wantPage, wantLimit int }{
		{0, 0, defaultPage, defaultLimit},
		{-3, -1, defaultPage, defaultLimit},
		{2, 500, 2, maxLimit},
		{maxPage + 1, 10, maxPage, 10},
		{math.MaxInt, maxLimit, maxPage, maxLimit},
	}
	for _, tc := range cases {
		page, limit := normalizePage(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Errorf("normalizePage(%d, %d) = %d, %d", tc.page, tc.limit, page, limit)
		}
		if offset := (page - 1) * limit; offset < 0 {
			t.Errorf("offset for page %d overflowed: %d", tc.page, offset)
		}
	}
}
