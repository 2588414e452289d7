package service_test

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/techpulse/marketplace/internal/database"
	"github.com/techpulse/marketplace/internal/service"
)

// column returns the type declaration of table.column in the schema.
func column(t *testing.T, table, col string) string {
	t.Helper()
	block := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\)`).
		FindStringSubmatch(database.Schema())
	if block == nil {
		t.Fatalf("table %s not in schema", table)
	}
	m := regexp.MustCompile(`(?m)^\s*` + col + `\s+([A-Z]+\([0-9,]+\))`).FindStringSubmatch(block[1])
	if m == nil {
		t.Fatalf("column %s.%s not in schema", table, col)
	}
	return m[1]
}

// tagParam returns the parameter of rule in the validate tag of field.
func tagParam(t *testing.T, v any, field, rule string) string {
	t.Helper()
	f, ok := reflect.TypeOf(v).FieldByName(field)
	if !ok {
		t.Fatalf("%T has no field %s", v, field)
	}
	for _, part := range strings.Split(f.Tag.Get("validate"), ",") {
		if p, ok := strings.CutPrefix(part, rule+"="); ok {
			return p
		}
	}
	t.Fatalf("%T.%s has no %s rule", v, field, rule)
	return ""
}

func TestTextLimitsFitColumns(t *testing.T) {
	cases := []struct {
		table, col string
		input      any
		field      string
	}{
		{"users", "first_name", service.SignupInput{}, "FirstName"},
		{"users", "last_name", service.SignupInput{}, "LastName"},
		{"users", "email", service.SignupInput{}, "Email"},
		{"users", "first_name", service.ProfilePatch{}, "FirstName"},
		{"users", "last_name", service.ProfilePatch{}, "LastName"},
		{"users", "email", service.ProfilePatch{}, "Email"},
		{"products", "name", service.ProductInput{}, "Name"},
		{"products", "image", service.ProductInput{}, "Image"},
		{"products", "name", service.ProductPatch{}, "Name"},
		{"products", "image", service.ProductPatch{}, "Image"},
		{"listings", "title", service.ListingInput{}, "Title"},
		{"listings", "description", service.ListingInput{}, "Description"},
		{"listings", "location", service.ListingInput{}, "Location"},
		{"listings", "title", service.ListingPatch{}, "Title"},
		{"listings", "description", service.ListingPatch{}, "Description"},
		{"listings", "location", service.ListingPatch{}, "Location"},
		{"reviews", "comment", service.ReviewInput{}, "Comment"},
		{"reviews", "comment", service.ReviewPatch{}, "Comment"},
	}
	for _, tc := range cases {
		t.Run(tc.table+"."+tc.col+"/"+reflect.TypeOf(tc.input).Name(), func(t *testing.T) {
			decl := column(t, tc.table, tc.col)
			width, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(decl, "VARCHAR("), ")"))
			if err != nil {
				t.Fatalf("column %s is %s, want VARCHAR(n)", tc.col, decl)
			}
			limit, err := strconv.Atoi(tagParam(t, tc.input, tc.field, "max"))
			if err != nil {
				t.Fatal(err)
			}
			if limit > width {
				t.Errorf("max=%d exceeds %s", limit, decl)
			}
		})
	}
}

func TestPriceLimitsFitColumns(t *testing.T) {
	cases := []struct {
		table string
		input any
	}{
		{"products", service.ProductInput{}},
		{"products", service.ProductPatch{}},
		{"listings", service.ListingInput{}},
		{"listings", service.ListingPatch{}},
	}
	for _, tc := range cases {
		decl := column(t, tc.table, "price")
		m := regexp.MustCompile(`^DECIMAL\((\d+),(\d+)\)$`).FindStringSubmatch(decl)
		if m == nil {
			t.Fatalf("price column is %s, want DECIMAL(p,s)", decl)
		}
		precision, _ := strconv.Atoi(m[1])
		scale, _ := strconv.Atoi(m[2])
		want := math.Pow10(precision-scale) - math.Pow10(-scale)

		got, err := strconv.ParseFloat(tagParam(t, tc.input, "Price", "lte"), 64)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("%T price lte=%v, column %s holds up to %v", tc.input, got, decl, want)
		}
	}
}
