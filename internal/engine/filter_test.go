package engine

import (
	"testing"

	"vizboard/internal/models"
)

func TestEffectiveFiltersPrecedence(t *testing.T) {
	// Chart-local filters win over global ones on key collision.
	chart := &models.ChartConfiguration{
		Filters: models.Filters{"region": "EU"},
	}
	global := models.Filters{"region": "US", "product": "Laptop"}

	eff := EffectiveFilters(chart, global)
	if eff["region"] != "EU" {
		t.Errorf("region = %v, want EU", eff["region"])
	}
	if eff["product"] != "Laptop" {
		t.Errorf("product = %v, want Laptop", eff["product"])
	}

	// The merge must not mutate either input.
	if global["region"] != "US" {
		t.Error("global filters were mutated")
	}
}

func TestRowMatches(t *testing.T) {
	row := Row{"region": "US", "revenue": 100.0}

	tests := []struct {
		name    string
		filters models.Filters
		want    bool
	}{
		{"no filters", models.Filters{}, true},
		{"match", models.Filters{"region": "US"}, true},
		{"mismatch", models.Filters{"region": "EU"}, false},
		{"nil value is no constraint", models.Filters{"region": nil}, true},
		{"strict equality across types", models.Filters{"revenue": "100"}, false},
		{"absent field", models.Filters{"missing": "x"}, false},
	}
	for _, tc := range tests {
		if got := rowMatches(row, tc.filters); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilterRows(t *testing.T) {
	rows := []Row{
		{"product": "Laptop"},
		{"product": "Phone"},
		{"product": "Laptop"},
	}
	out := filterRows(rows, models.Filters{"product": "Laptop"})
	if len(out) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(out))
	}
}
