package pagination

import "testing"

func TestNormalizeDefaultsAndClamps(t *testing.T) {
	cases := []struct {
		name     string
		in       Params
		fallback int
		want     Params
	}{
		{"zero values", Params{}, 12, Params{Page: 1, PageSize: 12}},
		{"negative page", Params{Page: -3, PageSize: 20}, 12, Params{Page: 1, PageSize: 20}},
		{"oversized page size", Params{Page: 2, PageSize: 500}, 12, Params{Page: 2, PageSize: MaxPageSize}},
		{"zero fallback uses default", Params{}, 0, Params{Page: 1, PageSize: DefaultPageSize}},
		{"valid left alone", Params{Page: 3, PageSize: 24}, 12, Params{Page: 3, PageSize: 24}},
	}
	for _, tc := range cases {
		got := tc.in.Normalize(tc.fallback)
		if got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, PageSize: 12}
	if got := p.Offset(); got != 24 {
		t.Fatalf("expected offset 24, got %d", got)
	}
}

func TestNewPageRoundsUp(t *testing.T) {
	page := NewPage(Params{Page: 2, PageSize: 12}, 25)
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", page.TotalPages)
	}
	if page.TotalItems != 25 {
		t.Fatalf("expected 25 total items, got %d", page.TotalItems)
	}
}

func TestNewPageEmptyResultStillHasOnePage(t *testing.T) {
	page := NewPage(Params{Page: 1, PageSize: 12}, 0)
	if page.TotalPages != 1 {
		t.Fatalf("expected 1 total page, got %d", page.TotalPages)
	}
}
