package capitol

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sumiran35/capitol-shill/date"
)

func TestMerge(t *testing.T) {
	a := T("2025-01-02", "Jane Doe", "AAPL", 8000, "Buy")
	b := T("2025-01-01", "John Roe", "MSFT", 32500, "Sell")
	a2 := a
	a2.DisclosureDate = date.MustParse("2025-01-20") // same key, refreshed content
	c := T("2025-01-03", "Jane Doe", "NVDA", 175000, "Buy")

	tests := []struct {
		name        string
		existing    []Trade
		fresh       []Trade
		want        []Trade
		wantAdded   int
		wantUpdated int
	}{
		{
			name:      "empty",
			fresh:     []Trade{a, b},
			want:      []Trade{b, a},
			wantAdded: 2,
		},
		{
			name:        "last observed wins",
			existing:    []Trade{b, a},
			fresh:       []Trade{a2, c},
			want:        []Trade{b, a2, c},
			wantAdded:   1,
			wantUpdated: 1,
		},
		{
			name:     "identical batch",
			existing: []Trade{b, a},
			fresh:    []Trade{a},
			want:     []Trade{b, a},
		},
		{
			name:      "duplicates within the batch",
			fresh:     []Trade{a, a2},
			want:      []Trade{a2},
			wantAdded: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, tt.fresh)
			if !equalTrades(got.Trades, tt.want) {
				t.Errorf("Merge().Trades = %v, want %v", got.Trades, tt.want)
			}
			if got.Added != tt.wantAdded {
				t.Errorf("Merge().Added = %d, want %d", got.Added, tt.wantAdded)
			}
			if len(got.Updated) != tt.wantUpdated {
				t.Errorf("len(Merge().Updated) = %d, want %d", len(got.Updated), tt.wantUpdated)
			}
		})
	}
}

func TestMergeIdempotent(t *testing.T) {
	existing := []Trade{
		T("2025-01-01", "John Roe", "MSFT", 32500, "Sell"),
		T("2025-01-05", "Jane Doe", "AAPL", 8000, "Buy"),
	}
	batch := []Trade{
		T("2025-01-05", "Jane Doe", "AAPL", 8000, "Buy"),
		T("2025-01-05", "Jane Doe", "AAPL", 8000, "Sell"),
		T("2025-01-04", "Jim Poe", UnknownTicker, 0, "Buy"),
	}
	once := Merge(existing, batch).Trades
	twice := Merge(once, batch).Trades
	if !equalTrades(once, twice) {
		t.Errorf("Merge() is not idempotent:\n once  %v\n twice %v", once, twice)
	}
}

func TestDedupKeepsOneSurvivorPerKey(t *testing.T) {
	var in []Trade
	for i := 0; i < 3; i++ {
		tr := T("2025-02-01", "Jane Doe", "AAPL", 8000, "Buy")
		tr.AssetDescription = []string{"first", "second", "third"}[i]
		in = append(in, tr)
	}
	in = append(in, T("2025-02-01", "Jane Doe", "AAPL", 32500, "Buy"))

	got := Dedup(in)
	seen := map[Key]int{}
	for _, tr := range got {
		seen[tr.Key()]++
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("Dedup() kept %d trades for %v, want 1", n, k)
		}
	}
	if len(got) != 2 || got[0].AssetDescription != "third" {
		t.Errorf("Dedup() = %v, want the last observed survivor first", got)
	}
}

func TestKeyCanonicalAmount(t *testing.T) {
	a := T("2025-02-01", "Jane Doe", "AAPL", 175000, "Buy")
	b := a
	b.AmountEst = decimal.RequireFromString("175000.00")
	if a.Key() != b.Key() {
		t.Errorf("Key() = %v and %v for equal amounts", a.Key(), b.Key())
	}
}

func TestWatermark(t *testing.T) {
	today := date.MustParse("2025-04-01")
	tests := []struct {
		name   string
		trades []Trade
		want   date.Date
	}{
		{"empty", nil, date.MustParse("2025-01-01")},
		{"max", []Trade{
			T("2025-03-01", "a", "A", 1, "Buy"),
			T("2025-03-20", "b", "B", 1, "Buy"),
			T("2025-03-10", "c", "C", 1, "Buy"),
		}, date.MustParse("2025-03-20")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Watermark(tt.trades, today); got != tt.want {
				t.Errorf("Watermark() = %v, want %v", got, tt.want)
			}
		})
	}
}
