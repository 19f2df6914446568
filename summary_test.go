package capitol

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sumiran35/capitol-shill/date"
)

func TestSummarize(t *testing.T) {
	today := date.MustParse("2025-04-10")
	withSector := func(tr Trade, sector, disclosed string) Trade {
		tr.Sector = sector
		if disclosed != "" {
			tr.DisclosureDate = date.MustParse(disclosed)
		}
		return tr
	}
	trades := []Trade{
		withSector(T("2025-04-01", "Jane Doe", "AAPL", 8000, "Buy"), "Technology", "2025-04-05"),
		withSector(T("2025-04-02", "Jane Doe", "AAPL", 32500, "Sell"), "Technology", ""),
		withSector(T("2025-04-04", "John Roe", "XOM", 175000, "Buy"), "Energy", "2025-04-08"),
		withSector(T("2025-04-05", "John Roe", UnknownTicker, 8000, "Exchange"), "", "2025-04-06"),
	}

	s := Summarize(trades, Filter{}, today)
	if want := date.MustParse("2025-04-05"); s.LastTrade != want {
		t.Errorf("LastTrade = %v, want %v", s.LastTrade, want)
	}
	if !s.Fresh {
		t.Errorf("Fresh = false, want true 5 days after the last trade")
	}
	checks := []struct {
		name      string
		got, want decimal.Decimal
	}{
		{"TotalVolume", s.TotalVolume, decimal.NewFromInt(223500)},
		{"BuyVolume", s.BuyVolume, decimal.NewFromInt(183000)},
		{"SellVolume", s.SellVolume, decimal.NewFromInt(32500)},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if len(s.Sectors) != 2 || s.Sectors[0].Sector != "Energy" {
		t.Errorf("Sectors = %v, want Energy first and no empty sector", s.Sectors)
	}
	if len(s.TopTickers) == 0 || s.TopTickers[0] != (TickerCount{"AAPL", 2}) {
		t.Errorf("TopTickers = %v, want AAPL first", s.TopTickers)
	}
	if got := s.Log[0].Ticker; got != "XOM" {
		t.Errorf("Log[0] = %v, want newest disclosure first", got)
	}
	if got := s.Log[len(s.Log)-1].DisclosureDate; !got.IsZero() {
		t.Errorf("Log ends with %v, want unknown disclosure date last", got)
	}
	if fmt.Sprint(s.Senators) != "[Jane Doe John Roe]" {
		t.Errorf("Senators = %v", s.Senators)
	}

	stale := Summarize(trades, Filter{Senators: []string{"Jane Doe"}}, today.Add(30))
	if stale.Fresh {
		t.Errorf("Fresh = true, want false a month later")
	}
	if stale.Records != 4 || stale.Count != 2 {
		t.Errorf("Records, Count = %d, %d, want 4, 2", stale.Records, stale.Count)
	}
}

func TestTopTickersCapped(t *testing.T) {
	var trades []Trade
	for i := 0; i < 15; i++ {
		trades = append(trades, T("2025-04-01", "Jane Doe", fmt.Sprintf("T%02d", i), 8000, "Buy"))
	}
	if got := len(Summarize(trades, Filter{}, date.MustParse("2025-04-01")).TopTickers); got != TopTickers {
		t.Errorf("len(TopTickers) = %d, want %d", got, TopTickers)
	}
}

func TestFilter(t *testing.T) {
	a := T("2025-04-01", "Jane Doe", "AAPL", 8000, "Buy")
	a.Sector = "Technology"
	tests := []struct {
		f    Filter
		want bool
	}{
		{Filter{}, true},
		{Filter{Senators: []string{"John Roe", "Jane Doe"}}, true},
		{Filter{Senators: []string{"John Roe"}}, false},
		{Filter{Sectors: []string{"Technology"}}, true},
		{Filter{Sectors: []string{"Energy"}}, false},
		{Filter{Ticker: "AAPL"}, true},
		{Filter{Ticker: "MSFT"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Match(a); got != tt.want {
			t.Errorf("%+v.Match() = %v, want %v", tt.f, got, tt.want)
		}
	}
}
