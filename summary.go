package capitol

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/sumiran35/capitol-shill/date"
)

// FreshDays is the age, in days, under which the most recent trade makes the data fresh.
const FreshDays = 7

// TopTickers is the number of tickers listed in Summary.TopTickers.
const TopTickers = 10

// Filter selects trades. Empty fields match everything.
type Filter struct {
	Senators []string
	Sectors  []string
	Ticker   string
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Trade) bool {
	if len(f.Senators) > 0 && !slices.Contains(f.Senators, t.Senator) {
		return false
	}
	if len(f.Sectors) > 0 && !slices.Contains(f.Sectors, t.Sector) {
		return false
	}
	if f.Ticker != "" && f.Ticker != t.Ticker {
		return false
	}
	return true
}

// Apply returns the trades matching the filter, in order.
func (f Filter) Apply(trades []Trade) []Trade {
	res := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if f.Match(t) {
			res = append(res, t)
		}
	}
	return res
}

// TickerCount is the number of trades on a ticker.
type TickerCount struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}

// SectorFlow is the estimated dollar volume traded in a sector.
type SectorFlow struct {
	Sector string          `json:"sector"`
	Volume decimal.Decimal `json:"volume"`
}

// Summary holds the dashboard figures of a snapshot.
//
// Status fields (LastTrade, Fresh, Records) describe the whole snapshot, the
// others only the filtered trades.
type Summary struct {
	LastTrade date.Date `json:"last_trade"`
	Fresh     bool      `json:"fresh"`
	Records   int       `json:"records"`

	Count       int             `json:"count"`
	TotalVolume decimal.Decimal `json:"total_volume"`
	BuyVolume   decimal.Decimal `json:"buy_volume"`
	SellVolume  decimal.Decimal `json:"sell_volume"`
	Sectors     []SectorFlow    `json:"sectors"`
	TopTickers  []TickerCount   `json:"top_tickers"`
	Log         []Trade         `json:"log"` // newest disclosures first

	// Distinct values, sorted, to build filters from.
	Senators   []string `json:"senators"`
	SectorList []string `json:"sector_list"`
	Tickers    []string `json:"tickers"`
}

// Summarize computes the Summary of trades selected by f.
func Summarize(trades []Trade, f Filter, today date.Date) Summary {
	s := Summary{Records: len(trades)}
	senators := map[string]struct{}{}
	sectors := map[string]struct{}{}
	tickers := map[string]struct{}{}
	for _, t := range trades {
		if t.TransactionDate.After(s.LastTrade) {
			s.LastTrade = t.TransactionDate
		}
		senators[t.Senator] = struct{}{}
		if t.Sector != "" {
			sectors[t.Sector] = struct{}{}
		}
		tickers[t.Ticker] = struct{}{}
	}
	s.Fresh = !s.LastTrade.IsZero() && today.Sub(s.LastTrade) < FreshDays
	s.Senators = sortedKeys(senators)
	s.SectorList = sortedKeys(sectors)
	s.Tickers = sortedKeys(tickers)

	selected := f.Apply(trades)
	s.Count = len(selected)
	flows := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, t := range selected {
		s.TotalVolume = s.TotalVolume.Add(t.AmountEst)
		if t.IsBuy() {
			s.BuyVolume = s.BuyVolume.Add(t.AmountEst)
		}
		if t.IsSell() {
			s.SellVolume = s.SellVolume.Add(t.AmountEst)
		}
		if t.Sector != "" {
			flows[t.Sector] = flows[t.Sector].Add(t.AmountEst)
		}
		counts[t.Ticker]++
	}

	for sector, v := range flows {
		s.Sectors = append(s.Sectors, SectorFlow{Sector: sector, Volume: v})
	}
	slices.SortFunc(s.Sectors, func(a, b SectorFlow) int {
		if c := b.Volume.Cmp(a.Volume); c != 0 {
			return c
		}
		return cmp.Compare(a.Sector, b.Sector)
	})

	for ticker, n := range counts {
		s.TopTickers = append(s.TopTickers, TickerCount{Ticker: ticker, Count: n})
	}
	slices.SortFunc(s.TopTickers, func(a, b TickerCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	if len(s.TopTickers) > TopTickers {
		s.TopTickers = s.TopTickers[:TopTickers]
	}

	s.Log = slices.Clone(selected)
	slices.SortStableFunc(s.Log, func(a, b Trade) int {
		// unknown disclosure dates last.
		switch {
		case a.DisclosureDate.IsZero() && b.DisclosureDate.IsZero():
			return 0
		case a.DisclosureDate.IsZero():
			return 1
		case b.DisclosureDate.IsZero():
			return -1
		}
		return b.DisclosureDate.Compare(a.DisclosureDate)
	})
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}
